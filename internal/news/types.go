// Package news picks the timely news signal an editorial is built around.
// Licensed feeds and a news-search provider are ranked together; when
// nothing qualifies the candidate's latest post is reframed, and failing
// that the run proceeds without a signal.
package news

import (
	"time"

	"github.com/creatorstation/editorial/internal/models"
)

// Mode selects which classification bucket wins.
type Mode string

const (
	ModeGrave Mode = "grave"
	ModeViral Mode = "viral"
	ModeAny   Mode = "any"
)

// ParseMode maps free text to a Mode, defaulting to ModeAny.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeGrave, ModeViral:
		return Mode(s)
	default:
		return ModeAny
	}
}

const (
	ClassGrave   = "grave"
	ClassViral   = "viral"
	ClassGeneral = "general"
)

const (
	OriginOperator = "operator"
	OriginFeed     = "feed"
	OriginSearch   = "search"
	OriginReframe  = "reframe"
)

// Signal is one ranked news item.
type Signal struct {
	Title          string
	URL            string
	SourceName     string
	Summary        string
	Region         string
	PublishedAt    time.Time
	Classification string
	Origin         string
	Score          float64
}

// Ref converts the signal into the provenance record stored with a draft.
func (s Signal) Ref() *models.SignalRef {
	ref := &models.SignalRef{
		Title:          s.Title,
		URL:            s.URL,
		SourceName:     s.SourceName,
		Classification: s.Classification,
		Origin:         s.Origin,
		Score:          s.Score,
	}
	if !s.PublishedAt.IsZero() {
		t := s.PublishedAt
		ref.PublishedAt = &t
	}
	return ref
}

// Selection is the outcome of one selector run: the primary signal first,
// then background context. It is empty in no-signal mode.
type Selection struct {
	Signals []Signal
}

// Primary returns the chosen signal, or nil when there is none.
func (s Selection) Primary() *Signal {
	if len(s.Signals) == 0 {
		return nil
	}
	return &s.Signals[0]
}

// Found reports whether an external article (not a reframed post) was chosen.
func (s Selection) Found() bool {
	p := s.Primary()
	return p != nil && p.Origin != OriginReframe
}
