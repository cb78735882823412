package editorial

import (
	"errors"
	"strings"

	"github.com/creatorstation/editorial/internal/news"
	"github.com/creatorstation/editorial/pkg/web"
	v "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	maxNewsLinks  = 5
	maxKnobRunes  = 300
	maxNotesRunes = 2000
)

type GenerateBody struct {
	CandidateID          string   `json:"candidate_id"`
	MaxItems             int      `json:"max_items"`
	NewsMode             string   `json:"news_mode"`
	EditorialInclination string   `json:"editorial_inclination"`
	EditorialStyle       string   `json:"editorial_style"`
	NewsLinks            []string `json:"news_links"`
	EditorialNotes       string   `json:"editorial_notes"`
}

func (b GenerateBody) Validate() error {
	return v.ValidateStruct(&b,
		v.Field(&b.CandidateID, v.Required, is.UUID),
		v.Field(&b.MaxItems, v.Min(0), v.Max(news.MaxItems)),
		v.Field(&b.NewsMode, v.In(string(news.ModeGrave), string(news.ModeViral), string(news.ModeAny))),
		v.Field(&b.EditorialInclination, v.RuneLength(0, maxKnobRunes)),
		v.Field(&b.EditorialStyle, v.RuneLength(0, maxKnobRunes)),
		v.Field(&b.NewsLinks, v.Length(0, maxNewsLinks), v.Each(v.Required, is.URL, v.By(httpLink))),
		v.Field(&b.EditorialNotes, v.RuneLength(0, maxNotesRunes)),
	)
}

func httpLink(value interface{}) error {
	s, _ := value.(string)
	if !web.IsHTTPURL(s) {
		return errors.New("must be an http(s) URL")
	}
	return nil
}

// RunRequest converts a validated body into a pipeline request.
func (b GenerateBody) RunRequest(requestID string) RunRequest {
	return RunRequest{
		RequestID:   requestID,
		CandidateID: strings.TrimSpace(b.CandidateID),
		MaxItems:    b.MaxItems,
		Mode:        news.ParseMode(b.NewsMode),
		Inclination: strings.TrimSpace(b.EditorialInclination),
		Style:       strings.TrimSpace(b.EditorialStyle),
		Notes:       strings.TrimSpace(b.EditorialNotes),
		Links:       b.NewsLinks,
		Trigger:     TriggerHTTP,
	}
}
