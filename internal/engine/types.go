// Package engine drives the two generative backends: concurrent calls,
// tolerant extraction, the safety baseline, arbitration and the single
// corrective round-trip.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/creatorstation/editorial/internal/models"
)

var (
	ErrNotConfigured   = errors.New("backend not configured")
	ErrNoImageModel    = errors.New("backend has no image model")
	ErrEmptyResponse   = errors.New("empty response")
	ErrEmptyLongForm   = errors.New("no long-form text in response")
	ErrSafetyViolation = errors.New("safety baseline violation")
)

// Prompt is a system instruction plus the user turn.
type Prompt struct {
	System string
	User   string
}

// Image is a synthesized picture. Either Data or URL is set.
type Image struct {
	Data        []byte
	ContentType string
	URL         string
	Provider    string
}

// Backend is one generative service, normalized to plain text in and out.
// Provider-specific response shapes never leave the adapter.
type Backend interface {
	Name() string
	Configured() bool
	ImageCapable() bool
	Complete(ctx context.Context, prompt Prompt) (string, error)
	GenerateImage(ctx context.Context, prompt string) (*Image, error)
}

// Output is the canonical article + variant set.
type Output struct {
	Headline         string            `json:"headline"`
	Sentiment        string            `json:"sentiment"`
	SEOKeywords      []string          `json:"seo_keywords"`
	MasterEditorial  string            `json:"master_editorial"`
	PlatformVariants map[string]string `json:"platform_variants"`
	ImageKeywords    []string          `json:"image_keywords"`
}

// LongForm returns the primary article text.
func (o Output) LongForm() string {
	if v := strings.TrimSpace(o.PlatformVariants[models.ChannelLongForm]); v != "" {
		return v
	}
	return strings.TrimSpace(o.MasterEditorial)
}

// Combined is every generated text field joined, used for safety and
// language checks.
func (o Output) Combined() string {
	parts := []string{o.Headline, o.MasterEditorial}
	for _, ch := range models.Channels {
		if v, ok := o.PlatformVariants[ch]; ok {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}

// Failure codes.
const (
	CodeNoBackend   = "no_backend_configured"
	CodeAllFailed   = "all_engines_failed"
	CodeOutOfBounds = "content_out_of_bounds"
)

// Failure is a structured generation failure carrying per-engine diagnostics.
type Failure struct {
	Code        string
	Message     string
	Diagnostics []models.EngineDiagnostic
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}
