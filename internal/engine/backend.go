package engine

import (
	"strings"

	"github.com/creatorstation/editorial/internal/config"
	"github.com/go-resty/resty/v2"
)

// NewBackend picks the adapter for a configured endpoint: Gemini-style
// hosts get the generateContent adapter, everything else is treated as an
// OpenAI-compatible chat completions API.
func NewBackend(cfg config.EngineConfig) Backend {
	if strings.Contains(strings.ToLower(cfg.URL), "generativelanguage.googleapis.com") {
		return NewGemini(cfg, nil)
	}
	return NewOpenAI(cfg, nil)
}

func newClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

const maxUpstreamErrorRunes = 300

// upstreamError trims an error body to something loggable, on a rune
// boundary.
func upstreamError(body []byte) string {
	s := strings.ToValidUTF8(strings.TrimSpace(string(body)), "")
	if r := []rune(s); len(r) > maxUpstreamErrorRunes {
		s = string(r[:maxUpstreamErrorRunes])
	}
	return s
}
