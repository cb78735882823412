package engine

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/creatorstation/editorial/internal/config"
	"github.com/go-resty/resty/v2"
)

// Gemini talks to the Generative Language API.
type Gemini struct {
	cfg    config.EngineConfig
	client *resty.Client
}

// NewGemini builds the adapter; a nil client gets a default one.
func NewGemini(cfg config.EngineConfig, client *resty.Client) *Gemini {
	if client == nil {
		client = newClient(cfg.URL)
	}
	return &Gemini{cfg: cfg, client: client}
}

func (g *Gemini) Name() string       { return g.cfg.Name }
func (g *Gemini) Configured() bool   { return g.cfg.Configured() }
func (g *Gemini) ImageCapable() bool { return g.Configured() && g.cfg.ImageModel != "" }

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature      float64 `json:"temperature"`
		ResponseMimeType string  `json:"responseMimeType,omitempty"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (g *Gemini) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if !g.Configured() {
		return "", ErrNotConfigured
	}
	var req geminiRequest
	if prompt.System != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: prompt.System}}}
	}
	req.Contents = []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt.User}}}}
	req.GenerationConfig.Temperature = 0.7
	req.GenerationConfig.ResponseMimeType = "application/json"

	var out geminiResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", g.cfg.APIKey).
		SetPathParam("model", g.cfg.Model).
		SetBody(req).
		SetResult(&out).
		Post("/v1beta/models/{model}:generateContent")
	if err != nil {
		return "", fmt.Errorf("gemini: request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("gemini: unexpected status %s: %s", resp.Status(), upstreamError(resp.Body()))
	}
	if out.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini: blocked: %s", out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	var b strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("gemini: %w (finish reason %s)", ErrEmptyResponse, out.Candidates[0].FinishReason)
	}
	return b.String(), nil
}

type geminiImageRequest struct {
	Instances []struct {
		Prompt string `json:"prompt"`
	} `json:"instances"`
	Parameters struct {
		SampleCount int    `json:"sampleCount"`
		AspectRatio string `json:"aspectRatio"`
	} `json:"parameters"`
}

type geminiImageResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

func (g *Gemini) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	if !g.ImageCapable() {
		return nil, ErrNoImageModel
	}
	var req geminiImageRequest
	req.Instances = append(req.Instances, struct {
		Prompt string `json:"prompt"`
	}{Prompt: prompt})
	req.Parameters.SampleCount = 1
	req.Parameters.AspectRatio = "16:9"

	var out geminiImageResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", g.cfg.APIKey).
		SetPathParam("model", g.cfg.ImageModel).
		SetBody(req).
		SetResult(&out).
		Post("/v1beta/models/{model}:predict")
	if err != nil {
		return nil, fmt.Errorf("gemini image: request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gemini image: unexpected status %s: %s", resp.Status(), upstreamError(resp.Body()))
	}
	if len(out.Predictions) == 0 || out.Predictions[0].BytesBase64Encoded == "" {
		return nil, fmt.Errorf("gemini image: %w", ErrEmptyResponse)
	}
	data, err := base64.StdEncoding.DecodeString(out.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, fmt.Errorf("gemini image: decode: %w", err)
	}
	return &Image{
		Data:        data,
		ContentType: out.Predictions[0].MimeType,
		Provider:    g.cfg.Name + "/" + g.cfg.ImageModel,
	}, nil
}
