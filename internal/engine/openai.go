package engine

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/creatorstation/editorial/internal/config"
	"github.com/go-resty/resty/v2"
)

// OpenAI talks to any OpenAI-compatible chat completions API.
type OpenAI struct {
	cfg    config.EngineConfig
	client *resty.Client
}

// NewOpenAI builds the adapter; a nil client gets a default one.
func NewOpenAI(cfg config.EngineConfig, client *resty.Client) *OpenAI {
	if client == nil {
		client = newClient(cfg.URL)
	}
	return &OpenAI{cfg: cfg, client: client}
}

func (p *OpenAI) Name() string       { return p.cfg.Name }
func (p *OpenAI) Configured() bool   { return p.cfg.Configured() }
func (p *OpenAI) ImageCapable() bool { return p.Configured() && p.cfg.ImageModel != "" }

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (p *OpenAI) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if !p.Configured() {
		return "", ErrNotConfigured
	}
	req := openAIChatRequest{
		Model:       p.cfg.Model,
		Temperature: 0.7,
		Messages: []openAIMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
	}
	req.ResponseFormat = &struct {
		Type string `json:"type"`
	}{Type: "json_object"}

	var out openAIChatResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.cfg.APIKey).
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("openai: unexpected status %s: %s", resp.Status(), upstreamError(resp.Body()))
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	msg := out.Choices[0].Message
	if strings.TrimSpace(msg.Content) == "" {
		if msg.Refusal != "" {
			return "", fmt.Errorf("openai: refused: %s", msg.Refusal)
		}
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	return msg.Content, nil
}

type openAIImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type openAIImageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
}

func (p *OpenAI) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	if !p.ImageCapable() {
		return nil, ErrNoImageModel
	}
	var out openAIImageResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.cfg.APIKey).
		SetBody(openAIImageRequest{
			Model:          p.cfg.ImageModel,
			Prompt:         prompt,
			N:              1,
			Size:           "1536x1024",
			ResponseFormat: "b64_json",
		}).
		SetResult(&out).
		Post("/images/generations")
	if err != nil {
		return nil, fmt.Errorf("openai image: request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openai image: unexpected status %s: %s", resp.Status(), upstreamError(resp.Body()))
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("openai image: %w", ErrEmptyResponse)
	}
	img := &Image{Provider: p.cfg.Name + "/" + p.cfg.ImageModel}
	switch {
	case out.Data[0].B64JSON != "":
		data, err := base64.StdEncoding.DecodeString(out.Data[0].B64JSON)
		if err != nil {
			return nil, fmt.Errorf("openai image: decode: %w", err)
		}
		img.Data = data
	case out.Data[0].URL != "":
		img.URL = out.Data[0].URL
	default:
		return nil, fmt.Errorf("openai image: %w", ErrEmptyResponse)
	}
	return img, nil
}
