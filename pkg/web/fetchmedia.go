package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrTooLarge         = errors.New("media exceeds size cap")
	ErrContentType      = errors.New("media content type not allowed")
	defaultUserAgent    = "editorial-engine/1.0 (+https://creatorstation.com)"
	defaultFetchTimeout = 20 * time.Second
)

// Limits caps what FetchMedia accepts.
type Limits struct {
	MaxBytes     int64
	AllowedTypes []string // content-type prefixes, e.g. "image/"
}

// Media is a downloaded payload.
type Media struct {
	Data        []byte
	ContentType string
}

// Fetcher downloads remote media with size and content-type caps.
type Fetcher struct {
	client *resty.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Fetcher{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", defaultUserAgent),
	}
}

// NewFetcherWithClient wraps an existing resty client.
func NewFetcherWithClient(client *resty.Client) *Fetcher {
	return &Fetcher{client: client}
}

func (f *Fetcher) FetchMedia(ctx context.Context, mediaURI string, limits Limits) (*Media, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(mediaURI)
	if err != nil {
		return nil, err
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch media: %s", resp.Status())
	}

	if limits.MaxBytes > 0 {
		if cl, convErr := strconv.ParseInt(resp.Header().Get("Content-Length"), 10, 64); convErr == nil && cl > limits.MaxBytes {
			return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, cl)
		}
	}

	reader := io.Reader(body)
	if limits.MaxBytes > 0 {
		reader = io.LimitReader(body, limits.MaxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read media body: %w", err)
	}
	if limits.MaxBytes > 0 && int64(len(data)) > limits.MaxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limits.MaxBytes)
	}

	contentType := mediaType(resp.Header().Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mediaType(http.DetectContentType(data))
	}
	if !AllowedType(contentType, limits.AllowedTypes) {
		return nil, fmt.Errorf("%w: %s", ErrContentType, contentType)
	}

	return &Media{Data: data, ContentType: contentType}, nil
}

// AllowedType reports whether contentType starts with one of the allowed prefixes.
// An empty allow-list accepts everything.
func AllowedType(contentType string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, prefix := range allowed {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

func mediaType(header string) string {
	if idx := strings.Index(header, ";"); idx >= 0 {
		header = header[:idx]
	}
	return strings.ToLower(strings.TrimSpace(header))
}
