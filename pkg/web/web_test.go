package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t,
		"https://eltiempo.com/politica/nota",
		NormalizeURL("HTTPS://www.ElTiempo.com/politica/nota/?utm_source=x&utm_medium=y#top"))
	assert.Equal(t,
		"https://example.com/a?id=3",
		NormalizeURL("https://example.com/a?id=3&fbclid=abc"))
	assert.Equal(t, "", NormalizeURL("  "))
}

func TestIsHTTPURL(t *testing.T) {
	assert.True(t, IsHTTPURL("https://example.com/x.jpg"))
	assert.False(t, IsHTTPURL("ftp://example.com/x.jpg"))
	assert.False(t, IsHTTPURL("/relative"))
}

func TestFetchMediaCaps(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(png)
		case "/big.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(bytes.Repeat([]byte{1}, 4096))
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html></html>"))
		}
	}))
	defer server.Close()

	f := NewFetcher(5 * time.Second)
	limits := Limits{MaxBytes: 1024, AllowedTypes: []string{"image/"}}

	media, err := f.FetchMedia(context.Background(), server.URL+"/ok.png", limits)
	require.NoError(t, err)
	assert.Equal(t, "image/png", media.ContentType)
	assert.Len(t, media.Data, len(png))

	_, err = f.FetchMedia(context.Background(), server.URL+"/big.png", limits)
	assert.True(t, errors.Is(err, ErrTooLarge))

	_, err = f.FetchMedia(context.Background(), server.URL+"/page", limits)
	assert.True(t, errors.Is(err, ErrContentType))
}
