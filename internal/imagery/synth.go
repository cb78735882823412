package imagery

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/creatorstation/editorial/internal/engine"
	"github.com/creatorstation/editorial/internal/media"
	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/pkg/convert/img"
	"github.com/creatorstation/editorial/pkg/web"
)

const (
	maxSynthBytes      = 8 << 20
	maxStoredMegapixel = 2.0
)

// ImageGenerator is the image-capable path of the engine arbitration.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*engine.Image, error)
}

// Synthesizer requests an image, enforces caps, shrinks it and stores it.
type Synthesizer struct {
	generator  ImageGenerator
	fetcher    *web.Fetcher
	objects    media.ObjectStore
	publicBase string
	now        func() time.Time
}

func NewSynthesizer(generator ImageGenerator, fetcher *web.Fetcher, objects media.ObjectStore, publicBase string) *Synthesizer {
	return &Synthesizer{
		generator:  generator,
		fetcher:    fetcher,
		objects:    objects,
		publicBase: strings.TrimRight(publicBase, "/"),
		now:        time.Now,
	}
}

func (s *Synthesizer) Synthesize(ctx context.Context, candidateID, prompt string) (string, models.ImageAttribution, error) {
	image, err := s.generator.GenerateImage(ctx, prompt)
	if err != nil {
		return "", models.ImageAttribution{}, err
	}

	data := image.Data
	contentType := image.ContentType
	if len(data) == 0 && image.URL != "" {
		m, err := s.fetcher.FetchMedia(ctx, image.URL, web.Limits{MaxBytes: maxSynthBytes, AllowedTypes: []string{"image/"}})
		if err != nil {
			return "", models.ImageAttribution{}, fmt.Errorf("download synthesized image: %w", err)
		}
		data, contentType = m.Data, m.ContentType
	}
	if len(data) == 0 {
		return "", models.ImageAttribution{}, fmt.Errorf("synthesized image is empty")
	}
	if len(data) > maxSynthBytes {
		return "", models.ImageAttribution{}, fmt.Errorf("%w: %d bytes", web.ErrTooLarge, len(data))
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !web.AllowedType(strings.ToLower(contentType), []string{"image/"}) {
		return "", models.ImageAttribution{}, fmt.Errorf("%w: %s", web.ErrContentType, contentType)
	}

	jpeg, _, err := img.Downscale(data, maxStoredMegapixel)
	if err != nil {
		return "", models.ImageAttribution{}, err
	}

	path := media.ObjectPath(candidateID, s.now())
	if err := s.objects.Put(ctx, path, "image/jpeg", jpeg); err != nil {
		return "", models.ImageAttribution{}, err
	}
	return s.publicBase + "/" + path, models.ImageAttribution{
		Tier:     TierSynthesized,
		Source:   "ai_generated",
		License:  "generated",
		Provider: image.Provider,
	}, nil
}
