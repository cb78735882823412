package imagery

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/creatorstation/editorial/internal/engine"
	"github.com/creatorstation/editorial/internal/logging"
	"github.com/creatorstation/editorial/internal/media"
	"github.com/creatorstation/editorial/internal/policy"
	"github.com/creatorstation/editorial/internal/store"
	"github.com/creatorstation/editorial/pkg/web"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commonsJSON = `{"query":{"pages":{
 "11":{"title":"File:Logo Gobernación.png","index":1,"imageinfo":[{"url":"https://upload.test/logo.png","thumburl":"https://upload.test/logo-1600.png","mime":"image/png","width":2000,"extmetadata":{"LicenseShortName":{"value":"CC BY-SA 4.0"}}}]},
 "12":{"title":"File:Plaza pequeña.jpg","index":2,"imageinfo":[{"url":"https://upload.test/small.jpg","mime":"image/jpeg","width":320,"extmetadata":{"LicenseShortName":{"value":"CC0"}}}]},
 "13":{"title":"File:Calle usada.jpg","index":3,"imageinfo":[{"url":"https://upload.test/used.jpg","thumburl":"https://upload.test/used-1600.jpg","mime":"image/jpeg","width":3000,"extmetadata":{"LicenseShortName":{"value":"CC BY 4.0"}}}]},
 "14":{"title":"File:Parque Berrío, Medellín.jpg","index":4,"imageinfo":[{"url":"https://upload.test/berrio.jpg","thumburl":"https://upload.test/berrio-1600.jpg","descriptionurl":"https://commons.test/wiki/File:Berrio.jpg","mime":"image/jpeg","width":4000,"extmetadata":{"LicenseShortName":{"value":"CC BY-SA 4.0"},"Artist":{"value":"<a href=\"//commons.test/wiki/User:Foto\">Foto Antioquia</a>"}}}]}
}}}`

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	im := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			im.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, im))
	return buf.Bytes()
}

type fakeGenerator struct {
	image *engine.Image
	err   error
}

func (f fakeGenerator) GenerateImage(context.Context, string) (*engine.Image, error) {
	return f.image, f.err
}

func TestCommonsSearchFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "search", r.URL.Query().Get("generator"))
		assert.True(t, strings.HasSuffix(r.URL.Query().Get("gsrsearch"), "filetype:bitmap"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(commonsJSON))
	}))
	defer srv.Close()

	avoid := store.NewAvoidList()
	avoid.AddImage("https://upload.test/used-1600.jpg")

	hit, err := NewCommonsSearch(resty.New(), srv.URL, policy.Default()).Search(context.Background(), "Medellín", avoid)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "https://upload.test/berrio-1600.jpg", hit.URL)
	assert.Equal(t, "Foto Antioquia", hit.Attribution.Author)
	assert.Equal(t, "CC BY-SA 4.0", hit.Attribution.License)
	assert.Equal(t, TierLicensed, hit.Attribution.Tier)
}

func TestPlaceholderDeterministicAndAvoids(t *testing.T) {
	a := Placeholder("https://picsum.test/seed/", "c1", "s", nil)
	assert.Equal(t, a, Placeholder("https://picsum.test/seed", "c1", "s", nil))
	assert.True(t, strings.HasPrefix(a, "https://picsum.test/seed/"))
	assert.True(t, strings.HasSuffix(a, "/1200/630"))
	assert.True(t, web.IsHTTPURL(a))

	avoid := store.NewAvoidList()
	avoid.AddImage(a)
	b := Placeholder("https://picsum.test/seed", "c1", "s", avoid)
	assert.NotEqual(t, a, b)
}

func TestSynthesizerStoresDownscaledJPEG(t *testing.T) {
	objects := media.NewMemoryStore()
	gen := fakeGenerator{image: &engine.Image{Data: pngBytes(t, 64, 48), ContentType: "image/png", Provider: "primary/img"}}
	s := NewSynthesizer(gen, web.NewFetcher(0), objects, "https://cdn.test/media/")

	url, attr, err := s.Synthesize(context.Background(), "c1", "plaza")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.test/media/candidates/c1/"))
	assert.Equal(t, TierSynthesized, attr.Tier)
	assert.Equal(t, "primary/img", attr.Provider)

	paths := objects.Paths()
	require.Len(t, paths, 1)
	obj, err := objects.Open(context.Background(), paths[0])
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", obj.ContentType)
	assert.Equal(t, "image/jpeg", http.DetectContentType(obj.Data))
}

func TestSynthesizerRejectsNonImage(t *testing.T) {
	gen := fakeGenerator{image: &engine.Image{Data: []byte("<html>nope</html>")}}
	_, _, err := NewSynthesizer(gen, web.NewFetcher(0), media.NewMemoryStore(), "https://cdn.test").
		Synthesize(context.Background(), "c1", "plaza")
	assert.ErrorIs(t, err, web.ErrContentType)
}

func TestCascadeFallsThroughToPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewCascade(
		NewCommonsSearch(resty.New(), srv.URL, policy.Default()),
		NewSynthesizer(fakeGenerator{err: errors.New("no image model")}, web.NewFetcher(0), media.NewMemoryStore(), "https://cdn.test"),
		"https://picsum.test/seed",
		logging.Discard(),
	)
	res := c.Resolve(context.Background(), Request{CandidateID: "c1", Keywords: []string{"agua"}, Region: "Antioquia", Seed: "s"})
	assert.Equal(t, TierPlaceholder, res.Attribution.Tier)
	assert.True(t, web.IsHTTPURL(res.URL))
}

func TestCascadePrefersLicensed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(commonsJSON))
	}))
	defer srv.Close()

	c := NewCascade(NewCommonsSearch(resty.New(), srv.URL, policy.Default()), nil, "https://picsum.test/seed", logging.Discard())
	res := c.Resolve(context.Background(), Request{CandidateID: "c1", Region: "Antioquia"})
	assert.Equal(t, TierLicensed, res.Attribution.Tier)
}

func TestLicensedQueries(t *testing.T) {
	q := licensedQueries([]string{"agua", "veredas", "oriente", "extra"}, "Antioquia")
	assert.Equal(t, []string{"agua veredas oriente Antioquia", "Antioquia photo", "Antioquia street people photo"}, q)
	assert.Equal(t, []string{"Colombia photo", "Colombia street people photo"}, licensedQueries(nil, ""))
}
