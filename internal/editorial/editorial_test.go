package editorial

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/creatorstation/editorial/internal/engine"
	"github.com/creatorstation/editorial/internal/imagery"
	"github.com/creatorstation/editorial/internal/logging"
	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/internal/news"
	"github.com/creatorstation/editorial/internal/policy"
	"github.com/creatorstation/editorial/internal/publish"
	"github.com/creatorstation/editorial/internal/store"
	"github.com/creatorstation/editorial/internal/textnorm"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secret      = "s3cret"
	candidateID = "6f1d3c2a-4b5e-4f60-8a71-92b3c4d5e6f7"
	sentence    = "La comunidad de la región pide más seguridad en los barrios y una respuesta clara de las autoridades."
)

func article(paragraphs, sentences int) string {
	ps := make([]string, paragraphs)
	for i := range ps {
		ps[i] = strings.TrimSpace(strings.Repeat(sentence+" ", sentences))
	}
	return strings.Join(ps, "\n\n")
}

func engineJSON(t *testing.T, headline string) string {
	t.Helper()
	long := article(5, 7)
	raw, err := json.Marshal(engine.Output{
		Headline:        headline,
		Sentiment:       "neutral",
		MasterEditorial: long,
		PlatformVariants: map[string]string{
			models.ChannelLongForm:  long,
			models.ChannelMicroBlog: "La región pide más seguridad en los barrios.",
		},
	})
	require.NoError(t, err)
	return string(raw)
}

type backend struct {
	name     string
	response string
	err      error
}

func (b *backend) Name() string       { return b.name }
func (b *backend) Configured() bool   { return b.response != "" || b.err != nil }
func (b *backend) ImageCapable() bool { return false }

func (b *backend) Complete(context.Context, engine.Prompt) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	return b.response, nil
}

func (b *backend) GenerateImage(context.Context, string) (*engine.Image, error) {
	return nil, engine.ErrNoImageModel
}

type delivery struct {
	payload publish.Payload
	err     error
}

type harness struct {
	mem        *store.Memory
	pipeline   *Pipeline
	app        *fiber.App
	dispatcher *publish.Dispatcher
	hits       *atomic.Int32
	delivered  chan delivery
}

func newHarness(t *testing.T, primary, secondary engine.Backend, c models.Candidate) *harness {
	t.Helper()
	pol := policy.Default()
	logger := logging.Discard()
	mem := store.NewMemory()
	mem.PutCandidate(c)
	mem.PutDestination(models.SocialDestination{
		ID: "dest-1", CandidateID: c.ID, Network: "x", TargetID: "@campana",
		AuthorizationStatus: models.AuthorizationApproved, Active: true,
	})

	hits := &atomic.Int32{}
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(webhook.Close)

	selector := news.NewSelector(mem, pol, logger, news.SelectorOptions{})
	arbiter := engine.NewArbiter(primary, secondary, "primary", 2*time.Second, pol, logger)
	cascade := imagery.NewCascade(nil, nil, "https://img.test/seed", logger)
	dispatcher := publish.NewDispatcher(nil, webhook.URL, "tok", logger, publish.DispatcherOptions{MaxRetries: -1, Timeout: 2 * time.Second})
	delivered := make(chan delivery, 8)
	dispatcher.OnDelivered = func(p publish.Payload, err error) { delivered <- delivery{payload: p, err: err} }
	dispatcher.Start()
	t.Cleanup(func() { _ = dispatcher.Close(context.Background()) })
	publisher := publish.NewPublisher(mem, dispatcher, pol, "https://sitio.test", logger)

	p := NewPipeline(mem, selector, arbiter, cascade, publisher, pol, logger)

	app := fiber.New()
	NewController(p, logger).MountController(app.Group("/editorial", Guard(secret, logger)))
	return &harness{mem: mem, pipeline: p, app: app, dispatcher: dispatcher, hits: hits, delivered: delivered}
}

// drainDispatches closes the dispatcher once its queue is delivered and
// returns every finished delivery.
func (h *harness) drainDispatches(t *testing.T) []delivery {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.dispatcher.Close(ctx))
	var out []delivery
	for {
		select {
		case d := <-h.delivered:
			out = append(out, d)
		default:
			return out
		}
	}
}

func testCandidate(autoPublish bool) models.Candidate {
	return models.Candidate{
		ID:           candidateID,
		Name:         "Ana María Pérez",
		Office:       "Gobernación de Antioquia",
		Scope:        models.ScopeRegional,
		Region:       "Antioquia",
		BallotNumber: "7",
		Platform:     "- Seguridad en los barrios con presencia institucional\n- Agua potable para las veredas del oriente",
		AutoPublish:  autoPublish,
	}
}

func healthyHarness(t *testing.T, autoPublish bool) *harness {
	return newHarness(t,
		&backend{name: "primary", response: "```json\n" + engineJSON(t, "Ana María Pérez (7) advierte por la seguridad en Antioquia") + "\n```"},
		&backend{name: "secondary", response: engineJSON(t, "Otro titular suficientemente largo para la región")},
		testCandidate(autoPublish))
}

func post(t *testing.T, app *fiber.App, body any, headers map[string]string) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/editorial/generate", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSecret, secret)
	for k, v := range headers {
		if v == "" {
			req.Header.Del(k)
			continue
		}
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, 10_000)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return resp.StatusCode, out
}

func generateBody() map[string]any {
	return map[string]any{"candidate_id": candidateID, "news_mode": "grave", "max_items": 3}
}

func TestGenerateWithoutSignalPersistsDraft(t *testing.T) {
	h := healthyHarness(t, false)
	h.mem.SetSetting(models.SettingAutoPublishEnabled, "true")

	status, body := post(t, h.app, generateBody(), map[string]string{HeaderRequestID: "req-1"})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "primary", body["source_engine"])
	assert.Equal(t, false, body["article_found"])
	assert.Equal(t, false, body["published"])
	assert.Equal(t, "req-1", body["request_id"])
	assert.NotEmpty(t, body["arbitration_reason"])

	drafts := h.mem.Drafts()
	require.Len(t, drafts, 1)
	d := drafts[0]
	assert.Equal(t, body["id"], d.ID)
	assert.True(t, strings.HasPrefix(d.ImageURL, "https://img.test/seed/"))
	assert.Len(t, d.Variants.Data(), len(models.Channels))

	words := textnorm.WordCount(d.GeneratedText)
	assert.True(t, words >= 500 && words <= 800, "word count %d", words)

	meta := d.Metadata.Data()
	assert.Equal(t, "req-1", meta.RequestID)
	assert.Equal(t, imagery.TierPlaceholder, meta.Image.Tier)
	assert.Nil(t, meta.Signal)
	assert.False(t, textnorm.ContainsTerm(meta.Headline, "Pérez"))
	assert.NotContains(t, meta.Headline, "7")

	assert.Empty(t, h.mem.Posts())
	assert.Empty(t, h.drainDispatches(t))
	assert.Zero(t, h.hits.Load())
}

func TestGeneratePublishesWhenBothGatesOpen(t *testing.T) {
	h := healthyHarness(t, true)
	h.mem.SetSetting(models.SettingAutoPublishEnabled, "true")

	status, body := post(t, h.app, generateBody(), nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["published"])

	posts := h.mem.Posts()
	require.Len(t, posts, 1)
	draft, err := h.mem.GetDraft(context.Background(), body["id"].(string))
	require.NoError(t, err)
	require.NotNil(t, draft.PublishedPostID)
	assert.Equal(t, posts[0].ID, *draft.PublishedPostID)
	assert.False(t, textnorm.ContainsTerm(posts[0].Title, "Pérez"))
	assert.Contains(t, posts[0].Subtitle, "Ana María Pérez")

	deliveries := h.drainDispatches(t)
	require.Len(t, deliveries, 1)
	assert.NoError(t, deliveries[0].err)
	assert.Equal(t, posts[0].ID, deliveries[0].payload.PostID)
	require.Len(t, deliveries[0].payload.Routes, 1)
	assert.Equal(t, "@campana", deliveries[0].payload.Routes[0].TargetID)
	assert.EqualValues(t, 1, h.hits.Load())
}

func TestKillSwitchOffBlocksPublish(t *testing.T) {
	h := healthyHarness(t, true)
	h.mem.SetSetting(models.SettingAutoPublishEnabled, "false")

	status, body := post(t, h.app, generateBody(), nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, false, body["published"])
	assert.Len(t, h.mem.Drafts(), 1)
	assert.Empty(t, h.mem.Posts())
	assert.Empty(t, h.drainDispatches(t))
	assert.Zero(t, h.hits.Load())
}

func TestCandidateWithoutAutoPublishNeverDispatches(t *testing.T) {
	h := healthyHarness(t, false)
	h.mem.SetSetting(models.SettingAutoPublishEnabled, "true")

	status, body := post(t, h.app, generateBody(), nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, false, body["published"])
	assert.Empty(t, h.mem.Posts())
	assert.Empty(t, h.drainDispatches(t))
	assert.Zero(t, h.hits.Load())
}

func TestPublishFailureKeepsDraft(t *testing.T) {
	h := healthyHarness(t, true)
	h.mem.SetSetting(models.SettingAutoPublishEnabled, "true")
	h.mem.PublishErr = errors.New("tx aborted")

	status, body := post(t, h.app, generateBody(), nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, false, body["published"])
	assert.Len(t, h.mem.Drafts(), 1)
}

func TestNoBackendConfigured(t *testing.T) {
	h := newHarness(t, &backend{name: "primary"}, &backend{name: "secondary"}, testCandidate(false))

	status, body := post(t, h.app, generateBody(), nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, CodeNoBackend, body["error"])
	engines, ok := body["engines"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, engines, "primary")
	assert.Contains(t, engines, "secondary")
	assert.Empty(t, h.mem.Drafts())
}

func TestBothEnginesFail(t *testing.T) {
	h := newHarness(t,
		&backend{name: "primary", err: errors.New("upstream 500")},
		&backend{name: "secondary", response: article(5, 7) + "\n\nHay que tomar las armas ya."},
		testCandidate(false))

	status, body := post(t, h.app, generateBody(), nil)
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, CodeAllFailed, body["error"])
	assert.Len(t, body["engines"], 2)
	assert.Empty(t, h.mem.Drafts())
}

func TestShortArticleIsOutOfBounds(t *testing.T) {
	short := article(1, 5)
	h := newHarness(t,
		&backend{name: "primary", response: short},
		nil,
		testCandidate(false))

	status, body := post(t, h.app, generateBody(), nil)
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, CodeOutOfBounds, body["error"])
	assert.Empty(t, h.mem.Drafts())
}

func TestDraftWriteFailure(t *testing.T) {
	h := healthyHarness(t, false)
	h.mem.CreateDraftErr = errors.New("connection reset")

	status, body := post(t, h.app, generateBody(), nil)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, CodePersistenceFailed, body["error"])
}

func TestInvisibleDraftIsAssertionFailure(t *testing.T) {
	h := healthyHarness(t, true)
	h.mem.SetSetting(models.SettingAutoPublishEnabled, "true")
	h.mem.HideDrafts = true

	status, body := post(t, h.app, generateBody(), nil)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, CodeAssertionFailed, body["error"])
	assert.Empty(t, h.mem.Posts())
}

func TestUnknownCandidate(t *testing.T) {
	h := healthyHarness(t, false)
	b := generateBody()
	b["candidate_id"] = "0b6f6a1e-1111-4222-8333-444455556666"

	status, body := post(t, h.app, b, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, CodeCandidateNotFound, body["error"])
}

func TestGuard(t *testing.T) {
	h := healthyHarness(t, false)

	status, body := post(t, h.app, generateBody(), map[string]string{HeaderSecret: ""})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, CodeUnauthorized, body["error"])

	status, _ = post(t, h.app, generateBody(), map[string]string{HeaderSecret: "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body = post(t, h.app, generateBody(), map[string]string{"Origin": "https://panel.test"})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, CodeForbiddenOrigin, body["error"])

	status, _ = post(t, h.app, generateBody(), map[string]string{"Sec-Fetch-Site": "same-origin"})
	assert.Equal(t, fiber.StatusForbidden, status)

	assert.Empty(t, h.mem.Drafts())
}

func TestGenerateValidation(t *testing.T) {
	h := healthyHarness(t, false)
	cases := []map[string]any{
		{"candidate_id": "not-a-uuid"},
		{"candidate_id": candidateID, "news_mode": "gossip"},
		{"candidate_id": candidateID, "max_items": 9},
		{"candidate_id": candidateID, "news_links": []string{"ftp://x.test/a"}},
		{"candidate_id": candidateID, "news_links": []string{"https://a.test/1", "https://a.test/2", "https://a.test/3", "https://a.test/4", "https://a.test/5", "https://a.test/6"}},
		{"candidate_id": candidateID, "editorial_notes": strings.Repeat("n", 2001)},
	}
	for i, b := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			status, body := post(t, h.app, b, nil)
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, CodeInvalidRequest, body["error"])
		})
	}
}

func TestConsecutiveRunsAvoidImageRepeats(t *testing.T) {
	h := healthyHarness(t, false)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		res, err := h.pipeline.Run(ctx, RunRequest{CandidateID: candidateID, Mode: news.ModeAny})
		require.NoError(t, err)
		assert.False(t, seen[res.ImageURL], "image reused on run %d", i)
		seen[res.ImageURL] = true
	}
}

func TestConsecutiveRunsRotateSourceArticles(t *testing.T) {
	now := time.Now()
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>Diario</title>`)
		for i, title := range []string{
			"Fiscalía investiga corrupción en contratos de vías",
			"Denuncian inseguridad en barrios del oriente",
			"Alerta por desabastecimiento de agua en veredas",
			"Festival viral reúne miles en Medellín",
		} {
			fmt.Fprintf(&b, `<item><title>%s</title><link>https://diario.test/nota-%d</link><description>%s</description><pubDate>%s</pubDate></item>`,
				title, i, title, now.Add(-time.Duration(i+1)*time.Hour).Format(time.RFC1123Z))
		}
		b.WriteString(`</channel></rss>`)
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, b.String())
	}))
	defer feed.Close()

	h := healthyHarness(t, false)
	h.mem.PutFeedSource(models.FeedSource{ID: "f1", Name: "Diario", URL: feed.URL, Region: "Antioquia", LicenseConfirmed: true, Active: true})
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		res, err := h.pipeline.Run(ctx, RunRequest{CandidateID: candidateID, Mode: news.ModeAny})
		require.NoError(t, err)
		assert.True(t, res.ArticleFound, "run %d", i)
	}
	drafts := h.mem.Drafts()
	require.Len(t, drafts, 3)
	for i, d := range drafts {
		require.True(t, strings.HasPrefix(d.SourceURL, "https://diario.test/nota-"), d.SourceURL)
		assert.False(t, seen[d.SourceURL], "source reused on run %d", i)
		seen[d.SourceURL] = true
	}
}
