package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/creatorstation/editorial/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	maxFeedSources   = 8
	feedFetchTimeout = 8 * time.Second
	maxItemsPerFeed  = 30
	maxSummaryRunes  = 600
)

// FeedReader downloads and parses RSS/Atom documents.
type FeedReader struct {
	client *resty.Client
}

func NewFeedReader(client *resty.Client) *FeedReader {
	return &FeedReader{client: client}
}

func (r *FeedReader) Read(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8").
		Get(feedURL)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode())
	}
	feed, err := gofeed.NewParser().ParseString(resp.String())
	if err != nil {
		return nil, fmt.Errorf("feed parse failed: %w", err)
	}
	return feed, nil
}

// fetchFeeds reads up to maxFeedSources sources concurrently. A failing
// source is logged and skipped.
func (s *Selector) fetchFeeds(ctx context.Context, sources []models.FeedSource) []Signal {
	if len(sources) > maxFeedSources {
		sources = sources[:maxFeedSources]
	}
	results := make([][]Signal, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFeedSources)
	for i, src := range sources {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, feedFetchTimeout)
			defer cancel()
			feed, err := s.feeds.Read(fctx, src.URL)
			if err != nil {
				s.logger.WithFields(logrus.Fields{
					"feed_source": src.Name,
					"url":         src.URL,
				}).WithError(err).Warn("feed source failed")
				return nil
			}
			results[i] = itemsFromFeed(feed, src.Name, src.Region, OriginFeed)
			return nil
		})
	}
	_ = g.Wait()

	var out []Signal
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func itemsFromFeed(feed *gofeed.Feed, sourceName, region, origin string) []Signal {
	if feed == nil {
		return nil
	}
	if sourceName == "" {
		sourceName = feed.Title
	}
	var out []Signal
	for i, item := range feed.Items {
		if i >= maxItemsPerFeed {
			break
		}
		if item == nil || strings.TrimSpace(item.Link) == "" || strings.TrimSpace(item.Title) == "" {
			continue
		}
		sig := Signal{
			Title:      strings.TrimSpace(item.Title),
			URL:        strings.TrimSpace(item.Link),
			SourceName: sourceName,
			Summary:    htmlText(firstNonEmpty(item.Description, item.Content), maxSummaryRunes),
			Region:     region,
			Origin:     origin,
		}
		switch {
		case item.PublishedParsed != nil:
			sig.PublishedAt = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			sig.PublishedAt = *item.UpdatedParsed
		}
		out = append(out, sig)
	}
	return out
}

// htmlText strips markup from a feed summary.
func htmlText(raw string, limit int) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	text := raw
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); limit > 0 && len(r) > limit {
		text = string(r[:limit])
	}
	return text
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
