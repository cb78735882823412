package news

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/creatorstation/editorial/pkg/web"
	"github.com/sirupsen/logrus"
)

const linkFetchTimeout = 8 * time.Second

// operatorLinks turns caller-supplied article links into signals. A link
// whose page cannot be read is kept with its host as the title.
func (s *Selector) operatorLinks(ctx context.Context, links []string, usable func(Signal) bool) []Signal {
	var out []Signal
	seen := map[string]bool{}
	for _, link := range links {
		link = strings.TrimSpace(link)
		key := web.NormalizeURL(link)
		if !web.IsHTTPURL(link) || seen[key] {
			continue
		}
		seen[key] = true

		sig := Signal{URL: link, SourceName: web.Host(link), Origin: OriginOperator, PublishedAt: s.now()}
		if !usable(sig) {
			continue
		}
		title, summary, err := s.readPage(ctx, link)
		if err != nil {
			s.logger.WithFields(logrus.Fields{"url": link}).WithError(err).Warn("operator link unreadable")
		}
		sig.Title = firstNonEmpty(title, sig.SourceName)
		sig.Summary = summary
		out = append(out, sig)
	}
	return out
}

func (s *Selector) readPage(ctx context.Context, link string) (title, summary string, err error) {
	lctx, cancel := context.WithTimeout(ctx, linkFetchTimeout)
	defer cancel()

	resp, err := s.client.R().SetContext(lctx).SetDoNotParseResponse(true).Get(link)
	if err != nil {
		return "", "", err
	}
	body := resp.RawBody()
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", "", err
	}
	title = strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	summary = strings.TrimSpace(doc.Find(`meta[property="og:description"]`).AttrOr("content", ""))
	if summary == "" {
		summary = strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	}
	return title, summary, nil
}
