package news

import (
	"context"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// searchCascade runs the news-search queries from most to least specific
// and stops at the first query that yields a usable item.
func (s *Selector) searchCascade(ctx context.Context, region string, topics []string, usable func(Signal) bool) []Signal {
	if s.searchURL == "" {
		return nil
	}
	for _, q := range s.searchQueries(region, topics) {
		items, err := s.search(ctx, q)
		if err != nil {
			s.logger.WithFields(logrus.Fields{"query": q}).WithError(err).Warn("news search failed")
			continue
		}
		var kept []Signal
		for _, it := range items {
			if usable(it) {
				kept = append(kept, it)
			}
		}
		if len(kept) > 0 {
			return kept
		}
	}
	return nil
}

func (s *Selector) searchQueries(region string, topics []string) []string {
	var queries []string
	region = strings.TrimSpace(region)
	if region != "" {
		if len(topics) > 0 {
			queries = append(queries, region+" ("+strings.Join(quoteAll(topics), " OR ")+")")
		}
		queries = append(queries, region)
	}
	if national := strings.TrimSpace(s.policy.NationalQuery); national != "" {
		if region == "" && len(topics) > 0 {
			queries = append(queries, national+" ("+strings.Join(quoteAll(topics), " OR ")+")")
		}
		queries = append(queries, national)
	}
	return queries
}

func quoteAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		if strings.Contains(t, " ") {
			t = `"` + t + `"`
		}
		out[i] = t
	}
	return out
}

// search queries an RSS-speaking news-search endpoint.
func (s *Selector) search(ctx context.Context, query string) ([]Signal, error) {
	feed, err := s.feeds.Read(ctx, s.searchEndpoint(query))
	if err != nil {
		return nil, err
	}
	items := itemsFromFeed(feed, "", "", OriginSearch)
	for i := range items {
		items[i].Title, items[i].SourceName = splitSourceSuffix(items[i].Title, items[i].SourceName)
	}
	return items, nil
}

// searchEndpoint encodes "hl:gl" language settings the way the news-search
// RSS endpoint expects them.
func (s *Selector) searchEndpoint(query string) string {
	params := url.Values{}
	params.Set("q", query)
	if hl, gl, ok := strings.Cut(s.searchLang, ":"); ok {
		params.Set("hl", hl)
		params.Set("gl", gl)
		params.Set("ceid", gl+":"+hl)
	}
	sep := "?"
	if strings.Contains(s.searchURL, "?") {
		sep = "&"
	}
	return s.searchURL + sep + params.Encode()
}

// splitSourceSuffix turns "Headline - Outlet" into ("Headline", "Outlet").
func splitSourceSuffix(title, source string) (string, string) {
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 {
		return title, source
	}
	outlet := strings.TrimSpace(title[idx+3:])
	if outlet == "" || len([]rune(outlet)) > 60 {
		return title, source
	}
	return strings.TrimSpace(title[:idx]), outlet
}
