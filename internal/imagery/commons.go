package imagery

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/internal/policy"
	"github.com/creatorstation/editorial/internal/store"
	"github.com/go-resty/resty/v2"
)

const minLicensedWidth = 640

var allowedMimes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Licensed is a free-license image hit.
type Licensed struct {
	URL         string
	Attribution models.ImageAttribution
}

// CommonsSearch queries a MediaWiki media index for freely licensed images.
type CommonsSearch struct {
	client   *resty.Client
	endpoint string
	policy   *policy.Policy
}

func NewCommonsSearch(client *resty.Client, endpoint string, pol *policy.Policy) *CommonsSearch {
	return &CommonsSearch{client: client, endpoint: endpoint, policy: pol}
}

type commonsResponse struct {
	Query struct {
		Pages map[string]commonsPage `json:"pages"`
	} `json:"query"`
}

type commonsPage struct {
	Title     string `json:"title"`
	Index     int    `json:"index"`
	ImageInfo []struct {
		URL            string `json:"url"`
		ThumbURL       string `json:"thumburl"`
		DescriptionURL string `json:"descriptionurl"`
		Mime           string `json:"mime"`
		Width          int    `json:"width"`
		Height         int    `json:"height"`
		ExtMetadata    map[string]struct {
			Value string `json:"value"`
		} `json:"extmetadata"`
	} `json:"imageinfo"`
}

// Search returns the first acceptable image for query, or nil.
func (s *CommonsSearch) Search(ctx context.Context, query string, avoid *store.AvoidList) (*Licensed, error) {
	var out commonsResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"action":       "query",
			"format":       "json",
			"generator":    "search",
			"gsrsearch":    query + " filetype:bitmap",
			"gsrnamespace": "6",
			"gsrlimit":     "20",
			"prop":         "imageinfo",
			"iiprop":       "url|mime|size|extmetadata",
			"iiurlwidth":   "1600",
		}).
		ForceContentType("application/json").
		SetResult(&out).
		Get(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("media search request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("media search: unexpected status %s", resp.Status())
	}

	pages := make([]commonsPage, 0, len(out.Query.Pages))
	for _, p := range out.Query.Pages {
		pages = append(pages, p)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })

	for _, p := range pages {
		if len(p.ImageInfo) == 0 {
			continue
		}
		info := p.ImageInfo[0]
		if !allowedMimes[strings.ToLower(info.Mime)] || info.Width < minLicensedWidth {
			continue
		}
		url := info.ThumbURL
		if url == "" {
			url = info.URL
		}
		if s.policy.ImageDenied(p.Title, info.URL) || avoid.HasImage(url) || avoid.HasImage(info.URL) {
			continue
		}
		license := stripHTML(info.ExtMetadata["LicenseShortName"].Value)
		if license == "" || strings.Contains(strings.ToLower(license), "fair use") {
			continue
		}
		return &Licensed{
			URL: url,
			Attribution: models.ImageAttribution{
				Tier:    TierLicensed,
				Source:  "wikimedia_commons",
				License: license,
				Author:  stripHTML(info.ExtMetadata["Artist"].Value),
				PageURL: info.DescriptionURL,
			},
		}, nil
	}
	return nil, nil
}

// stripHTML reduces MediaWiki HTML fragments (artist links) to text.
func stripHTML(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" || !strings.Contains(fragment, "<") {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
