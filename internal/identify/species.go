package identify

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultSpeciesRefURL = "https://www.oiseaux.net"

// SpeciesRef resolves a scientific name to a species-reference page by
// scraping the reference site's search results. All failures are swallowed:
// enrichment must never break an identification.
type SpeciesRef struct {
	baseURL    string
	httpClient *http.Client
}

// NewSpeciesRef creates a species-reference resolver. If baseURL is empty
// the public reference site is used.
func NewSpeciesRef(baseURL string) *SpeciesRef {
	if baseURL == "" {
		baseURL = defaultSpeciesRefURL
	}
	return &SpeciesRef{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SpeciesLink returns the absolute URL of the first species page matching
// scientificName, or "" when nothing resolves.
func (s *SpeciesRef) SpeciesLink(ctx context.Context, scientificName string) string {
	q := url.Values{}
	q.Set("sais", scientificName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/cgi-bin/rechercher.cgi?"+q.Encode(), nil)
	if err != nil {
		return ""
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Debug("species search failed", "name", scientificName, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("species search returned non-200", "name", scientificName, "status", resp.StatusCode)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		slog.Debug("species search parse failed", "name", scientificName, "error", err)
		return ""
	}

	var link string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok || !strings.HasSuffix(href, ".html") {
			return true
		}
		// Species pages carry the matched name as link text.
		if !strings.Contains(strings.ToLower(sel.Text()), strings.ToLower(scientificName)) {
			return true
		}
		link = href
		return false
	})

	if link == "" {
		return ""
	}
	if strings.HasPrefix(link, "http") {
		return link
	}
	return s.baseURL + "/" + strings.TrimPrefix(link, "/")
}
