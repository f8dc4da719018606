package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/voxa-labs/voxa/internal/models"
)

// Provider is one web search backend in the fallback chain.
type Provider interface {
	Name() string
	Search(ctx context.Context, query, location string, limit int) ([]models.SearchResult, error)
}

// doGet issues a GET and returns the body for 200 responses.
func doGet(ctx context.Context, client *http.Client, rawURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// GoogleProvider queries the Google Custom Search API.
type GoogleProvider struct {
	APIKey string
	CX     string
	Client *http.Client
}

// Name implements Provider.
func (g *GoogleProvider) Name() string { return "google" }

// Search implements Provider.
func (g *GoogleProvider) Search(ctx context.Context, query, location string, limit int) ([]models.SearchResult, error) {
	if limit > 10 {
		limit = 10 // Google max
	}
	params := url.Values{}
	params.Set("key", g.APIKey)
	params.Set("cx", g.CX)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(limit))
	if location != "" {
		params.Set("gl", countryCode(location))
	}

	body, err := doGet(ctx, g.Client, "https://www.googleapis.com/customsearch/v1?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("google search: %w", err)
	}
	return parseResults(body, "items", "title", "snippet", "link")
}

// SerpAPIProvider queries SerpAPI's Google engine.
type SerpAPIProvider struct {
	APIKey string
	Client *http.Client
}

// Name implements Provider.
func (s *SerpAPIProvider) Name() string { return "serpapi" }

// Search implements Provider.
func (s *SerpAPIProvider) Search(ctx context.Context, query, location string, limit int) ([]models.SearchResult, error) {
	params := url.Values{}
	params.Set("api_key", s.APIKey)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(limit))
	params.Set("engine", "google")
	if location != "" {
		params.Set("location", location)
	}

	body, err := doGet(ctx, s.Client, "https://serpapi.com/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("serpapi search: %w", err)
	}
	return parseResults(body, "organic_results", "title", "snippet", "link")
}

// ZenSerpProvider queries the ZenSerp API.
type ZenSerpProvider struct {
	APIKey string
	Client *http.Client
}

// Name implements Provider.
func (z *ZenSerpProvider) Name() string { return "zenserp" }

// Search implements Provider.
func (z *ZenSerpProvider) Search(ctx context.Context, query, location string, limit int) ([]models.SearchResult, error) {
	params := url.Values{}
	params.Set("apikey", z.APIKey)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(limit))
	if location != "" {
		params.Set("location", location)
	}

	body, err := doGet(ctx, z.Client, "https://app.zenserp.com/api/v2/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("zenserp search: %w", err)
	}
	return parseResults(body, "organic", "title", "description", "url")
}

// parseResults extracts a normalized result list from a provider JSON body.
func parseResults(body []byte, listPath, titleKey, snippetKey, linkKey string) ([]models.SearchResult, error) {
	items := gjson.GetBytes(body, listPath)
	if !items.Exists() || !items.IsArray() {
		return nil, fmt.Errorf("no results in response")
	}
	var results []models.SearchResult
	items.ForEach(func(_, item gjson.Result) bool {
		title := item.Get(titleKey).String()
		if title == "" {
			return true
		}
		results = append(results, models.SearchResult{
			Title:   title,
			Snippet: item.Get(snippetKey).String(),
			Link:    item.Get(linkKey).String(),
		})
		return true
	})
	if len(results) == 0 {
		return nil, fmt.Errorf("no results in response")
	}
	return results, nil
}

// DuckDuckGoProvider scrapes the DuckDuckGo HTML endpoint. It needs no API
// key and serves as the always-registered last fallback.
type DuckDuckGoProvider struct {
	Client *http.Client
}

// Name implements Provider.
func (d *DuckDuckGoProvider) Name() string { return "duckduckgo" }

var (
	reDDGResult  = regexp.MustCompile(`(?s)<div[^>]*class="[^"]*\bresult\b[^"]*"[^>]*>(.*?)</div>\s*</div>`)
	reDDGTitle   = regexp.MustCompile(`(?s)<a[^>]*class="[^"]*result__a[^"]*"[^>]*>(.*?)</a>`)
	reDDGSnippet = regexp.MustCompile(`(?s)<a[^>]*class="[^"]*result__snippet[^"]*"[^>]*>(.*?)</a>`)
	reDDGURL     = regexp.MustCompile(`(?s)<span[^>]*class="[^"]*result__url[^"]*"[^>]*>(.*?)</span>`)
	reTags       = regexp.MustCompile(`<[^>]+>`)
)

// Search implements Provider.
func (d *DuckDuckGoProvider) Search(ctx context.Context, query, location string, limit int) ([]models.SearchResult, error) {
	endpoint := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(query)
	header := http.Header{}
	header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	body, err := doGet(ctx, d.Client, endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo scrape: %w", err)
	}

	var results []models.SearchResult
	for _, block := range reDDGResult.FindAllStringSubmatch(string(body), -1) {
		if len(results) >= limit {
			break
		}
		title := stripTags(firstGroup(reDDGTitle, block[1]))
		if title == "" {
			continue
		}
		results = append(results, models.SearchResult{
			Title:   title,
			Snippet: stripTags(firstGroup(reDDGSnippet, block[1])),
			Link:    stripTags(firstGroup(reDDGURL, block[1])),
		})
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("duckduckgo scrape: no results parsed")
	}
	return results, nil
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

func stripTags(s string) string {
	return strings.TrimSpace(reTags.ReplaceAllString(s, ""))
}

// countryCode maps a location to a two-letter country code for search APIs.
func countryCode(location string) string {
	loc := strings.ToLower(location)
	indianCities := []string{
		"mumbai", "delhi", "bangalore", "bengaluru", "hyderabad", "chennai",
		"kolkata", "pune", "ahmedabad", "jaipur", "india",
	}
	for _, city := range indianCities {
		if strings.Contains(loc, city) {
			return "in"
		}
	}
	return "us"
}
