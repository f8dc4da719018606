// Package search aggregates web search providers behind a single service
// with ordered fallback, query expansion, and weather lookups.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/voxa-labs/voxa/internal/models"
)

// ErrNoResults indicates every provider in the chain failed or returned
// nothing for the query.
var ErrNoResults = errors.New("no search results")

// ErrLocationRequired indicates a local search was requested without a
// resolvable location.
var ErrLocationRequired = errors.New("location required for local search")

// Kind selects the search behavior applied to a query.
type Kind string

const (
	KindGeneral Kind = "general"
	KindLive    Kind = "live"
	KindLocal   Kind = "local"
)

const (
	defaultLimit    = 5
	providerTimeout = 10 * time.Second
	scrapeTimeout   = 15 * time.Second
)

// NoResultsMessage is what the assistant says when the whole chain comes
// up empty.
const NoResultsMessage = "I couldn't find any search results for that query. Could you try rephrasing it or being more specific?"

// queryExpansions rewrites vague category queries into targeted ones with
// site restrictions. Checked as substrings in order.
var queryExpansions = []struct {
	keyword   string
	expansion string
}{
	{"movies", "current Telugu and Hindi movies playing in Hyderabad 2025 site:bookmyshow.com OR site:paytm.com"},
	{"cricket", "live cricket score site:espncricinfo.com OR site:cricbuzz.com"},
	{"restaurant", "best restaurants near me site:zomato.com OR site:swiggy.in"},
	{"food", "best restaurants near me site:zomato.com OR site:swiggy.in"},
	{"news", "latest top news headlines India site:timesofindia.com OR site:thehindu.com"},
	{"stock", "live stock price market data site:moneycontrol.com OR site:investing.com"},
	{"weather", "current weather forecast site:weather.com OR site:accuweather.com"},
}

// Keyword families for live-query sniffing, each with its result limit.
var (
	weatherKeywords = []string{"weather", "temperature", "forecast", "climate"}
	stockKeywords   = []string{"stock", "share", "price", "crypto", "bitcoin"}
	sportsKeywords  = []string{"score", "match", "cricket", "football", "game", "ipl", "fifa"}
	newsKeywords    = []string{"news", "latest", "today", "current"}
)

// Opts configures the search service. Providers whose credentials are
// missing are simply not registered.
type Opts struct {
	GoogleAPIKey  string
	GoogleCX      string
	SerpAPIKey    string
	ZenSerpKey    string
	WeatherAPIKey string
}

// Option configures the search service.
type Option func(*Service)

// WithHTTPClient overrides the HTTP client, e.g. for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		s.http = client
		for _, p := range s.providers {
			setClient(p, client)
		}
		if s.weather != nil {
			s.weather.Client = client
		}
	}
}

// WithProviders replaces the provider chain, e.g. for tests.
func WithProviders(providers ...Provider) Option {
	return func(s *Service) { s.providers = providers }
}

func setClient(p Provider, client *http.Client) {
	switch v := p.(type) {
	case *GoogleProvider:
		v.Client = client
	case *SerpAPIProvider:
		v.Client = client
	case *ZenSerpProvider:
		v.Client = client
	case *DuckDuckGoProvider:
		v.Client = client
	}
}

// Response is the outcome of one search, with both structured results and
// display-ready text.
type Response struct {
	Results   []models.SearchResult
	Formatted string
	Provider  string
}

// Service runs queries through the provider chain and formats results.
type Service struct {
	providers []Provider
	weather   *WeatherClient
	http      *http.Client
}

// NewService builds a Service from the configured credentials. The
// DuckDuckGo scraper is always registered last so the chain never starts
// empty.
func NewService(opts Opts, options ...Option) *Service {
	apiClient := &http.Client{Timeout: providerTimeout}
	scrapeClient := &http.Client{Timeout: scrapeTimeout}

	s := &Service{http: apiClient}
	if opts.GoogleAPIKey != "" && opts.GoogleCX != "" {
		s.providers = append(s.providers, &GoogleProvider{APIKey: opts.GoogleAPIKey, CX: opts.GoogleCX, Client: apiClient})
	}
	if opts.SerpAPIKey != "" {
		s.providers = append(s.providers, &SerpAPIProvider{APIKey: opts.SerpAPIKey, Client: apiClient})
	}
	if opts.ZenSerpKey != "" {
		s.providers = append(s.providers, &ZenSerpProvider{APIKey: opts.ZenSerpKey, Client: apiClient})
	}
	s.providers = append(s.providers, &DuckDuckGoProvider{Client: scrapeClient})

	if opts.WeatherAPIKey != "" {
		s.weather = &WeatherClient{APIKey: opts.WeatherAPIKey, Client: apiClient}
	}

	for _, opt := range options {
		opt(s)
	}
	return s
}

// ExpandQuery rewrites vague category queries into targeted ones. Queries
// that match no rule pass through unchanged.
func ExpandQuery(query string) string {
	q := strings.ToLower(query)
	for _, rule := range queryExpansions {
		if strings.Contains(q, rule.keyword) {
			return rule.expansion
		}
	}
	return query
}

// Search runs the query through the provider chain. Live queries are
// sniffed for domain keywords to pick a result limit, and weather-flavored
// live queries go to the weather API first. Local queries require a
// location and have it appended to the query text.
func (s *Service) Search(ctx context.Context, query string, kind Kind, location string) (Response, error) {
	limit := defaultLimit

	switch kind {
	case KindLive:
		q := strings.ToLower(query)
		if containsAny(q, weatherKeywords) {
			if resp, err := s.searchWeather(ctx, query, location); err == nil {
				return resp, nil
			}
			// Fall through to web search on weather API failure.
			query = "weather in " + location
			if location == "" {
				query = q
			}
		} else if containsAny(q, stockKeywords) || containsAny(q, sportsKeywords) {
			limit = 3
		} else if containsAny(q, newsKeywords) {
			limit = 5
		}
	case KindLocal:
		if location == "" {
			return Response{}, ErrLocationRequired
		}
		query = query + " in " + location
		limit = 5
	}

	results, provider, err := s.runChain(ctx, query, location, limit)
	if err != nil {
		return Response{Formatted: NoResultsMessage}, err
	}
	return Response{
		Results:   results,
		Formatted: FormatResults(results),
		Provider:  provider,
	}, nil
}

// runChain walks the provider chain and returns the first non-empty result
// set.
func (s *Service) runChain(ctx context.Context, query, location string, limit int) ([]models.SearchResult, string, error) {
	var lastErr error
	for _, p := range s.providers {
		results, err := p.Search(ctx, query, location, limit)
		if err != nil {
			slog.Warn("Search.runChain: provider failed", "provider", p.Name(), "error", err)
			lastErr = err
			continue
		}
		if len(results) > limit {
			results = results[:limit]
		}
		slog.Debug("Search.runChain: provider succeeded", "provider", p.Name(), "results", len(results))
		return results, p.Name(), nil
	}
	if lastErr != nil {
		return nil, "", fmt.Errorf("%w: last provider error: %v", ErrNoResults, lastErr)
	}
	return nil, "", ErrNoResults
}

// searchWeather resolves the location for a weather query and fetches
// current conditions.
func (s *Service) searchWeather(ctx context.Context, query, location string) (Response, error) {
	if s.weather == nil {
		return Response{}, errors.New("weather not configured")
	}
	loc := location
	if loc == "" {
		loc = extractWeatherLocation(query)
	}
	if loc == "" {
		return Response{}, ErrLocationRequired
	}
	formatted, err := s.weather.Current(ctx, loc)
	if err != nil {
		return Response{}, err
	}
	return Response{Formatted: formatted, Provider: "openweathermap"}, nil
}

// extractWeatherLocation pulls a place name out of "weather in X" style
// queries.
func extractWeatherLocation(query string) string {
	q := strings.ToLower(query)
	for _, marker := range []string{" in ", " at ", " for "} {
		if idx := strings.Index(q, marker); idx >= 0 {
			loc := strings.TrimSpace(query[idx+len(marker):])
			loc = strings.Trim(loc, "?.!,")
			if loc != "" {
				return loc
			}
		}
	}
	return ""
}

// FormatResults renders results as a numbered markdown list.
func FormatResults(results []models.SearchResult) string {
	if len(results) == 0 {
		return NoResultsMessage
	}
	var b strings.Builder
	b.WriteString("🔍 **Search Results:**\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "**%d. %s**\n", i+1, r.Title)
		if r.Snippet != "" {
			b.WriteString(r.Snippet)
			b.WriteString("\n")
		}
		if r.Link != "" {
			fmt.Fprintf(&b, "🔗 %s\n", r.Link)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Digest fetches weather and headlines concurrently for the daily
// briefing. Either half may fail without sinking the other.
func (s *Service) Digest(ctx context.Context, location string) (string, error) {
	var weather, news string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if s.weather == nil || location == "" {
			return nil
		}
		w, err := s.weather.Current(gctx, location)
		if err != nil {
			slog.Warn("Search.Digest: weather failed", "error", err)
			return nil
		}
		weather = w
		return nil
	})
	g.Go(func() error {
		resp, err := s.Search(gctx, ExpandQuery("news"), KindLive, location)
		if err != nil {
			slog.Warn("Search.Digest: news failed", "error", err)
			return nil
		}
		news = resp.Formatted
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	if weather == "" && news == "" {
		return "", ErrNoResults
	}
	var parts []string
	if weather != "" {
		parts = append(parts, weather)
	}
	if news != "" {
		parts = append(parts, news)
	}
	return strings.Join(parts, "\n\n"), nil
}

// WeatherClient fetches current conditions from OpenWeatherMap.
type WeatherClient struct {
	APIKey  string
	Client  *http.Client
	BaseURL string
}

// Current returns a display-ready summary of current conditions.
func (w *WeatherClient) Current(ctx context.Context, location string) (string, error) {
	base := w.BaseURL
	if base == "" {
		base = "https://api.openweathermap.org/data/2.5/weather"
	}
	params := url.Values{}
	params.Set("q", location)
	params.Set("appid", w.APIKey)
	params.Set("units", "metric")

	body, err := doGet(ctx, w.Client, base+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("weather lookup: %w", err)
	}

	name := gjson.GetBytes(body, "name").String()
	if name == "" {
		name = location
	}
	temp := gjson.GetBytes(body, "main.temp").Float()
	feels := gjson.GetBytes(body, "main.feels_like").Float()
	humidity := gjson.GetBytes(body, "main.humidity").Int()
	wind := gjson.GetBytes(body, "wind.speed").Float()
	conditions := gjson.GetBytes(body, "weather.0.description").String()

	return fmt.Sprintf(
		"🌤️ **Weather in %s**\n\nTemperature: %.1f°C (feels like %.1f°C)\nHumidity: %d%%\nWind: %.1f m/s\nConditions: %s",
		name, temp, feels, humidity, wind, conditions,
	), nil
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
