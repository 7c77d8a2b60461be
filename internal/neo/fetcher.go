// Package neo retrieves and caches the NASA near-Earth-object feed and
// converts its entries into calculation parameters. The feed is an
// enrichment source: every fetch failure degrades to the last disk
// snapshot or a built-in fallback dataset, never to an error surfaced
// to API clients.
package neo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://api.nasa.gov/neo/rest/v1"
	defaultAPIKey  = "DEMO_KEY"
)

// Fetcher retrieves the raw feed from the NASA NEO API.
type Fetcher struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewFetcher creates a Fetcher. Empty arguments select the public API
// with the shared demo key.
func NewFetcher(baseURL, apiKey string) *Fetcher {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if apiKey == "" {
		apiKey = defaultAPIKey
	}
	return &Fetcher{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the configured API base URL.
func (f *Fetcher) BaseURL() string {
	return f.baseURL
}

// Fetch retrieves the raw feed JSON for the given date window. Dates
// are YYYY-MM-DD; empty dates request today's feed.
func (f *Fetcher) Fetch(ctx context.Context, startDate, endDate string) ([]byte, error) {
	q := url.Values{}
	q.Set("api_key", f.apiKey)
	if startDate != "" {
		q.Set("start_date", startDate)
	}
	if endDate != "" {
		q.Set("end_date", endDate)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/feed?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching NEO feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, f.baseURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return body, nil
}

// Fallback returns the built-in dataset used when neither the API nor
// a disk snapshot is available.
func Fallback() *Dataset {
	return &Dataset{
		Source:    "fallback",
		FetchedAt: time.Now().UTC(),
		Fallback:  true,
		Objects: []Object{
			{
				ID:             "1234567",
				Name:           "(2023 XY)",
				DiameterMinM:   50,
				DiameterMaxM:   120,
				VelocityKmS:    17.5,
				MissDistanceKm: 4_500_000,
				Hazardous:      true,
				ApproachDate:   "2023-12-15",
			},
			{
				ID:             "2000433",
				Name:           "433 Eros",
				DiameterMinM:   16_000,
				DiameterMaxM:   17_000,
				VelocityKmS:    5.6,
				MissDistanceKm: 26_000_000,
				Hazardous:      false,
				ApproachDate:   "2025-01-30",
			},
			{
				ID:             "99942",
				Name:           "99942 Apophis",
				DiameterMinM:   310,
				DiameterMaxM:   340,
				VelocityKmS:    7.4,
				MissDistanceKm: 31_000,
				Hazardous:      true,
				ApproachDate:   "2029-04-13",
			},
		},
	}
}
