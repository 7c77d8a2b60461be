package neo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestFetchPassesDateWindowAndKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("api_key") != "test-key" {
			t.Errorf("api_key = %q, want test-key", q.Get("api_key"))
		}
		if q.Get("start_date") != "2025-08-01" || q.Get("end_date") != "2025-08-02" {
			t.Errorf("date window = %q..%q", q.Get("start_date"), q.Get("end_date"))
		}
		if r.URL.Path != "/feed" {
			t.Errorf("path = %q, want /feed", r.URL.Path)
		}
		io.WriteString(w, sampleFeed)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, "test-key")
	data, err := f.Fetch(context.Background(), "2025-08-01", "2025-08-02")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if _, err := Parse(data, srv.URL); err != nil {
		t.Errorf("fetched data does not parse: %v", err)
	}
}

func TestFetchRejectsNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, "")
	if _, err := f.Fetch(context.Background(), "", ""); err == nil {
		t.Error("expected error for 429 response")
	}
}

func TestFetcherDefaults(t *testing.T) {
	f := NewFetcher("", "")
	if f.BaseURL() != defaultBaseURL {
		t.Errorf("base URL = %q, want default", f.BaseURL())
	}
	if f.apiKey != defaultAPIKey {
		t.Errorf("api key = %q, want demo key", f.apiKey)
	}
}
