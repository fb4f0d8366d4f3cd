package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MarketRadar/internal/config"
	"MarketRadar/internal/domain"
	"MarketRadar/internal/logging"
)

func githubTestConfig() config.GitHubConfig {
	return config.GitHubConfig{
		Keywords:         []string{"ai agent"},
		MinStars:         300,
		FreshnessDays:    90,
		KeywordsPerCycle: 5,
		ResultsPerQuery:  3,
	}
}

func TestGitHubFetchThresholds(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-5 * 24 * time.Hour).Format(time.RFC3339)
	stale := now.Add(-120 * 24 * time.Hour).Format(time.RFC3339)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/repositories" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprintf(w, `{"items":[
			{"full_name":"acme/agent","description":"fresh and popular","html_url":"https://example.com/a",
			 "stargazers_count":400,"language":"Go","updated_at":%q,"owner":{"login":"acme"}},
			{"full_name":"acme/small","description":"too few stars","html_url":"https://example.com/b",
			 "stargazers_count":250,"language":"Go","updated_at":%q,"owner":{"login":"acme"}},
			{"full_name":"acme/old","description":"stale","html_url":"https://example.com/c",
			 "stargazers_count":900,"language":"Go","updated_at":%q,"owner":{"login":"acme"}}
		]}`, fresh, fresh, stale)
	}))
	defer srv.Close()

	adapter := NewGitHubAdapter(srv.Client(), githubTestConfig(), logging.New("error"))
	adapter.baseURL = srv.URL
	adapter.now = func() time.Time { return now }

	records, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after threshold gating, got %d", len(records))
	}

	got := records[0]
	if got.Title != "acme/agent" || got.Category != domain.CategoryOpenSource {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.Extra["stars"] != 400 {
		t.Fatalf("expected stars in extra, got %v", got.Extra["stars"])
	}
}

func TestGitHubFetchStopsOnRateLimit(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := githubTestConfig()
	cfg.Keywords = []string{"one", "two", "three"}
	adapter := NewGitHubAdapter(srv.Client(), cfg, logging.New("error"))
	adapter.baseURL = srv.URL

	records, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("rate limit must not fail the adapter: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
	if calls != 1 {
		t.Fatalf("remaining queries must stop after a 403, made %d calls", calls)
	}
}

func TestGitHubFetchCapsKeywordsPerCycle(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"items":[]}`)
	}))
	defer srv.Close()

	cfg := githubTestConfig()
	cfg.Keywords = []string{"a", "b", "c", "d", "e", "f", "g"}
	cfg.KeywordsPerCycle = 2
	adapter := NewGitHubAdapter(srv.Client(), cfg, logging.New("error"))
	adapter.baseURL = srv.URL

	if _, err := adapter.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 queries, made %d", calls)
	}
}

func TestGitHubFetchSkipsFailedQuery(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"items":[{"full_name":"acme/agent","html_url":"https://example.com/a",
			"stargazers_count":500,"updated_at":%q,"owner":{"login":"acme"}}]}`,
			time.Now().UTC().Format(time.RFC3339))
	}))
	defer srv.Close()

	cfg := githubTestConfig()
	cfg.Keywords = []string{"bad", "good"}
	adapter := NewGitHubAdapter(srv.Client(), cfg, logging.New("error"))
	adapter.baseURL = srv.URL

	records, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("a failed query must not lose the next one, got %d records", len(records))
	}
	if records[0].Body != "No description" {
		t.Fatalf("empty description must be defaulted, got %q", records[0].Body)
	}
}
