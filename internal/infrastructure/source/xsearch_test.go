package source

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"MarketRadar/internal/config"
	"MarketRadar/internal/domain"
	"MarketRadar/internal/logging"
)

func xTestConfig() config.XSearchConfig {
	return config.XSearchConfig{
		SessionCookie:   "auth_token=abc",
		QueriesPerCycle: 5,
		ResultsPerQuery: 3,
		QueryDelayMS:    1,
	}
}

func testPainMap() map[string][]string {
	return map[string][]string{
		"ChatGPT": {"slow", "wrong answers", "expensive"},
		"Claude":  {"rate limit", "context"},
	}
}

func TestBuildPainQueries(t *testing.T) {
	t.Parallel()

	queries := buildPainQueries(testPainMap())

	// Two keywords per product, products in sorted order.
	want := []string{
		`"ChatGPT" slow`,
		`"ChatGPT" wrong answers`,
		`"Claude" rate limit`,
		`"Claude" context`,
	}
	if !reflect.DeepEqual(queries, want) {
		t.Fatalf("queries = %v, want %v", queries, want)
	}
}

func TestSampleQueriesDeterministicWithSeed(t *testing.T) {
	t.Parallel()

	queries := []string{"a", "b", "c", "d", "e", "f"}

	first := sampleQueries(rand.New(rand.NewSource(42)), queries, 3)
	second := sampleQueries(rand.New(rand.NewSource(42)), queries, 3)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same seed must give the same sample: %v vs %v", first, second)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 sampled queries, got %d", len(first))
	}

	seen := map[string]bool{}
	for _, q := range first {
		if seen[q] {
			t.Fatalf("sampling must be without replacement, %q twice", q)
		}
		seen[q] = true
	}
}

func TestSampleQueriesSmallPool(t *testing.T) {
	t.Parallel()

	queries := []string{"a", "b"}
	got := sampleQueries(rand.New(rand.NewSource(1)), queries, 5)
	if !reflect.DeepEqual(got, queries) {
		t.Fatalf("pool smaller than n must pass through, got %v", got)
	}
}

func TestXSearchFetchRequiresCookie(t *testing.T) {
	t.Parallel()

	cfg := xTestConfig()
	cfg.SessionCookie = ""
	adapter := NewXSearchAdapter(nil, cfg, testPainMap(), rand.New(rand.NewSource(1)), logging.New("error"))

	if _, err := adapter.Fetch(context.Background()); err == nil {
		t.Fatalf("expected an error without a session cookie")
	}
}

func TestXSearchFetchNormalizesTweets(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Cookie") != "auth_token=abc" {
			t.Errorf("session cookie not forwarded")
		}
		fmt.Fprint(w, `{"statuses":[
			{"id_str":"123","full_text":"ChatGPT keeps being\nslow today",
			 "created_at":"Mon Aug 24 10:30:00 +0000 2026","user":{"name":"dev"}},
			{"id_str":"124","full_text":"   ","user":{"name":"empty"}}
		]}`)
	}))
	defer srv.Close()

	cfg := xTestConfig()
	adapter := NewXSearchAdapter(srv.Client(), cfg, testPainMap(), rand.New(rand.NewSource(7)), logging.New("error"))
	adapter.baseURL = srv.URL

	records, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) == 0 {
		t.Fatalf("expected records from non-empty statuses")
	}

	got := records[0]
	if got.Category != domain.CategoryPain {
		t.Fatalf("expected Pain category, got %s", got.Category)
	}
	if got.Body != "ChatGPT keeps being slow today" {
		t.Fatalf("newlines must collapse to spaces, got %q", got.Body)
	}
	if got.Link != "https://x.com/i/web/status/123" {
		t.Fatalf("unexpected link %q", got.Link)
	}
	if product, _ := got.Extra["product"].(string); product == "" {
		t.Fatalf("record must carry the product it complains about")
	}
	if got.PublishedAt.IsZero() {
		t.Fatalf("created_at must be parsed")
	}
}

func TestXSearchFetchStopsOnRateLimit(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	adapter := NewXSearchAdapter(srv.Client(), xTestConfig(), testPainMap(),
		rand.New(rand.NewSource(7)), logging.New("error"))
	adapter.baseURL = srv.URL

	records, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("rate limit must not fail the adapter: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
	if calls != 1 {
		t.Fatalf("remaining queries must stop after a 429, made %d calls", calls)
	}
}

func TestProductFromQuery(t *testing.T) {
	t.Parallel()

	if got := productFromQuery(`"claude" rate limit`, testPainMap()); got != "Claude" {
		t.Fatalf("expected Claude, got %q", got)
	}
	if got := productFromQuery(`"unknown" thing`, testPainMap()); got != "" {
		t.Fatalf("expected empty for unknown product, got %q", got)
	}
}
