package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MarketRadar/internal/domain"
	"MarketRadar/internal/logging"
)

const papersTestPage = `<html><body>
	<article>
		<a href="/papers/2608.01234"><h3> Scaling Laws Revisited </h3></a>
		<p> We revisit scaling laws for small models. </p>
	</article>
	<article>
		<a href="https://example.org/full"><h3>Absolute Link Paper</h3></a>
		<p>Summary two.</p>
	</article>
	<article>
		<p>A block without a heading is skipped.</p>
	</article>
</body></html>`

func TestPapersFetchExtractsArticles(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, papersTestPage)
	}))
	defer srv.Close()

	ingested := time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)
	adapter := NewPapersAdapter(srv.Client(), "Hugging Face - Daily Papers", srv.URL+"/papers", logging.New("error"))
	adapter.now = func() time.Time { return ingested }

	records, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records (headingless block skipped), got %d", len(records))
	}

	first := records[0]
	if first.Title != "Scaling Laws Revisited" {
		t.Fatalf("heading must be trimmed, got %q", first.Title)
	}
	if first.Link != srv.URL+"/papers/2608.01234" {
		t.Fatalf("relative link must resolve against the page origin, got %q", first.Link)
	}
	if first.Category != domain.CategoryResearch {
		t.Fatalf("expected Research category, got %s", first.Category)
	}
	if !first.PublishedAt.Equal(ingested) {
		t.Fatalf("page entries must be stamped with ingestion time, got %v", first.PublishedAt)
	}

	if records[1].Link != "https://example.org/full" {
		t.Fatalf("absolute links must pass through, got %q", records[1].Link)
	}
}

func TestPapersFetchFailsOnBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	adapter := NewPapersAdapter(srv.Client(), "Papers", srv.URL, logging.New("error"))

	if _, err := adapter.Fetch(context.Background()); err == nil {
		t.Fatalf("expected an error on a non-200 page")
	}
}

func TestPageOrigin(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"https://huggingface.co/papers", "https://huggingface.co"},
		{"http://example.com/a/b/c", "http://example.com"},
		{"https://example.com", "https://example.com"},
		{"not-a-url", ""},
	}
	for _, tc := range cases {
		if got := pageOrigin(tc.in); got != tc.want {
			t.Fatalf("pageOrigin(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
