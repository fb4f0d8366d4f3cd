package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"MarketRadar/internal/config"
	"MarketRadar/internal/domain"
	"MarketRadar/internal/ports"
)

const xSearchBaseURL = "https://api.x.com/1.1/search/tweets.json"

// painQueryKeywords bounds how many complaint terms per product enter the
// query pool each cycle.
const painQueryKeywords = 2

// XSearchAdapter runs keyword searches against the micro-blog provider using
// a pre-authenticated session cookie. Queries are sampled randomly per cycle
// to vary coverage while respecting the provider's rate limits, and paced
// with a limiter between successive requests.
type XSearchAdapter struct {
	client   *http.Client
	baseURL  string
	cookie   string
	products map[string][]string
	perCycle int
	perQuery int
	limiter  *rate.Limiter
	rng      *rand.Rand
	logger   *slog.Logger
}

var _ ports.SourceAdapter = (*XSearchAdapter)(nil)

// NewXSearchAdapter wires the session, pain-keyword map and sampling source.
// rng may be seeded deterministically by tests.
func NewXSearchAdapter(client *http.Client, cfg config.XSearchConfig, pain map[string][]string, rng *rand.Rand, logger *slog.Logger) *XSearchAdapter {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &XSearchAdapter{
		client:   client,
		baseURL:  xSearchBaseURL,
		cookie:   cfg.SessionCookie,
		products: pain,
		perCycle: cfg.QueriesPerCycle,
		perQuery: cfg.ResultsPerQuery,
		limiter:  rate.NewLimiter(rate.Every(cfg.QueryDelay()), 1),
		rng:      rng,
		logger:   logger,
	}
}

// Name identifies the provider.
func (x *XSearchAdapter) Name() string { return "X" }

// Fetch runs the sampled queries sequentially. A rate-limit response stops
// the remaining queries for this cycle; single-query failures are skipped.
func (x *XSearchAdapter) Fetch(ctx context.Context) ([]domain.Record, error) {
	if x.cookie == "" {
		return nil, fmt.Errorf("x search: session cookie not configured")
	}

	queries := sampleQueries(x.rng, buildPainQueries(x.products), x.perCycle)
	x.logger.Debug("x search queries selected", "queries", queries)

	var records []domain.Record
	for _, query := range queries {
		if err := x.limiter.Wait(ctx); err != nil {
			return records, nil
		}

		tweets, rateLimited, err := x.search(ctx, query)
		if err != nil {
			x.logger.Warn("x search query failed", "query", query, "error", err)
			continue
		}

		product := productFromQuery(query, x.products)
		for _, tweet := range tweets {
			if record, ok := normalizeTweet(tweet, product); ok {
				records = append(records, record)
			}
		}

		if rateLimited {
			x.logger.Warn("x search rate limit reached, stopping remaining queries")
			break
		}
	}
	return records, nil
}

// buildPainQueries derives `"Product" keyword` queries from the configured
// complaint terms, in sorted product order so sampling is reproducible under
// a seeded rng.
func buildPainQueries(products map[string][]string) []string {
	names := make([]string, 0, len(products))
	for name := range products {
		names = append(names, name)
	}
	sort.Strings(names)

	var queries []string
	for _, name := range names {
		keywords := products[name]
		if len(keywords) > painQueryKeywords {
			keywords = keywords[:painQueryKeywords]
		}
		for _, keyword := range keywords {
			queries = append(queries, fmt.Sprintf("%q %s", name, keyword))
		}
	}
	return queries
}

// sampleQueries picks at most n queries without replacement.
func sampleQueries(rng *rand.Rand, queries []string, n int) []string {
	if n <= 0 || n >= len(queries) {
		return queries
	}
	sampled := make([]string, 0, n)
	for _, idx := range rng.Perm(len(queries))[:n] {
		sampled = append(sampled, queries[idx])
	}
	return sampled
}

// productFromQuery recovers which product a query was built for.
func productFromQuery(query string, products map[string][]string) string {
	lowered := strings.ToLower(query)
	names := make([]string, 0, len(products))
	for name := range products {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.Contains(lowered, strings.ToLower(name)) {
			return name
		}
	}
	return ""
}

type xTweet struct {
	IDStr     string `json:"id_str"`
	Text      string `json:"text"`
	FullText  string `json:"full_text"`
	CreatedAt string `json:"created_at"`
	User      struct {
		Name       string `json:"name"`
		ScreenName string `json:"screen_name"`
	} `json:"user"`
}

func (x *XSearchAdapter) search(ctx context.Context, query string) ([]xTweet, bool, error) {
	endpoint := fmt.Sprintf("%s?q=%s&count=%d&result_type=recent",
		x.baseURL, url.QueryEscape(query), x.perQuery)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Cookie", x.cookie)
	req.Header.Set("User-Agent", "MarketRadar/1.0")

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("request search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("x search returned %s", resp.Status)
	}

	var payload struct {
		Statuses []xTweet `json:"statuses"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("decode search response: %w", err)
	}
	return payload.Statuses, false, nil
}

// normalizeTweet maps one status to a pain record scoped by product.
func normalizeTweet(tweet xTweet, product string) (domain.Record, bool) {
	text := tweet.FullText
	if text == "" {
		text = tweet.Text
	}
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if text == "" || product == "" {
		return domain.Record{}, false
	}

	var link string
	if tweet.IDStr != "" {
		link = "https://x.com/i/web/status/" + tweet.IDStr
	}

	published := time.Time{}
	if tweet.CreatedAt != "" {
		if parsed, err := time.Parse(time.RubyDate, tweet.CreatedAt); err == nil {
			published = parsed.UTC()
		}
	}

	return domain.Record{
		Source:      "X",
		Body:        text,
		Link:        link,
		Author:      tweet.User.Name,
		Category:    domain.CategoryPain,
		PublishedAt: published,
		Extra: map[string]any{
			"product": product,
		},
	}, true
}
