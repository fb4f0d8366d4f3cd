package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"MarketRadar/internal/config"
	"MarketRadar/internal/domain"
	"MarketRadar/internal/ports"
)

const githubBaseURL = "https://api.github.com"

// GitHubAdapter searches the code-host repository index for the configured
// keywords and emits fresh, popular repositories as OpenSource records.
type GitHubAdapter struct {
	client   *http.Client
	baseURL  string
	token    string
	keywords []string
	perCycle int
	perQuery int
	minStars int
	window   time.Duration
	pause    time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.SourceAdapter = (*GitHubAdapter)(nil)

// NewGitHubAdapter wires an HTTP client and the code-host search settings.
func NewGitHubAdapter(client *http.Client, cfg config.GitHubConfig, logger *slog.Logger) *GitHubAdapter {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &GitHubAdapter{
		client:   client,
		baseURL:  githubBaseURL,
		token:    cfg.Token,
		keywords: cfg.Keywords,
		perCycle: cfg.KeywordsPerCycle,
		perQuery: cfg.ResultsPerQuery,
		minStars: cfg.MinStars,
		window:   time.Duration(cfg.FreshnessDays) * 24 * time.Hour,
		pause:    cfg.QueryDelay(),
		logger:   logger,
		now:      time.Now,
	}
}

// Name identifies the provider.
func (g *GitHubAdapter) Name() string { return "GitHub" }

// Fetch issues one search per keyword, bounded per cycle. A rate-limit
// response stops the remaining queries without failing what was collected.
func (g *GitHubAdapter) Fetch(ctx context.Context) ([]domain.Record, error) {
	keywords := g.keywords
	if g.perCycle > 0 && len(keywords) > g.perCycle {
		keywords = keywords[:g.perCycle]
	}

	var records []domain.Record
	for i, keyword := range keywords {
		if i > 0 && g.pause > 0 {
			select {
			case <-ctx.Done():
				return records, nil
			case <-time.After(g.pause):
			}
		}

		repos, rateLimited, err := g.search(ctx, keyword)
		if err != nil {
			g.logger.Warn("github search failed", "keyword", keyword, "error", err)
			continue
		}

		for _, repo := range repos {
			if record, ok := g.normalizeRepo(repo); ok {
				records = append(records, record)
			}
		}

		if rateLimited {
			g.logger.Warn("github rate limit reached, stopping remaining queries",
				"completed", i+1, "total", len(keywords))
			break
		}
	}

	return records, nil
}

type githubRepo struct {
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	HTMLURL     string    `json:"html_url"`
	Stars       int       `json:"stargazers_count"`
	Language    string    `json:"language"`
	UpdatedAt   time.Time `json:"updated_at"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

func (g *GitHubAdapter) search(ctx context.Context, keyword string) ([]githubRepo, bool, error) {
	q := url.QueryEscape(fmt.Sprintf("%s stars:>%d", keyword, g.minStars))
	endpoint := fmt.Sprintf("%s/search/repositories?q=%s&sort=updated&order=desc&per_page=%d",
		g.baseURL, q, g.perQuery)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "MarketRadar/1.0")
	if g.token != "" {
		req.Header.Set("Authorization", "token "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("request search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("github returned %s", resp.Status)
	}

	var payload struct {
		Items []githubRepo `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("decode search response: %w", err)
	}
	return payload.Items, false, nil
}

// normalizeRepo turns one search hit into a record, dropping repositories
// below the popularity threshold or outside the freshness window.
func (g *GitHubAdapter) normalizeRepo(repo githubRepo) (domain.Record, bool) {
	if repo.FullName == "" {
		return domain.Record{}, false
	}
	if repo.Stars < g.minStars {
		return domain.Record{}, false
	}
	if g.window > 0 && repo.UpdatedAt.Before(g.now().Add(-g.window)) {
		return domain.Record{}, false
	}

	description := repo.Description
	if description == "" {
		description = "No description"
	}

	return domain.Record{
		Source:      "GitHub",
		Title:       repo.FullName,
		Body:        description,
		Link:        repo.HTMLURL,
		Author:      repo.Owner.Login,
		Category:    domain.CategoryOpenSource,
		PublishedAt: repo.UpdatedAt,
		Extra: map[string]any{
			"stars":    repo.Stars,
			"language": repo.Language,
			"updated":  repo.UpdatedAt.Format("2006-01-02"),
		},
	}, true
}
