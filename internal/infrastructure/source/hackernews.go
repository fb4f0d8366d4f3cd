package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"MarketRadar/internal/classify"
	"MarketRadar/internal/config"
	"MarketRadar/internal/domain"
	"MarketRadar/internal/ports"
)

const hackerNewsBaseURL = "https://hacker-news.firebaseio.com"

// HackerNewsAdapter pulls the news-aggregator top stories and keeps those at
// or above the score threshold, pre-tagged by the ordered category keywords.
type HackerNewsAdapter struct {
	client     *http.Client
	baseURL    string
	topStories int
	minScore   int
	classifier *classify.Classifier
	logger     *slog.Logger
}

var _ ports.SourceAdapter = (*HackerNewsAdapter)(nil)

// NewHackerNewsAdapter wires an HTTP client, score threshold and classifier.
func NewHackerNewsAdapter(client *http.Client, cfg config.HackerNewsConfig, classifier *classify.Classifier, logger *slog.Logger) *HackerNewsAdapter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HackerNewsAdapter{
		client:     client,
		baseURL:    hackerNewsBaseURL,
		topStories: cfg.TopStories,
		minScore:   cfg.MinScore,
		classifier: classifier,
		logger:     logger,
	}
}

// Name identifies the provider.
func (h *HackerNewsAdapter) Name() string { return "HackerNews" }

// Fetch loads the top story IDs and then each story. A failed story fetch is
// skipped; only the ID listing itself is fatal for the adapter.
func (h *HackerNewsAdapter) Fetch(ctx context.Context) ([]domain.Record, error) {
	ids, err := h.topStoryIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("top stories: %w", err)
	}
	if h.topStories > 0 && len(ids) > h.topStories {
		ids = ids[:h.topStories]
	}

	var records []domain.Record
	for _, id := range ids {
		story, err := h.story(ctx, id)
		if err != nil {
			h.logger.Debug("hackernews story fetch failed", "id", id, "error", err)
			continue
		}
		if record, ok := h.normalizeStory(story); ok {
			records = append(records, record)
		}
	}
	return records, nil
}

type hnStory struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Type        string `json:"type"`
}

func (h *HackerNewsAdapter) topStoryIDs(ctx context.Context) ([]int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/v0/topstories.json", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request topstories: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("topstories returned %s", resp.Status)
	}

	var ids []int64
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return nil, fmt.Errorf("decode topstories: %w", err)
	}
	return ids, nil
}

func (h *HackerNewsAdapter) story(ctx context.Context, id int64) (hnStory, error) {
	endpoint := fmt.Sprintf("%s/v0/item/%d.json", h.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return hnStory{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return hnStory{}, fmt.Errorf("request item: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return hnStory{}, fmt.Errorf("item returned %s", resp.Status)
	}

	var story hnStory
	if err := json.NewDecoder(resp.Body).Decode(&story); err != nil {
		return hnStory{}, fmt.Errorf("decode item: %w", err)
	}
	return story, nil
}

// normalizeStory maps one story to a record; stories without a title, of the
// wrong type, or below the score threshold are dropped.
func (h *HackerNewsAdapter) normalizeStory(story hnStory) (domain.Record, bool) {
	if story.Title == "" {
		return domain.Record{}, false
	}
	if story.Type != "" && story.Type != "story" {
		return domain.Record{}, false
	}
	if story.Score < h.minScore {
		return domain.Record{}, false
	}

	link := story.URL
	if link == "" {
		link = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", story.ID)
	}

	return domain.Record{
		Source:      "HackerNews",
		Title:       story.Title,
		Body:        story.Text,
		Link:        link,
		Author:      story.By,
		Category:    h.classifier.ClassifyText(story.Title + " " + story.Text),
		PublishedAt: time.Unix(story.Time, 0).UTC(),
		Extra: map[string]any{
			"score":    story.Score,
			"comments": story.Descendants,
		},
	}, true
}
