package source

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"MarketRadar/internal/domain"
	"MarketRadar/internal/ports"
)

// defaultMaxPerFeed caps how many entries one feed may contribute per cycle.
const defaultMaxPerFeed = 50

// Feed is one configured RSS/Atom source.
type Feed struct {
	Name     string
	URL      string
	Category domain.Category
}

// RSSAdapter polls the configured feeds. Individual malformed feeds or
// entries are skipped; a cycle only reports what parsed cleanly.
type RSSAdapter struct {
	parser     *gofeed.Parser
	feeds      []Feed
	maxPerFeed int
	logger     *slog.Logger
	now        func() time.Time
}

var _ ports.SourceAdapter = (*RSSAdapter)(nil)

// NewRSSAdapter wires an HTTP client and the feed list.
func NewRSSAdapter(client *http.Client, feeds []Feed, logger *slog.Logger) *RSSAdapter {
	parser := gofeed.NewParser()
	parser.UserAgent = "MarketRadar/1.0"
	if client != nil {
		parser.Client = client
	}
	return &RSSAdapter{
		parser:     parser,
		feeds:      feeds,
		maxPerFeed: defaultMaxPerFeed,
		logger:     logger,
		now:        time.Now,
	}
}

// Name identifies the provider.
func (r *RSSAdapter) Name() string { return "RSS" }

// Fetch parses each configured feed in turn.
func (r *RSSAdapter) Fetch(ctx context.Context) ([]domain.Record, error) {
	var records []domain.Record
	for _, feed := range r.feeds {
		parsed, err := r.parser.ParseURLWithContext(feed.URL, ctx)
		if err != nil {
			r.logger.Warn("feed parse failed", "feed", feed.Name, "error", err)
			continue
		}

		items := parsed.Items
		if len(items) > r.maxPerFeed {
			items = items[:r.maxPerFeed]
		}
		for _, item := range items {
			if record, ok := normalizeEntry(item, feed, r.now()); ok {
				records = append(records, record)
			}
		}
		r.logger.Debug("feed fetched", "feed", feed.Name, "items", len(items))
	}
	return records, nil
}

// normalizeEntry maps one feed entry to a record. Entries with neither title
// nor link are dropped; a missing timestamp is synthesized from ingestion
// time.
func normalizeEntry(item *gofeed.Item, feed Feed, now time.Time) (domain.Record, bool) {
	if item == nil || (item.Title == "" && item.Link == "") {
		return domain.Record{}, false
	}

	body := item.Description
	if body == "" {
		body = item.Content
	}

	var author string
	if item.Author != nil {
		author = item.Author.Name
	}

	published := now
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	return domain.Record{
		Source:      feed.Name,
		Title:       item.Title,
		Body:        body,
		Link:        item.Link,
		Author:      author,
		Category:    feed.Category,
		PublishedAt: published,
	}, true
}
