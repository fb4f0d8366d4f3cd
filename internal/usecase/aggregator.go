package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"MarketRadar/internal/classify"
	"MarketRadar/internal/domain"
	"MarketRadar/internal/ports"
)

// CycleResult is what one ingestion cycle yields: the session batch of newly
// accepted records and its counters. Batch order follows adapter completion
// order and is not stable across runs.
type CycleResult struct {
	CycleID    string
	Accepted   int
	PerSource  map[string]int
	Batch      []domain.Record
	StartedAt  time.Time
	FinishedAt time.Time
}

// Aggregator drives one ingestion cycle: it fans out across the source
// adapters concurrently, filters spam, classifies, and deduplicates against
// the permanent store, accumulating the session batch.
type Aggregator struct {
	adapters     []ports.SourceAdapter
	store        ports.DedupStore
	classifier   *classify.Classifier
	cycleTimeout time.Duration
	logger       *slog.Logger
}

// NewAggregator wires adapters, the dedup store and the classifier. A zero
// cycleTimeout disables the cycle deadline.
func NewAggregator(adapters []ports.SourceAdapter, store ports.DedupStore, classifier *classify.Classifier, cycleTimeout time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		adapters:     adapters,
		store:        store,
		classifier:   classifier,
		cycleTimeout: cycleTimeout,
		logger:       logger,
	}
}

// RunCycle executes one fetch-filter-classify-dedup pass across all sources.
// No single adapter, item, or store write failure aborts the cycle; only
// missing configuration before any adapter starts is fatal.
func (a *Aggregator) RunCycle(ctx context.Context) (CycleResult, error) {
	if len(a.adapters) == 0 {
		return CycleResult{}, fmt.Errorf("no source adapters configured")
	}
	if a.store == nil {
		return CycleResult{}, fmt.Errorf("dedup store not configured")
	}
	if a.classifier == nil {
		return CycleResult{}, fmt.Errorf("classifier not configured")
	}

	if a.cycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cycleTimeout)
		defer cancel()
	}

	result := CycleResult{
		CycleID:   ulid.Make().String(),
		PerSource: make(map[string]int),
		StartedAt: time.Now(),
	}
	a.logger.Info("cycle started", "cycle", result.CycleID, "sources", len(a.adapters))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, adapter := range a.adapters {
		wg.Add(1)
		go func(adapter ports.SourceAdapter) {
			defer wg.Done()

			records, err := adapter.Fetch(ctx)
			if err != nil {
				a.logger.Error("source unavailable", "source", adapter.Name(), "error", err)
			}
			for _, record := range records {
				a.ingest(ctx, record, &mu, &result)
			}
		}(adapter)
	}
	wg.Wait()

	result.FinishedAt = time.Now()
	a.logger.Info("cycle finished",
		"cycle", result.CycleID,
		"accepted", result.Accepted,
		"per_source", result.PerSource,
		"elapsed", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	return result, nil
}

// ingest runs one candidate through spam filtering, classification,
// fingerprinting and the idempotent store insert. Spam is rejected before
// dedup so it never consumes a permanent identity slot.
func (a *Aggregator) ingest(ctx context.Context, record domain.Record, mu *sync.Mutex, result *CycleResult) {
	record = record.Normalized(time.Now())

	if a.classifier.IsSpam(record.Title + " " + record.Body) {
		a.logger.Debug("spam rejected", "source", record.Source, "title", record.Title)
		return
	}
	record.Category = a.classifier.Classify(record)

	key := record.DedupKey()
	accepted, err := a.store.Upsert(ctx, key, record)
	if err != nil {
		// Not accepted this session; the next cycle re-fetches naturally.
		a.logger.Warn("store write failed", "source", record.Source, "key", key, "error", err)
		return
	}
	if !accepted {
		a.logger.Debug("duplicate skipped", "source", record.Source, "key", key)
		return
	}

	mu.Lock()
	result.Batch = append(result.Batch, record)
	result.PerSource[record.Source]++
	result.Accepted++
	mu.Unlock()

	a.logger.Info("signal accepted",
		"source", record.Source,
		"category", record.Category,
		"title", domain.Truncate(record.Title, 50))
}
