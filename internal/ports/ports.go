package ports

import (
	"context"
	"time"

	"MarketRadar/internal/domain"
)

// SourceAdapter pulls raw items from one external provider and normalizes
// them to records. Fetch must isolate per-item failures: a single bad query
// or item is logged and skipped, never surfaced as the adapter's error.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.Record, error)
}

// DedupStore is the permanent cross-run ledger of previously seen
// fingerprints. It is the only persisted state in the pipeline.
type DedupStore interface {
	// Exists reports whether key is already recorded; no side effects.
	Exists(ctx context.Context, key string) (bool, error)
	// Upsert persists record under key and returns true, or returns false
	// without writing when key is already present.
	Upsert(ctx context.Context, key string, record domain.Record) (bool, error)
}

// Summarizer turns the accumulated session signals into an analyst report.
type Summarizer interface {
	Summarize(ctx context.Context, signals string) (string, error)
}

// Notifier delivers a rendered report to the operator.
type Notifier interface {
	Push(ctx context.Context, title, markdown string) error
}

// ReportWriter persists a report document and returns its path.
type ReportWriter interface {
	Write(title, markdown string, generatedAt time.Time) (string, error)
}

// Scheduler controls when ingestion cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
