package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"MarketRadar/internal/domain"
	"MarketRadar/internal/ports"
	"MarketRadar/internal/retry"
)

// ReportPipeline turns a session batch into an analyst report: summarize the
// accumulated signals (with bounded retries), write the rendered document,
// and push it to the operator. Writer and notifier are optional.
type ReportPipeline struct {
	summarizer ports.Summarizer
	writer     ports.ReportWriter
	notifier   ports.Notifier
	retry      retry.Policy
	logger     *slog.Logger
}

// NewReportPipeline wires the summarizer with its delivery channels.
func NewReportPipeline(summarizer ports.Summarizer, writer ports.ReportWriter, notifier ports.Notifier, policy retry.Policy, logger *slog.Logger) *ReportPipeline {
	return &ReportPipeline{
		summarizer: summarizer,
		writer:     writer,
		notifier:   notifier,
		retry:      policy,
		logger:     logger,
	}
}

// Deliver produces and delivers the report for one cycle. An empty batch
// skips the whole step; delivery failures are logged, not fatal, since the
// signals are already persisted.
func (p *ReportPipeline) Deliver(ctx context.Context, cycle CycleResult) error {
	if cycle.Accepted == 0 {
		p.logger.Info("no new signals, skipping report", "cycle", cycle.CycleID)
		return nil
	}
	if p.summarizer == nil {
		return fmt.Errorf("summarizer not configured")
	}

	signals := formatSignals(cycle.Batch)

	var analysis string
	err := p.retry.Do(ctx, func(ctx context.Context) error {
		summary, err := p.summarizer.Summarize(ctx, signals)
		if err != nil {
			p.logger.Warn("analysis attempt failed", "cycle", cycle.CycleID, "error", err)
			return err
		}
		analysis = summary
		return nil
	})
	if err != nil {
		return fmt.Errorf("analyze session: %w", err)
	}

	title := fmt.Sprintf("Market signals %s", cycle.FinishedAt.Format("2006-01-02"))

	if p.writer != nil {
		path, err := p.writer.Write(title, analysis, cycle.FinishedAt)
		if err != nil {
			p.logger.Error("report write failed", "cycle", cycle.CycleID, "error", err)
		} else {
			p.logger.Info("report written", "cycle", cycle.CycleID, "path", path)
		}
	}

	if p.notifier != nil {
		if err := p.notifier.Push(ctx, title, analysis); err != nil {
			p.logger.Error("report push failed", "cycle", cycle.CycleID, "error", err)
		} else {
			p.logger.Info("report pushed", "cycle", cycle.CycleID)
		}
	}

	return nil
}

// formatSignals flattens the session batch into the text blob handed to the
// summarizer, one signal per line.
func formatSignals(batch []domain.Record) string {
	var b strings.Builder
	for _, record := range batch {
		fmt.Fprintf(&b, "[%s](%s) @%s: %s", record.Source, record.Category, record.Author, record.Title)
		if record.Body != "" {
			fmt.Fprintf(&b, " | %s", record.Body)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
