package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MarketRadar/internal/app"
	"MarketRadar/internal/config"
	"MarketRadar/internal/infrastructure/scheduler"
	"MarketRadar/internal/logging"
)

func main() {
	daemon := flag.Bool("daemon", false, "run continuously on the configured interval")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if !*daemon {
		if err := application.RunCycle(ctx); err != nil {
			logger.Error("cycle failed", "error", err)
			os.Exit(1)
		}
		return
	}

	sched := scheduler.NewCronScheduler(cfg.Scheduler.Interval())
	err = sched.Start(ctx, func(t time.Time) {
		if err := application.RunCycle(ctx); err != nil {
			// Daemon keeps running; the next tick retries the whole cycle.
			logger.Error("cycle failed", "at", t.Format(time.RFC3339), "error", err)
		}
	})
	if err != nil {
		logger.Error("scheduler failed", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		logger.Warn("scheduler stop timed out", "error", err)
	}
}
