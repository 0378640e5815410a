package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	pulsecfg "github.com/zbreeden/pulse/internal/config/pulse"
	"github.com/zbreeden/pulse/internal/fetch"
	"github.com/zbreeden/pulse/internal/obs"
	kafkaRepo "github.com/zbreeden/pulse/internal/repository/kafka"
	"github.com/zbreeden/pulse/internal/registry"
	"github.com/zbreeden/pulse/internal/services/sweep"
	"github.com/zbreeden/pulse/internal/storage"
)

// pulse runs one sweep and exits: the nightly batch job.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := pulsecfg.Load(os.Getenv("PULSE_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig("pulse"))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// Registry failure is fatal: no sweep, no writes.
	sources, err := registry.Load(cfg.Signals.Registry)
	if err != nil {
		l.Fatal("load registry", zap.Error(err))
	}
	l.Info("registry loaded", zap.Int("sources", len(sources)))

	store := storage.NewFiles(afero.NewOsFs(), cfg.Signals.Dir, l)
	client := fetch.NewClient(cfg.HTTP)

	var announce sweep.Announcer
	if cfg.Kafka.Enable {
		prod := kafkaRepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic).WithLogger(l)
		defer func() { _ = prod.Close() }()
		announce = kafkaRepo.NewBroadcastEventsKafka(prod)
	}

	s := sweep.NewSweeper(l, sources, client, store, announce, nil, cfg.Hub, cfg.HTTP.MaxParallel)

	if _, err := s.Sweep(ctx); err != nil {
		l.Error("sweep failed", zap.Error(err))
		os.Exit(1)
	}
}
