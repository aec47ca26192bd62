package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"medstore/m/internal/api"
	"medstore/m/internal/auth"
	"medstore/m/internal/blob"
	"medstore/m/internal/catalog"
	"medstore/m/internal/events"
	"medstore/m/internal/inventory"
	"medstore/m/internal/redisx"
	"medstore/m/internal/reports"
	"medstore/m/internal/sales"
	"medstore/m/internal/seed"
	"medstore/m/internal/store"
)

type serveCmd struct {
	seedCSV string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the HTTP API" }
func (*serveCmd) Usage() string {
	return `medstore serve [-seed <csv>]

  Migrates the database, optionally loads the medicine catalog, then serves
  the API on HTTP_PORT until interrupted.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.seedCSV, "seed", "", "Medicine catalog CSV to load before serving.")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	log := a.log

	if c.seedCSV != "" {
		res, err := seed.LoadMedicinesFile(ctx, a.db, c.seedCSV, log)
		if err != nil {
			log.Error("seed failed", zap.Error(err))
			return subcommands.ExitFailure
		}
		log.Info("medicine catalog loaded", zap.Int("inserted", res.Inserted), zap.Int("skipped", res.Skipped))
	}

	var revoker auth.Revoker = auth.NewMemoryRevoker()
	if a.cfg.Redis.Addr != "" {
		rdb, err := redisx.New(ctx, a.cfg.Redis)
		if err != nil {
			log.Error("redis unavailable", zap.Error(err))
			return subcommands.ExitFailure
		}
		defer rdb.Close()
		revoker = auth.NewRedisRevoker(rdb)
	}

	var pub events.Publisher = events.Noop{}
	if len(a.cfg.Kafka.Brokers) > 0 {
		producer := events.NewProducer(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic, 256, log)
		producer.Start(context.Background())
		defer func() {
			producer.Close()
			producer.WaitClosed()
		}()
		pub = events.NewKafkaPublisher(producer, "medstore")
		log.Info("publishing events", zap.Strings("brokers", a.cfg.Kafka.Brokers), zap.String("topic", a.cfg.Kafka.Topic))
	}

	blobs := blob.New(a.cfg.Storage.Dir, a.cfg.Storage.PublicURL)
	avatars, err := blobs.Bucket(auth.AvatarBucket)
	if err != nil {
		log.Error("storage unavailable", zap.Error(err))
		return subcommands.ExitFailure
	}

	st := store.New(a.db)
	inv := inventory.NewService(st, pub, log, inventory.Options{
		LowStockThreshold: a.cfg.LowStockThreshold,
		ExpiryWindowDays:  a.cfg.ExpiryWindowDays,
	})
	handler := api.New(api.Services{
		Auth:      auth.NewService(st, auth.NewTokens(a.cfg.Secret, a.cfg.TokenTTL), revoker, avatars, log),
		Catalog:   catalog.NewService(st, log),
		Inventory: inv,
		Sales:     sales.NewService(st, inv, pub, log),
		Reports:   reports.NewService(st, inv, a.cfg.Currency),
		Blobs:     blobs,
	}, log, a.cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              ":" + a.cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("medstore server starting", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
