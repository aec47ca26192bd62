package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"medstore/m/internal/config"
	"medstore/m/internal/database"
	"medstore/m/internal/logger"
	"medstore/m/internal/migrations"
)

// app is the state shared by every subcommand.
type app struct {
	cfg config.Config
	log *zap.Logger
	db  *sqlx.DB
}

// bootstrap loads configuration, builds the logger and opens a migrated
// database.
func bootstrap(ctx context.Context) (*app, error) {
	cfg := config.Load()
	log, err := logger.New(cfg.Logger, cfg.IsDevelopment())
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) Close() {
	a.db.Close()
	_ = a.log.Sync()
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
}
