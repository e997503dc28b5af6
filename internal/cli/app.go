// Package cli holds the recruit-tracker subcommands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/auditlog"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/config"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/observability/logging"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/service"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/settings"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/store"
	"github.com/16AA-Milsim/discourse-recruit-tracker/pkg/db"
)

const serviceName = "recruit-tracker"

// app is the wiring shared by every subcommand.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	store    *store.Store
	settings settings.Provider
}

func bootstrap() (*app, error) {
	cfg := config.Load()

	logger := logging.NewLogger(logging.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
		Output:      os.Stderr,
	})
	slog.SetDefault(logger)

	p, err := settings.Load(cfg.SettingsFile)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	gdb, err := db.OpenGorm(db.Config{
		Driver:   cfg.DatabaseDriver,
		DSN:      cfg.DatabaseURL,
		TimeZone: cfg.DatabaseTimeZone,
		LogSQL:   cfg.LogSQL,
	})
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: logger, store: store.New(gdb), settings: p}, nil
}

func (a *app) service(n service.Notifier) *service.Service {
	caps := service.CapabilitiesFrom(a.settings)
	a.log.Info("capabilities resolved",
		"rank_prefix", caps.RankPrefix,
		"join_date", caps.JoinDate,
		"manual_tracking", caps.ManualTracking)
	return service.New(service.Options{
		Store:        a.store,
		Settings:     a.settings,
		Trimmer:      auditlog.NewTrimmer(a.store, a.log),
		Notifier:     n,
		Ranks:        a.store.RankPrefixes(),
		Capabilities: caps,
		Logger:       a.log,
	})
}

func (a *app) close() {
	if sqlDB, err := a.store.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
