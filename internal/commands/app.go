package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/reconcile/internal/accounts"
	"github.com/cleared-dev/reconcile/internal/auditlog"
	"github.com/cleared-dev/reconcile/internal/config"
	"github.com/cleared-dev/reconcile/internal/gitops"
	"github.com/cleared-dev/reconcile/internal/ledger"
	"github.com/cleared-dev/reconcile/internal/logger"
	"github.com/cleared-dev/reconcile/internal/service"
	"github.com/cleared-dev/reconcile/internal/store"
)

// app is a project opened from its config file.
type app struct {
	cfg  *config.Config
	root string // ledger root
	db   *store.DB
	svc  *service.Service
	log  zerolog.Logger
}

type opener func() (*app, error)

func openApp(configPath string) (*app, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(absPath)
	if err != nil {
		return nil, err
	}
	projectDir := filepath.Dir(absPath)

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	root := resolve(projectDir, cfg.Ledger.Root)
	chart, err := accounts.Load(root)
	if err != nil {
		return nil, err
	}
	dir, err := accounts.NewDirectory(cfg.Banks(), chart)
	if err != nil {
		return nil, fmt.Errorf("bank accounts: %w", err)
	}

	dsn := cfg.Storage.DSN
	if driver := strings.ToLower(cfg.Storage.Driver); driver == "" || driver == "sqlite" {
		dsn = resolve(projectDir, dsn)
	}
	db, err := store.Open(cfg.Storage.Driver, dsn)
	if err != nil {
		return nil, err
	}

	led := ledger.NewService(root, chart)
	if cfg.Git.AutoCommit && gitops.IsRepo(root) {
		led.WithCommitter(gitops.Repo{Dir: root, AuthorName: cfg.Git.AuthorName, AuthorEmail: cfg.Git.AuthorEmail})
	}

	svc := service.New(service.Options{
		Store:            db,
		Ledger:           led,
		Accounts:         dir,
		Chart:            chart,
		QuickEntries:     cfg.QuickEntryTemplates(),
		Audit:            auditlog.New(root),
		Log:              log,
		Receivables:      cfg.Ledger.Receivables,
		Payables:         cfg.Ledger.Payables,
		SearchWindowDays: cfg.Ledger.SearchWindowDays,
		Actor:            "cli",
	})
	return &app{cfg: cfg, root: root, db: db, svc: svc, log: log}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
