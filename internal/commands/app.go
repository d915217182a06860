package commands

import (
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/brentcurtis76/casa-reconcile/internal/domain/reconcile/repository"
	"github.com/brentcurtis76/casa-reconcile/internal/domain/statement/service"
	"github.com/brentcurtis76/casa-reconcile/pkg/config"
	"github.com/brentcurtis76/casa-reconcile/pkg/db"
	"github.com/brentcurtis76/casa-reconcile/pkg/metrics"
	"github.com/brentcurtis76/casa-reconcile/pkg/money"
	"github.com/brentcurtis76/casa-reconcile/pkg/storage"
)

// app bundles the dependencies CLI commands need.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *db.DB
	repo    repository.Repository
	svc     *service.Service
	store   storage.Storage
	metrics *metrics.Metrics
}

// newApp wires configuration, logging and the service. Analysis-only
// commands pass withDB=false and run without a database.
func newApp(withDB bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(prometheus.DefaultRegisterer),
	}

	a.store, err = storage.NewLocalStorage(storage.Config{
		BasePath:          cfg.Upload.RetentionPath,
		MaxUploadBytes:    cfg.Upload.MaxFileSizeBytes,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
	})
	if err != nil {
		return nil, err
	}

	if withDB {
		database, err := db.New(db.Config{
			DSN:             cfg.Database.DSN(),
			MaxConns:        10,
			MinConns:        2,
			MaxConnLifetime: 5 * time.Minute,
			MaxConnIdleTime: 10 * time.Minute,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(); err != nil {
			database.Close()
			return nil, err
		}
		a.db = database
		a.repo = repository.NewPostgresRepository(database.Pool, money.CLP)
	}

	a.svc = service.New(a.repo, cfg.Matching, a.metrics, logger)
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}
