package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/unexbilletera/unex-api/internal/data/db"
	"github.com/unexbilletera/unex-api/internal/http"
	"github.com/unexbilletera/unex-api/internal/observability"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics

	server       *http.Server
	pg           *db.PostgresService
	otelShutdown func(context.Context) error
}

// New connects Postgres and Redis and wires the HTTP stack. It does not migrate.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	pg, err := db.NewPostgresService(cfg.Postgres, log)
	if err != nil {
		_ = otelShutdown(ctx)
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	a, err := NewWithDB(ctx, log, cfg, pg.DB())
	if err != nil {
		_ = pg.Close()
		_ = otelShutdown(ctx)
		return nil, err
	}
	a.pg = pg
	a.otelShutdown = otelShutdown
	return a, nil
}

// NewWithDB wires everything above an existing connection.
func NewWithDB(ctx context.Context, log *logger.Logger, cfg Config, theDB *gorm.DB) (*App, error) {
	metrics := observability.Init(log, cfg.Metrics)

	clientset, err := wireClients(ctx, log, cfg)
	if err != nil {
		return nil, err
	}
	reposet := wireRepos(theDB, log)
	serviceset := wireServices(log, cfg, reposet, clientset, metrics)
	handlerset := wireHandlers(log, theDB, clientset, serviceset)
	middleware := wireMiddleware(log, serviceset)
	server := http.NewServer(wireRouter(log, cfg, handlerset, middleware, serviceset, metrics))

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   server.Engine,
		Cfg:      cfg,
		Repos:    reposet,
		Clients:  clientset,
		Services: serviceset,
		Metrics:  metrics,
		server:   server,
	}, nil
}

func (a *App) Migrate() error {
	if a == nil || a.DB == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Running migrations...")
	return db.AutoMigrateAll(a.DB)
}

// Run starts the background collectors and serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
		if a.Clients.Redis != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
		}
	}
	return a.server.Run(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
