package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/nkiru/internal/analytics"
	"github.com/vietddude/nkiru/internal/api"
	"github.com/vietddude/nkiru/internal/core/config"
	"github.com/vietddude/nkiru/internal/core/retry"
	"github.com/vietddude/nkiru/internal/infra/postgrest"
	redisclient "github.com/vietddude/nkiru/internal/infra/redis"
	"github.com/vietddude/nkiru/internal/infra/storage"
	"github.com/vietddude/nkiru/internal/infra/storage/cache"
	"github.com/vietddude/nkiru/internal/infra/storage/memory"
	"github.com/vietddude/nkiru/internal/infra/storage/postgres"
	"github.com/vietddude/nkiru/internal/infra/storage/rest"
	"github.com/vietddude/nkiru/internal/service"
)

// App owns every long-lived component of the site backend.
type App struct {
	cfg         Config
	server      *api.Server
	contacts    *service.ContactService
	projects    *service.ProjectService
	analytics   *analytics.Client
	rest        *postgrest.Client
	db          *postgres.DB
	redisClient *redisclient.Client
	log         *slog.Logger
}

// Config holds the application configuration.
type Config struct {
	Port      int
	Backend   config.BackendConfig
	Database  postgres.Config
	Redis     redisclient.Config
	Retry     retry.Policy
	Analytics analytics.Config

	// Migrate applies pending schema migrations before serving (postgres only).
	Migrate bool
}

// FromAppConfig builds a Config from a loaded config file.
func FromAppConfig(c *config.AppConfig) Config {
	return Config{
		Port:      c.Server.Port,
		Backend:   c.Backend,
		Database:  c.Database,
		Redis:     c.Redis.Config,
		Retry:     c.Retry,
		Analytics: c.Analytics,
	}
}

type repositories struct {
	contacts storage.ContactRepository
	projects storage.ProjectRepository
}

// NewApp creates an App with all dependencies initialized.
func NewApp(ctx context.Context, cfg Config) (*App, error) {
	a := &App{
		cfg: cfg,
		log: slog.Default().With("component", "app"),
	}

	// 1. Initialize Storage
	repos, err := a.initStorage(ctx)
	if err != nil {
		a.closeInfra()
		return nil, err
	}

	// 2. Optional project cache
	if cfg.Redis.URL != "" {
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			a.log.Warn("Redis unavailable, serving projects without cache", "error", err)
		} else {
			a.redisClient = rc
			repos.projects = cache.NewProjectRepo(repos.projects, rc, cfg.Redis.TTL)
			a.log.Info("Project cache enabled", "ttl", cfg.Redis.TTL)
		}
	}

	// 3. Analytics
	var sink analytics.Sink = analytics.Nop{}
	if cfg.Analytics.Enabled {
		a.analytics = analytics.NewClient(cfg.Analytics)
		sink = a.analytics
	}

	// 4. Services
	opts := service.Options{Policy: cfg.Retry, Sink: sink}
	a.contacts = service.NewContactService(repos.contacts, opts)
	a.projects = service.NewProjectService(repos.projects, opts)

	// 5. API
	a.server = api.NewServer(api.Deps{
		Contacts: a.contacts,
		Projects: a.projects,
		Sink:     sink,
		Checks:   a.healthChecks(),
		Details:  a.details,
	}, cfg.Port)

	return a, nil
}

func (a *App) initStorage(ctx context.Context) (repositories, error) {
	switch a.cfg.Backend.Driver {
	case config.BackendREST:
		client, err := postgrest.NewClient(a.cfg.Backend.Config)
		if err != nil {
			return repositories{}, fmt.Errorf("failed to init backend client: %w", err)
		}
		a.rest = client
		a.log.Info("Using hosted REST backend", "url", a.cfg.Backend.URL)
		return repositories{
			contacts: rest.NewContactRepo(client),
			projects: rest.NewProjectRepo(client),
		}, nil

	case config.BackendPostgres:
		db, err := postgres.NewDB(ctx, a.cfg.Database)
		if err != nil {
			return repositories{}, fmt.Errorf("failed to init db: %w", err)
		}
		a.db = db
		if a.cfg.Migrate {
			if err := db.Migrate(ctx); err != nil {
				return repositories{}, fmt.Errorf("failed to migrate db: %w", err)
			}
		}
		a.log.Info("Using PostgreSQL storage")
		return repositories{
			contacts: postgres.NewContactRepo(db),
			projects: postgres.NewProjectRepo(db),
		}, nil

	case config.BackendMemory, "":
		store := memory.NewMemoryStorage()
		a.log.Info("Using Memory storage")
		return repositories{
			contacts: memory.NewContactRepo(store),
			projects: memory.NewProjectRepo(store),
		}, nil
	}
	return repositories{}, fmt.Errorf("unknown backend driver %q", a.cfg.Backend.Driver)
}

func (a *App) healthChecks() map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{
		"backend": func(ctx context.Context) error {
			if st := a.contacts.Connection(ctx); !st.Connected {
				return errors.New(st.Error)
			}
			return nil
		},
	}
	if a.db != nil {
		checks["database"] = a.db.Health
	}
	if a.redisClient != nil {
		checks["redis"] = a.redisClient.Health
	}
	return checks
}

func (a *App) details() any {
	d := map[string]any{"driver": a.cfg.Backend.Driver}
	if a.rest != nil {
		d["backend"] = a.rest.GetHealth()
	}
	if a.db != nil {
		d["database"] = a.db.Stats()
	}
	if a.analytics != nil {
		d["analytics"] = a.analytics.State().String()
	}
	return d
}

// Contacts exposes the contact service for commands that run without the server.
func (a *App) Contacts() *service.ContactService {
	return a.contacts
}

// Start starts the HTTP server and background collectors. It does not block.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("API server failed", "error", err)
		}
	}()

	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}

	a.log.Info("Started", "port", a.cfg.Port, "driver", a.cfg.Backend.Driver)
	return nil
}

// Stop drains the server, flushes analytics and closes connections.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping...")

	var errs []error
	if err := a.server.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop server: %w", err))
	}
	if a.analytics != nil {
		if err := a.analytics.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush analytics: %w", err))
		}
	}
	if err := a.closeInfra(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeInfra() error {
	var errs []error
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
	}
	if a.rest != nil {
		_ = a.rest.Close()
	}
	return errors.Join(errs...)
}
