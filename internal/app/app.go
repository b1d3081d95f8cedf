// Package app wires configuration, stores, services and the HTTP router into
// a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/99minutos/identity-service/internal/api"
	"github.com/99minutos/identity-service/internal/api/handler"
	"github.com/99minutos/identity-service/internal/core/ports"
	"github.com/99minutos/identity-service/internal/core/service"
	"github.com/99minutos/identity-service/internal/infrastructure/config"
	"github.com/99minutos/identity-service/internal/infrastructure/db/memory"
	"github.com/99minutos/identity-service/internal/infrastructure/db/mongo"
	"github.com/99minutos/identity-service/internal/infrastructure/db/redis"
	"github.com/99minutos/identity-service/internal/infrastructure/queue"
)

const (
	janitorInterval   = time.Minute
	readHeaderTimeout = 5 * time.Second
)

// ErrResetForbidden is returned by Reset when the service runs in production.
var ErrResetForbidden = errors.New("reset is disabled in production")

// App is a fully wired identity service.
type App struct {
	cfg    *config.Config
	log    zerolog.Logger
	router *echo.Echo

	users    ports.UserRepository
	sessions *service.SessionStore
	audit    ports.AuditRepository

	dispatcher *queue.Dispatcher
	janitor    *memory.SessionRepository
	failures   *memory.LoginThrottle
	closers    []func(context.Context) error
}

// New connects the configured backends and builds the service graph. On
// error every connection opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			_ = a.Close(ctx)
		}
	}()

	var (
		db     *mongodriver.Database
		rdb    *goredis.Client
		checks []handler.DependencyCheck
	)

	if cfg.StoreBackend == config.BackendMongo || cfg.SessionBackend == config.BackendMongo {
		client, database, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		db = database
		a.closers = append(a.closers, client.Disconnect)
		checks = append(checks, handler.DependencyCheck{
			Name: "mongodb",
			Ping: func(ctx context.Context) error { return client.Ping(ctx, nil) },
		})
	}

	if cfg.SessionBackend == config.BackendRedis {
		client, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		rdb = client
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		checks = append(checks, handler.DependencyCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	}

	var indexed []mongo.IndexedRepository

	switch cfg.StoreBackend {
	case config.BackendMongo:
		users := mongo.NewUserRepository(db)
		a.users = users
		a.audit = mongo.NewAuditRepository(db)
		indexed = append(indexed, users)
	default:
		a.users = memory.NewUserRepository()
		a.audit = memory.NewAuditRepository()
	}

	var (
		sessionRepo ports.SessionRepository
		throttle    ports.LoginThrottle
	)
	switch cfg.SessionBackend {
	case config.BackendRedis:
		sessionRepo = redis.NewSessionRepository(rdb)
		throttle = redis.NewLoginThrottle(rdb, cfg.Auth.LoginMaxFailures, cfg.Auth.LoginFailureWindow)
	case config.BackendMongo:
		sessions := mongo.NewSessionRepository(db)
		sessionRepo = sessions
		indexed = append(indexed, sessions)
	default:
		a.janitor = memory.NewSessionRepository()
		sessionRepo = a.janitor
	}
	if throttle == nil {
		a.failures = memory.NewLoginThrottle(cfg.Auth.LoginMaxFailures, cfg.Auth.LoginFailureWindow)
		throttle = a.failures
	}

	if err := mongo.EnsureIndexes(ctx, indexed...); err != nil {
		return nil, err
	}

	a.sessions = service.NewSessionStore(sessionRepo)

	var opts []service.AuthOption
	if cfg.Auth.LoginMaxFailures > 0 {
		opts = append(opts, service.WithLoginThrottle(throttle))
	}
	if cfg.Audit.Enabled {
		a.dispatcher = queue.NewDispatcher(cfg.Audit.Workers, a.audit, log.With().Str("component", "audit").Logger())
		a.dispatcher.Start(context.WithoutCancel(ctx))
		opts = append(opts, service.WithAuditPublisher(a.dispatcher))
	}

	authService := service.NewAuthService(
		a.users,
		a.sessions,
		service.NewBcryptHasher(cfg.Auth.BcryptCost),
		service.AuthPolicy{
			SessionTTL:        cfg.Auth.SessionTTL,
			MinPasswordLength: cfg.Auth.PasswordMinLength,
		},
		log.With().Str("component", "auth").Logger(),
		opts...,
	)

	a.router = api.NewRouter(api.RouterDeps{
		Auth:               authService,
		Log:                log,
		Checks:             checks,
		ListUsersAdminOnly: cfg.Auth.ListUsersAdminOnly,
	})

	return a, nil
}

// Handler exposes the HTTP router.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves HTTP until ctx is cancelled, then shuts the server down within
// the configured timeout.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.cfg.ShutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	if a.janitor != nil || a.failures != nil {
		g.Go(func() error {
			a.runJanitor(gctx)
			return nil
		})
	}

	return g.Wait()
}

// runJanitor periodically drops expired in-memory state until ctx is done.
// Redis and Mongo expire their records on their own.
func (a *App) runJanitor(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a.purgeExpired(now)
		}
	}
}

func (a *App) purgeExpired(now time.Time) {
	if a.janitor != nil {
		if n := a.janitor.PurgeExpired(now); n > 0 {
			a.log.Debug().Int("purged", n).Msg("expired sessions removed")
		}
	}
	if a.failures != nil {
		if n := a.failures.PurgeExpired(now); n > 0 {
			a.log.Debug().Int("purged", n).Msg("expired login failure windows removed")
		}
	}
}

// Reset deletes every user, session and audit event. It refuses to run in
// production.
func (a *App) Reset(ctx context.Context) error {
	if a.cfg.IsProduction() {
		return ErrResetForbidden
	}

	if err := a.users.Clear(ctx); err != nil {
		return fmt.Errorf("reset users: %w", err)
	}
	if err := a.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("reset sessions: %w", err)
	}
	if err := a.audit.Clear(ctx); err != nil {
		return fmt.Errorf("reset audit events: %w", err)
	}

	a.log.Warn().Str("env", a.cfg.Env).Msg("identity stores reset")
	return nil
}

// Close drains the audit dispatcher and closes backend connections.
func (a *App) Close(ctx context.Context) error {
	if a.dispatcher != nil {
		a.dispatcher.Close()
		a.dispatcher = nil
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
