package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dfryer1193/folio/blog/application"
	"github.com/dfryer1193/folio/blog/domain"
	"github.com/dfryer1193/folio/blog/persistence"
	"github.com/dfryer1193/folio/internal/config"
	"github.com/dfryer1193/folio/internal/logging"
	"github.com/dfryer1193/folio/shared/db/sqlite"
	"github.com/rs/zerolog/log"
)

// app holds everything a command needs, in the order it has to be torn down.
type app struct {
	cfg     *config.Config
	posts   *application.PostService
	coord   *application.SyncCoordinator
	monitor *application.Monitor

	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCloser, err := logging.Setup(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	a.closers = append(a.closers, logCloser.Close)

	local, err := a.openLocal()
	if err != nil {
		a.Close()
		return nil, err
	}

	remote, err := a.openRemote(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.coord = application.NewSyncCoordinator(ctx, local, remote, false)
	a.monitor = application.NewMonitor(remote, a.coord, cfg.CheckInterval, cfg.RemoteTimeout)

	var opts []application.Option
	if cfg.SeedSamplePosts {
		opts = append(opts, application.WithSeedPosts(application.SamplePosts))
	}
	a.posts = application.NewPostService(a.coord, opts...)
	a.closers = append(a.closers, a.posts.Close, a.monitor.Close)

	// Local first so the replay triggered by the first check can find queued posts.
	if err := a.posts.LoadAll(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load local posts: %w", err)
	}

	if remote != nil {
		if a.monitor.Check(ctx) {
			if err := a.posts.LoadAll(ctx); err != nil {
				a.Close()
				return nil, fmt.Errorf("failed to load posts: %w", err)
			}
		} else {
			log.Warn().Str("backend", cfg.RemoteBackend).Msg("Remote store unreachable at startup, serving local copy")
		}
	}

	log.Info().
		Int("posts", len(a.posts.All())).
		Str("backend", cfg.RemoteBackend).
		Bool("online", a.coord.Online()).
		Msg("Posts loaded")

	return a, nil
}

func (a *app) openLocal() (*persistence.LocalStore, error) {
	sqliteDB := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{Path: a.cfg.LocalDBPath})
	if err := sqliteDB.Connect(); err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	a.closers = append(a.closers, sqliteDB.Close)

	kv := persistence.NewSQLiteKeyValueStore(sqliteDB.DB())
	return persistence.NewLocalStore(kv, a.cfg.LocalQuotaBytes), nil
}

// openRemote returns a nil interface, not a typed nil, when no backend is configured.
func (a *app) openRemote(ctx context.Context) (domain.RemoteStore, error) {
	switch a.cfg.RemoteBackend {
	case config.BackendSupabase:
		store, err := persistence.NewSupabaseStore(persistence.SupabaseConfig{
			URL:        a.cfg.SupabaseURL,
			ServiceKey: a.cfg.SupabaseServiceKey,
			Table:      a.cfg.SupabaseTable,
			Timeout:    a.cfg.RemoteTimeout,
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.BackendPostgres:
		connectCtx, cancel := context.WithTimeout(ctx, a.cfg.RemoteTimeout)
		defer cancel()

		store, err := persistence.NewPostgresStore(connectCtx, a.cfg.DatabaseURL, a.cfg.SupabaseTable)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error {
			store.Close()
			return nil
		})
		if err := store.EnsureSchema(connectCtx); err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, nil
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
			log.Error().Err(err).Msg("Failed to close resource")
		}
	}
	a.closers = nil
	return firstErr
}

var _ io.Closer = (*app)(nil)
