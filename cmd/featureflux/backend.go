package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/BrendanKechtban/FeatureFlux/internal/db/migrations"
	"github.com/BrendanKechtban/FeatureFlux/pkg/broadcast"
	"github.com/BrendanKechtban/FeatureFlux/pkg/engine"
	"github.com/BrendanKechtban/FeatureFlux/pkg/httpserver"
	"github.com/BrendanKechtban/FeatureFlux/pkg/logger"
	"github.com/BrendanKechtban/FeatureFlux/pkg/pg"
	"github.com/BrendanKechtban/FeatureFlux/pkg/redis"
	"github.com/BrendanKechtban/FeatureFlux/pkg/store"
	"github.com/BrendanKechtban/FeatureFlux/pkg/store/postgres"
)

var errNATSDisconnected = errors.New("nats connection is not connected")

// backend owns the store and change feed connections of one process.
type backend struct {
	store   store.Store
	feed    broadcast.Broadcaster[engine.Change]
	checks  map[string]httpserver.CheckFunc
	closers []func() error
}

func (b *backend) onClose(fn func() error) {
	b.closers = append(b.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	b.closers = nil
	return errors.Join(errs...)
}

// openBackend connects the configured store and change feed. With migrate
// set, pending Postgres migrations are applied first.
func openBackend(ctx context.Context, cfg Config, log *slog.Logger, migrate bool) (_ *backend, err error) {
	b := &backend{checks: make(map[string]httpserver.CheckFunc)}
	defer func() {
		if err != nil {
			_ = b.Close()
		}
	}()

	if err := b.openStore(ctx, cfg, log, migrate); err != nil {
		return nil, err
	}
	if err := b.openFeed(ctx, cfg, log); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *backend) openStore(ctx context.Context, cfg Config, log *slog.Logger, migrate bool) error {
	if cfg.StoreDriver == storeMemory {
		log.WarnContext(ctx, "using in-memory store; state is lost on exit")
		b.store = store.NewMemory()
		b.checks["store"] = b.store.Ping
		return nil
	}

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	b.onClose(func() error { pool.Close(); return nil })

	db := pg.OpenDB(pool)
	if migrate {
		if err := pg.Migrate(ctx, db, migrations.FS, cfg.PG, log); err != nil {
			_ = db.Close()
			return err
		}
	}

	st := postgres.New(db)
	b.onClose(st.Close)
	b.store = st
	b.checks["store"] = st.Ping
	return nil
}

func (b *backend) openFeed(ctx context.Context, cfg Config, log *slog.Logger) error {
	log = log.With(logger.Component("change_feed"), slog.String("driver", cfg.ChangeFeed))

	switch cfg.ChangeFeed {
	case feedRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		b.onClose(client.Close)
		b.feed = broadcast.NewRedisBroadcaster[engine.Change](client, cfg.ChangeFeedSubject, broadcast.DefaultBufferSize)
		b.checks["change_feed"] = redis.Healthcheck(client)

	case feedNATS:
		nc, err := nats.Connect(cfg.NATSURL,
			nats.Name(cfg.AppName),
			nats.MaxReconnects(-1),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Warn("nats disconnected", logger.Error(err))
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				log.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
			}),
		)
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		b.onClose(nc.Drain)
		b.feed = broadcast.NewNATSBroadcaster[engine.Change](nc, cfg.ChangeFeedSubject, broadcast.DefaultBufferSize)
		b.checks["change_feed"] = func(context.Context) error {
			if !nc.IsConnected() {
				return errNATSDisconnected
			}
			return nil
		}

	default:
		b.feed = broadcast.NewMemoryBroadcaster[engine.Change](broadcast.DefaultBufferSize)
	}

	b.onClose(b.feed.Close)
	log.InfoContext(ctx, "change feed ready")
	return nil
}

// newEngine builds an engine over the backend's store and feed.
func newEngine(ctx context.Context, b *backend, cfg Config, log *slog.Logger) (*engine.Engine, error) {
	return engine.New(ctx, b.store,
		engine.WithLogger(log),
		engine.WithChangeFeed(b.feed),
		engine.WithResyncInterval(cfg.ResyncInterval),
	)
}
