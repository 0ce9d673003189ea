package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BrendanKechtban/FeatureFlux/pkg/actor"
	"github.com/BrendanKechtban/FeatureFlux/pkg/archive"
	"github.com/BrendanKechtban/FeatureFlux/pkg/httpserver"
	"github.com/BrendanKechtban/FeatureFlux/pkg/logger"
	"github.com/BrendanKechtban/FeatureFlux/pkg/pg"
	"github.com/BrendanKechtban/FeatureFlux/pkg/redis"
	"github.com/BrendanKechtban/FeatureFlux/pkg/requestid"
)

const (
	storeMemory   = "memory"
	storePostgres = "postgres"

	feedMemory = "memory"
	feedRedis  = "redis"
	feedNATS   = "nats"
)

// Config is the process configuration, read from the environment and .env.
type Config struct {
	AppName   string `env:"APP_NAME" envDefault:"featureflux"`
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`

	StoreDriver       string        `env:"STORE_DRIVER" envDefault:"memory"`
	ChangeFeed        string        `env:"CHANGE_FEED" envDefault:"memory"`
	NATSURL           string        `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	ChangeFeedSubject string        `env:"CHANGE_FEED_SUBJECT" envDefault:"featureflux.changes"`
	ResyncInterval    time.Duration `env:"RESYNC_INTERVAL" envDefault:"30s"`
	SeedFile          string        `env:"SEED_FILE"`

	HTTP    httpserver.Config
	PG      pg.Config
	Redis   redis.Config
	Archive archive.Config
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case storeMemory, storePostgres:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (must be memory or postgres)", c.StoreDriver)
	}
	switch c.ChangeFeed {
	case feedMemory, feedRedis, feedNATS:
	default:
		return fmt.Errorf("unknown CHANGE_FEED %q (must be memory, redis or nats)", c.ChangeFeed)
	}
	if c.StoreDriver == storeMemory && c.ChangeFeed != feedMemory {
		return fmt.Errorf("CHANGE_FEED=%s needs a shared store; set STORE_DRIVER=postgres", c.ChangeFeed)
	}
	return nil
}

func newLogger(c Config) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(c.AppEnv, c.AppName),
		logger.WithLevelName(c.LogLevel),
		logger.WithOutput(os.Stderr),
		logger.WithContextExtractors(requestid.LoggerExtractor(), actor.LoggerExtractor()),
	}
	if c.LogFormat != "" {
		opts = append(opts, logger.WithFormat(logger.Format(c.LogFormat)))
	}
	return logger.New(opts...)
}
