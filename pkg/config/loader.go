package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type cacheEntry struct {
	once  sync.Once
	value any
	err   error
}

var (
	cache        sync.Map // reflect.Type -> *cacheEntry
	dotenvLoaded sync.Once
)

func loadDotenv() {
	dotenvLoaded.Do(func() {
		// A missing .env file is fine; the process environment still applies.
		_ = godotenv.Load()
	})
}

// Load fills v from the environment. Each type is parsed once and later
// calls receive a copy of the cached value.
//
//	var cfg struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	loadDotenv()

	key := reflect.TypeFor[T]()
	raw, _ := cache.LoadOrStore(key, &cacheEntry{})
	entry := raw.(*cacheEntry)

	entry.once.Do(func() {
		var parsed T
		if err := env.Parse(&parsed); err != nil {
			entry.err = errors.Join(ErrParsingConfig, err)
			return
		}
		entry.value = parsed
	})
	if entry.err != nil {
		return entry.err
	}

	*v = entry.value.(T)
	return nil
}

// Parse fills v from the environment without caching.
func Parse[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	loadDotenv()
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
