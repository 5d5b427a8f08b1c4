package api

import (
	"context"
	"fmt"
	"time"

	domainconfig "github.com/felixgeelhaar/vigil/domain/config"
	"github.com/felixgeelhaar/vigil/domain/memory"
	"github.com/felixgeelhaar/vigil/infrastructure/logging"
	"github.com/felixgeelhaar/vigil/infrastructure/storage/badger"
	memstore "github.com/felixgeelhaar/vigil/infrastructure/storage/memory"
	"github.com/felixgeelhaar/vigil/infrastructure/storage/postgres"
	"github.com/felixgeelhaar/vigil/infrastructure/storage/redis"
	"github.com/felixgeelhaar/vigil/infrastructure/storage/sqlite"
)

// DefaultBadgerDir is used when the badger backend names no directory.
const DefaultBadgerDir = ".vigil/history"

// MemoryStore is the conversational memory port.
type MemoryStore = memory.Store

// closeFunc releases a backend.
type closeFunc func(context.Context) error

func noClose(context.Context) error { return nil }

// OpenMemory creates the memory store selected by the configuration.
// The returned function releases its connections.
func OpenMemory(ctx context.Context, cfg MemoryConfig) (MemoryStore, func(context.Context) error, error) {
	store, closer, err := openMemory(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: memory backend %q: %w", ErrBuildFailed, cfg.Backend, err)
	}

	logging.Info().
		Add(logging.Component("memory")).
		Add(logging.Str("backend", backendName(cfg.Backend))).
		Msg("memory store ready")
	return store, closer, nil
}

func backendName(b string) string {
	if b == "" {
		return domainconfig.BackendMemory
	}
	return b
}

func openMemory(ctx context.Context, cfg MemoryConfig) (MemoryStore, closeFunc, error) {
	switch backendName(cfg.Backend) {
	case domainconfig.BackendMemory:
		return memstore.NewHistoryStore(), noClose, nil

	case domainconfig.BackendSQLite:
		opts := []sqlite.Option{sqlite.WithKeyPrefix(cfg.KeyPrefix)}
		if cfg.DSN != "" {
			opts = append(opts, sqlite.WithDSN(cfg.DSN))
		}
		s, err := sqlite.NewHistoryStore(sqlite.DefaultConfig(), opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, func(context.Context) error { return s.Close() }, nil

	case domainconfig.BackendRedis:
		opts := []redis.ConfigOption{redis.WithPassword(cfg.Password)}
		if cfg.Address != "" {
			opts = append(opts, redis.WithAddress(cfg.Address))
		}
		if cfg.KeyPrefix != "" {
			opts = append(opts, redis.WithKeyPrefix(cfg.KeyPrefix))
		}
		s, err := redis.NewHistoryStore(redis.DefaultConfig(), opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, func(context.Context) error { return s.Close() }, nil

	case domainconfig.BackendBadger:
		dir := cfg.Dir
		if dir == "" {
			dir = DefaultBadgerDir
		}
		s, err := badger.NewHistoryStore(badger.DefaultConfig(),
			badger.WithDir(dir),
			badger.WithKeyPrefix(cfg.KeyPrefix),
		)
		if err != nil {
			return nil, nil, err
		}
		return s, func(context.Context) error { return s.Close() }, nil

	case domainconfig.BackendPostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		var opts []postgres.ConfigOption
		if cfg.DSN != "" {
			opts = append(opts, postgres.WithDSN(cfg.DSN))
		}
		pool, err := postgres.NewPool(connectCtx, postgres.DefaultConfig(), opts...)
		if err != nil {
			return nil, nil, err
		}
		s := postgres.NewHistoryStore(pool, postgres.DefaultConfig().Schema)
		if err := s.Migrate(connectCtx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return s, func(context.Context) error { return s.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
