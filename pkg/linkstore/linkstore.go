// Package linkstore is the public factory for link storage backends. It
// validates a types.Config and opens the backend it names while keeping the
// implementations internal.
package linkstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/linknav/internal/graphstore"
	"github.com/mesh-intelligence/linknav/internal/kvstore"
	"github.com/mesh-intelligence/linknav/internal/memory"
	"github.com/mesh-intelligence/linknav/internal/sqlstore"
	"github.com/mesh-intelligence/linknav/pkg/types"
)

// Porter is implemented by backends that can dump and load every tenant's
// links as JSON Lines.
type Porter interface {
	ExportJSONL(ctx context.Context, path string) (int, error)
	ImportJSONL(ctx context.Context, path string) (int, error)
}

// Open validates cfg and opens the backend. A nil log disables logging.
//
// Example:
//
//	store, err := linkstore.Open(ctx, types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "/var/lib/linknav",
//	}, log)
//	defer store.Close()
func Open(ctx context.Context, cfg types.Config, log *zap.Logger) (types.LinkStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		store types.LinkStore
		err   error
	)
	switch cfg.Backend {
	case types.BackendMemory:
		store = memory.New()
	case types.BackendSQLite:
		store, err = sqlstore.OpenSQLite(ctx, cfg.DataDir)
	case types.BackendPostgres:
		store, err = sqlstore.OpenPostgres(ctx, cfg.Postgres.DSN)
	case types.BackendNeo4j:
		store, err = graphstore.Open(ctx, cfg.Neo4j)
	case types.BackendRedis:
		store, err = kvstore.Open(ctx, cfg.Redis)
	default:
		return nil, types.ErrBackendUnknown
	}
	if err != nil {
		log.Error("open link store", zap.String("backend", cfg.Backend), zap.Error(err))
		return nil, fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}

	log.Debug("link store opened", zap.String("backend", cfg.Backend))
	return store, nil
}
