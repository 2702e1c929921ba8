// Package storage opens the save record backend selected by configuration.
package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/incremental/internal/config"
	"github.com/cory-johannsen/incremental/internal/savegame"
	"github.com/cory-johannsen/incremental/internal/storage/memory"
	"github.com/cory-johannsen/incremental/internal/storage/postgres"
	"github.com/cory-johannsen/incremental/internal/storage/sqlite"
)

// Store is a save record backend.
type Store interface {
	savegame.Storage
	// Keys lists the stored keys with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
	_ Store = (*postgres.SaveStore)(nil)
)

// Open returns the backend named by cfg.Storage.Backend.
//
// Precondition: cfg has passed Validate.
// Postcondition: the caller owns the returned Store and must Close it.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		s = memory.New()
	case config.BackendSQLite:
		s, err = sqlite.Open(cfg.Storage.SQLitePath)
	case config.BackendPostgres:
		s, err = postgres.Open(ctx, cfg.Database)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}
	logger.Info("storage opened",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("key_prefix", cfg.Storage.KeyPrefix),
	)
	return s, nil
}

// Unlisted returns the keys under prefix that are not one of the slot1..slotN
// records a slot listing reports, such as slots beyond a lowered max_slots.
//
// Postcondition: the result is sorted; storage errors are returned.
func Unlisted(ctx context.Context, s Store, prefix string, maxSlots int) ([]string, error) {
	keys, err := s.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing keys under %q: %w", prefix, err)
	}
	listed := make([]string, 0, maxSlots)
	for i := 1; i <= maxSlots; i++ {
		listed = append(listed, prefix+savegame.SlotID(i))
	}
	var out []string
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) || slices.Contains(listed, k) {
			continue
		}
		out = append(out, k)
	}
	return out, nil
}
