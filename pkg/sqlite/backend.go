// Package sqlite provides the public API for the SQLite deck backend.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/cardtree/internal/sqlite"
	"github.com/mesh-intelligence/cardtree/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	deck := sqlite.NewBackend(nil)
//	err := deck.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".deck-db",
//	})
//	defer deck.Detach()
func NewBackend(logger *zap.Logger) types.Deck {
	return sqlite.NewBackend(sqlite.WithLogger(logger))
}
