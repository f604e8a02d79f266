// Package sqlite provides the public factory for the SQLite store while
// keeping implementation details internal.
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/wardrobe/internal/sqlite"
	"github.com/mesh-intelligence/wardrobe/pkg/types"
)

// NewBackend returns a detached SQLite store. Call Attach with a Config to
// load the data directory.
//
// Example:
//
//	store := sqlite.NewBackend(nil)
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".wardrobe",
//	})
//	defer store.Detach()
func NewBackend(log *slog.Logger) types.Store {
	return sqlite.NewBackend(sqlite.WithLogger(log))
}
