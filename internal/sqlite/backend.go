// Package sqlite persists collections and role assignments. JSONL files in
// the data directory are the source of truth; an SQLite database rebuilt
// from them on Attach serves queries and keeps related rows consistent.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/wardrobe/pkg/types"
)

// dbFile is the database file created in the data directory.
const dbFile = "wardrobe.db"

// Backend implements types.Store on SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	log      *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger. A nil logger selects slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.log = l
		}
	}
}

// NewBackend returns a detached backend.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{log: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With(slog.String("component", "sqlite"))
	return b
}

// Attach creates the data directory and JSONL files when missing, rebuilds
// the database and loads every JSONL file into it.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := initJSONLFiles(config.DataDir); err != nil {
		return err
	}

	dbPath := filepath.Join(config.DataDir, dbFile)
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale database: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return err
	}
	skipped, err := loadAllJSONL(db, config.DataDir)
	if err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}
	if skipped > 0 {
		b.log.Warn("skipped unreadable records", slog.Int("count", skipped), slog.String("data_dir", config.DataDir))
	}

	b.db = db
	b.config = config
	b.attached = true
	b.log.Debug("attached", slog.String("data_dir", config.DataDir))
	return nil
}

func createSchema(db *sql.DB) error {
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Detach closes the database. It is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	db := b.db
	b.db = nil
	if err := db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// dataPath returns the path of a JSONL file in the data directory.
func (b *Backend) dataPath(name string) string {
	return filepath.Join(b.config.DataDir, name)
}

var _ types.Store = (*Backend)(nil)
