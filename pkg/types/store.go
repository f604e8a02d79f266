package types

import (
	"encoding/json"
	"errors"
	"time"
)

// Store persists collections and role assignments. Callers attach to a
// backend, load and save records, and detach when done.
type Store interface {
	// Attach connects the Store to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, every other operation returns ErrStoreDetached.
	Detach() error

	// LoadCollections returns every persisted collection ordered by
	// creation time.
	LoadCollections() ([]CollectionRecord, error)

	// SaveCollection creates or replaces the collection with rec.ID,
	// including its inheritance list and mod settings.
	SaveCollection(rec CollectionRecord) error

	// DeleteCollection removes a collection and everything stored for it.
	// Returns ErrNotFound if the id is unknown.
	DeleteCollection(id string) error

	// LoadAssignments returns the role and individual assignments in the
	// order they were saved.
	LoadAssignments() ([]AssignmentRecord, error)

	// SaveAssignments replaces every stored assignment with recs.
	SaveAssignments(recs []AssignmentRecord) error
}

// CollectionRecord is the persisted form of a collection.
type CollectionRecord struct {
	ID        string    `json:"collection_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	// Inheritance lists the ids of inherited collections in lookup order.
	Inheritance []string           `json:"inheritance,omitempty"`
	Settings    []ModSettingRecord `json:"settings,omitempty"`
}

// ModSettingRecord is one collection's configuration of one mod.
type ModSettingRecord struct {
	Mod      string   `json:"mod"`
	Enabled  bool     `json:"enabled"`
	Priority int      `json:"priority"`
	Settings []uint64 `json:"settings,omitempty"`
}

// AssignmentRecord maps a role to a collection. Individual assignments carry
// the assigned actor identifiers as an opaque JSON array.
type AssignmentRecord struct {
	Role         string          `json:"role"`
	CollectionID string          `json:"collection_id"`
	Identifiers  json.RawMessage `json:"identifiers,omitempty"`
}

// Store lifecycle and lookup errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrNotFound        = errors.New("not found")
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidRecord   = errors.New("invalid record")
)
