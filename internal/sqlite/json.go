package sqlite

import "encoding/json"

// JSON record structures that mirror the JSONL file format. Each file holds
// one table, one record per line.

// collectionJSON is a line of collections.jsonl.
type collectionJSON struct {
	CollectionID string `json:"collection_id"`
	Name         string `json:"name"`
	CreatedAt    string `json:"created_at"`
}

// inheritanceJSON is a line of inheritance.jsonl. Ordinal orders the
// parents of one collection; lower ordinals are searched first.
type inheritanceJSON struct {
	CollectionID string `json:"collection_id"`
	ParentID     string `json:"parent_id"`
	Ordinal      int    `json:"ordinal"`
}

// modSettingJSON is a line of mod_settings.jsonl.
type modSettingJSON struct {
	CollectionID string   `json:"collection_id"`
	Mod          string   `json:"mod"`
	Enabled      bool     `json:"enabled"`
	Priority     int      `json:"priority"`
	Settings     []uint64 `json:"settings,omitempty"`
}

// assignmentJSON is a line of assignments.jsonl.
type assignmentJSON struct {
	Ordinal      int             `json:"ordinal"`
	Role         string          `json:"role"`
	CollectionID string          `json:"collection_id"`
	Identifiers  json.RawMessage `json:"identifiers,omitempty"`
}
