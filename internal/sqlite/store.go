package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/wardrobe/pkg/types"
)

// timeFormat is fixed width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string { return t.UTC().Format(timeFormat) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// LoadCollections returns every collection ordered by creation time, with
// its parents in lookup order and its mod settings ordered by mod name.
func (b *Backend) LoadCollections() ([]types.CollectionRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	colls, err := b.queryCollections()
	if err != nil {
		return nil, err
	}
	out := make([]types.CollectionRecord, 0, len(colls))
	index := make(map[string]int, len(colls))
	for _, c := range colls {
		index[c.CollectionID] = len(out)
		out = append(out, types.CollectionRecord{ID: c.CollectionID, Name: c.Name, CreatedAt: parseTime(c.CreatedAt)})
	}

	parents, err := b.queryInheritance()
	if err != nil {
		return nil, err
	}
	for _, p := range parents {
		if i, ok := index[p.CollectionID]; ok {
			out[i].Inheritance = append(out[i].Inheritance, p.ParentID)
		}
	}

	settings, err := b.queryModSettings()
	if err != nil {
		return nil, err
	}
	for _, s := range settings {
		if i, ok := index[s.CollectionID]; ok {
			out[i].Settings = append(out[i].Settings, types.ModSettingRecord{
				Mod:      s.Mod,
				Enabled:  s.Enabled,
				Priority: s.Priority,
				Settings: s.Settings,
			})
		}
	}
	return out, nil
}

// SaveCollection creates or replaces a collection with its inheritance list
// and mod settings. Parents must already be stored.
func (b *Backend) SaveCollection(rec types.CollectionRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	if err := uuid.Validate(rec.ID); err != nil {
		return fmt.Errorf("save collection %q: %w", rec.ID, types.ErrInvalidID)
	}
	if rec.Name == "" {
		return fmt.Errorf("save collection %s: name is empty: %w", rec.ID, types.ErrInvalidRecord)
	}

	err := b.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO collections (collection_id, name, created_at) VALUES (?, ?, ?)
            ON CONFLICT(collection_id) DO UPDATE SET name = excluded.name`,
			rec.ID, rec.Name, formatTime(rec.CreatedAt)); err != nil {
			return fmt.Errorf("save collection %s: %w", rec.Name, err)
		}
		if _, err := tx.Exec(`DELETE FROM inheritance WHERE collection_id = ?`, rec.ID); err != nil {
			return fmt.Errorf("clear inheritance of %s: %w", rec.Name, err)
		}
		for i, parent := range rec.Inheritance {
			if _, err := tx.Exec(`INSERT INTO inheritance (collection_id, parent_id, ordinal) VALUES (?, ?, ?)`,
				rec.ID, parent, i); err != nil {
				return fmt.Errorf("save inheritance of %s from %s: %w", rec.Name, parent, err)
			}
		}
		if _, err := tx.Exec(`DELETE FROM mod_settings WHERE collection_id = ?`, rec.ID); err != nil {
			return fmt.Errorf("clear settings of %s: %w", rec.Name, err)
		}
		for _, s := range rec.Settings {
			values, err := json.Marshal(s.Settings)
			if err != nil {
				return fmt.Errorf("encode settings of %s: %w", s.Mod, err)
			}
			if _, err := tx.Exec(`INSERT INTO mod_settings (collection_id, mod, enabled, priority, settings) VALUES (?, ?, ?, ?, ?)`,
				rec.ID, s.Mod, s.Enabled, s.Priority, string(values)); err != nil {
				return fmt.Errorf("save settings of %s for %s: %w", rec.Name, s.Mod, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return b.persist(collectionsFile, inheritanceFile, modSettingsFile)
}

// DeleteCollection removes a collection, its settings and every
// inheritance edge that names it.
func (b *Backend) DeleteCollection(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	err := b.inTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM collections WHERE collection_id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete collection %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("delete collection %s: %w", id, types.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return b.persist(collectionsFile, inheritanceFile, modSettingsFile)
}

// LoadAssignments returns the assignments in the order they were saved.
func (b *Backend) LoadAssignments() ([]types.AssignmentRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	recs, err := b.queryAssignments()
	if err != nil {
		return nil, err
	}
	out := make([]types.AssignmentRecord, 0, len(recs))
	for _, a := range recs {
		out = append(out, types.AssignmentRecord{Role: a.Role, CollectionID: a.CollectionID, Identifiers: a.Identifiers})
	}
	return out, nil
}

// SaveAssignments replaces every stored assignment with recs.
func (b *Backend) SaveAssignments(recs []types.AssignmentRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	for _, rec := range recs {
		if rec.Role == "" {
			return fmt.Errorf("save assignment: role is empty: %w", types.ErrInvalidRecord)
		}
		if rec.Identifiers != nil && !json.Valid(rec.Identifiers) {
			return fmt.Errorf("save assignment %s: identifiers are not JSON: %w", rec.Role, types.ErrInvalidRecord)
		}
	}

	err := b.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM assignments`); err != nil {
			return fmt.Errorf("clear assignments: %w", err)
		}
		for i, rec := range recs {
			var ids any
			if rec.Identifiers != nil {
				ids = string(rec.Identifiers)
			}
			if _, err := tx.Exec(`INSERT INTO assignments (ordinal, role, collection_id, identifiers) VALUES (?, ?, ?, ?)`,
				i, rec.Role, rec.CollectionID, ids); err != nil {
				return fmt.Errorf("save assignment %s: %w", rec.Role, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return b.persist(assignmentsFile)
}

func (b *Backend) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// persist rewrites the named JSONL files from the database. A failed write
// leaves the file as it was; the next Attach reloads from the files.
func (b *Backend) persist(files ...string) error {
	for _, name := range files {
		var (
			records []json.RawMessage
			err     error
		)
		switch name {
		case collectionsFile:
			records, err = dump(b.queryCollections)
		case inheritanceFile:
			records, err = dump(b.queryInheritance)
		case modSettingsFile:
			records, err = dump(b.queryModSettings)
		case assignmentsFile:
			records, err = dump(b.queryAssignments)
		default:
			err = fmt.Errorf("unknown data file %s", name)
		}
		if err == nil {
			err = writeJSONL(b.dataPath(name), records)
		}
		if err != nil {
			return fmt.Errorf("persist %s: %w", name, err)
		}
	}
	return nil
}

func dump[T any](query func() ([]T, error)) ([]json.RawMessage, error) {
	values, err := query()
	if err != nil {
		return nil, err
	}
	return marshalJSONL(values)
}

func (b *Backend) queryCollections() ([]collectionJSON, error) {
	return queryRows(b.db, `SELECT collection_id, name, created_at FROM collections ORDER BY created_at, collection_id`,
		func(rows *sql.Rows) (collectionJSON, error) {
			var c collectionJSON
			err := rows.Scan(&c.CollectionID, &c.Name, &c.CreatedAt)
			return c, err
		})
}

func (b *Backend) queryInheritance() ([]inheritanceJSON, error) {
	return queryRows(b.db, `SELECT collection_id, parent_id, ordinal FROM inheritance ORDER BY collection_id, ordinal`,
		func(rows *sql.Rows) (inheritanceJSON, error) {
			var i inheritanceJSON
			err := rows.Scan(&i.CollectionID, &i.ParentID, &i.Ordinal)
			return i, err
		})
}

func (b *Backend) queryModSettings() ([]modSettingJSON, error) {
	return queryRows(b.db, `SELECT collection_id, mod, enabled, priority, settings FROM mod_settings ORDER BY collection_id, mod`,
		func(rows *sql.Rows) (modSettingJSON, error) {
			var s modSettingJSON
			var values sql.NullString
			if err := rows.Scan(&s.CollectionID, &s.Mod, &s.Enabled, &s.Priority, &values); err != nil {
				return s, err
			}
			if values.Valid && values.String != "" {
				if err := json.Unmarshal([]byte(values.String), &s.Settings); err != nil {
					return s, fmt.Errorf("decode settings of %s: %w", s.Mod, err)
				}
			}
			return s, nil
		})
}

func (b *Backend) queryAssignments() ([]assignmentJSON, error) {
	return queryRows(b.db, `SELECT ordinal, role, collection_id, identifiers FROM assignments ORDER BY ordinal`,
		func(rows *sql.Rows) (assignmentJSON, error) {
			var a assignmentJSON
			var ids sql.NullString
			if err := rows.Scan(&a.Ordinal, &a.Role, &a.CollectionID, &ids); err != nil {
				return a, err
			}
			if ids.Valid && ids.String != "" {
				a.Identifiers = json.RawMessage(ids.String)
			}
			return a, nil
		})
}

// queryRows runs query and scans every row with scan.
func queryRows[T any](db *sql.DB, query string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return out, nil
}
