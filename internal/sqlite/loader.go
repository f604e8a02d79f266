package sqlite

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// jsonlTableMapping maps each JSONL file to its table and columns. Tables
// with foreign keys load after the tables they reference.
var jsonlTableMapping = []struct {
	file    string
	table   string
	columns []string
}{
	{collectionsFile, "collections", []string{"collection_id", "name", "created_at"}},
	{inheritanceFile, "inheritance", []string{"collection_id", "parent_id", "ordinal"}},
	{modSettingsFile, "mod_settings", []string{"collection_id", "mod", "enabled", "priority", "settings"}},
	{assignmentsFile, "assignments", []string{"ordinal", "role", "collection_id", "identifiers"}},
}

// loadAllJSONL reads every JSONL file of dataDir into db in one
// transaction: either all files load or the database stays empty. Unknown
// fields are ignored; malformed lines and rows that violate a constraint
// are skipped and counted.
func loadAllJSONL(db *sql.DB, dataDir string) (skipped int, err error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin load: %w", err)
	}
	defer tx.Rollback()

	for _, m := range jsonlTableMapping {
		records, err := readJSONL(filepath.Join(dataDir, m.file))
		if err != nil {
			return 0, err
		}
		if len(records) == 0 {
			continue
		}
		n, err := insertRecords(tx, m.table, m.columns, records)
		if err != nil {
			return 0, fmt.Errorf("load %s into %s: %w", m.file, m.table, err)
		}
		skipped += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit load: %w", err)
	}
	return skipped, nil
}

// insertRecords inserts records into table, taking only the named columns.
// Objects and arrays are stored as their JSON text. Numbers keep their exact
// decimal form so 64-bit option masks survive the round trip.
func insertRecords(tx *sql.Tx, table string, columns []string, records []json.RawMessage) (skipped int, err error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		dec := json.NewDecoder(bytes.NewReader(rec))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			skipped++
			continue
		}
		args := make([]any, len(columns))
		for i, col := range columns {
			switch v := obj[col].(type) {
			case map[string]any, []any:
				b, err := json.Marshal(v)
				if err != nil {
					continue
				}
				args[i] = string(b)
			case json.Number:
				args[i] = v.String()
			default:
				args[i] = v
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			skipped++
		}
	}
	return skipped, nil
}
