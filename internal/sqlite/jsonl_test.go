package sqlite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSONL(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "one record per line",
			content: "{\"a\":1}\n{\"a\":2}\n",
			want:    []string{`{"a":1}`, `{"a":2}`},
		},
		{
			name:    "empty lines skipped",
			content: "\n{\"a\":1}\n\n\n{\"a\":2}",
			want:    []string{`{"a":1}`, `{"a":2}`},
		},
		{
			name:    "malformed lines skipped",
			content: "{\"a\":1}\n{not json\n{\"a\":3}\n",
			want:    []string{`{"a":1}`, `{"a":3}`},
		},
		{
			name:    "empty file",
			content: "",
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data.jsonl")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			got, err := readJSONL(path)
			require.NoError(t, err)
			var lines []string
			for _, r := range got {
				lines = append(lines, string(r))
			}
			assert.Equal(t, tt.want, lines)
		})
	}
}

func TestReadJSONLMissingFile(t *testing.T) {
	got, err := readJSONL(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteJSONLReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"old\":true}\n"), 0o644))

	records := []json.RawMessage{json.RawMessage(`{"key":"value1"}`), json.RawMessage(`{"key":"value2"}`)}
	require.NoError(t, writeJSONL(path, records))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"key\":\"value1\"}\n{\"key\":\"value2\"}\n", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temporary file %s left behind", e.Name())
	}
}

func TestWriteJSONLMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "data.jsonl")
	assert.Error(t, writeJSONL(path, nil))
}

func TestMarshalJSONLIsCompact(t *testing.T) {
	lines, err := marshalJSONL([]collectionJSON{{CollectionID: "id", Name: "Base", CreatedAt: "2026-01-01T00:00:00.000000000Z"}})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.NotContains(t, string(lines[0]), "\n")
	assert.Equal(t, `{"collection_id":"id","name":"Base","created_at":"2026-01-01T00:00:00.000000000Z"}`, string(lines[0]))
}
