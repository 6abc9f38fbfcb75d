package sqlite

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/cardtree/pkg/types"
)

func TestReadRecords(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantEdges   [][2]types.CardID
		wantSkipped int
	}{
		{
			name:    "empty file",
			content: "",
		},
		{
			name:      "records in order",
			content:   "{\"from_id\":\"a\",\"to_id\":\"b\"}\n{\"from_id\":\"b\",\"to_id\":\"a\"}\n",
			wantEdges: [][2]types.CardID{{"a", "b"}, {"b", "a"}},
		},
		{
			name:        "blank lines ignored, malformed lines skipped",
			content:     "{\"from_id\":\"a\",\"to_id\":\"b\"}\n\nnot json\n{\"from_id\":\"c\",\"to_id\":\"d\"}\n",
			wantEdges:   [][2]types.CardID{{"a", "b"}, {"c", "d"}},
			wantSkipped: 1,
		},
		{
			name:        "invalid rows skipped",
			content:     "{\"from_id\":\"a\"}\n{\"from_id\":7,\"to_id\":\"b\"}\n{\"from_id\":\"a\",\"to_id\":\"b\"}",
			wantEdges:   [][2]types.CardID{{"a", "b"}},
			wantSkipped: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "dependencies.jsonl")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			got, skipped, err := readRecords(path, decodeAs[dependencyRecord]())
			require.NoError(t, err)
			assert.Equal(t, tt.wantSkipped, skipped)

			var edges [][2]types.CardID
			for _, rec := range got {
				dep := rec.(*dependencyRecord)
				assert.NotEmpty(t, dep.CreatedAt, "missing timestamps are filled in")
				edges = append(edges, [2]types.CardID{dep.FromID, dep.ToID})
			}
			assert.Equal(t, tt.wantEdges, edges)
		})
	}
}

func TestReadRecordsMissingFile(t *testing.T) {
	_, _, err := readRecords(filepath.Join(t.TempDir(), "absent.jsonl"), decodeAs[cardRecord]())
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestCardRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		rec     cardRecord
		wantErr bool
	}{
		{"valid", cardRecord{CardID: "a", Kind: types.KindEvent, Payload: json.RawMessage(`{"front":"x"}`)}, false},
		{"no id", cardRecord{Kind: types.KindEvent, Payload: json.RawMessage(`{"front":"x"}`)}, true},
		{"unknown kind", cardRecord{CardID: "a", Kind: "mystery", Payload: json.RawMessage(`{}`)}, true},
		{"payload of wrong shape", cardRecord{CardID: "a", Kind: types.KindNormal, Payload: json.RawMessage(`[1]`)}, true},
		{"no payload", cardRecord{CardID: "a", Kind: types.KindStatement}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidData)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, tt.rec.CreatedAt)
			assert.Equal(t, tt.rec.CreatedAt, tt.rec.UpdatedAt)
		})
	}
}

func TestWriteRecordsReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dependencies.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"old\":true}\n"), 0o644))

	records := []snapshotRecord{
		&dependencyRecord{FromID: "a", ToID: "b", CreatedAt: "t1"},
		&dependencyRecord{FromID: "b", ToID: "c", CreatedAt: "t2"},
	}
	require.NoError(t, writeRecords(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"{\"from_id\":\"a\",\"to_id\":\"b\",\"created_at\":\"t1\"}\n{\"from_id\":\"b\",\"to_id\":\"c\",\"created_at\":\"t2\"}\n",
		string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}
