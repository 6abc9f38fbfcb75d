package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/cardtree/pkg/types"
)

// maxLineBytes bounds a single snapshot line.
const maxLineBytes = 4 << 20

// snapshotRecord is one row of a snapshot file.
type snapshotRecord interface {
	// validate reports whether the row can be stored and read back.
	validate() error
	// values returns the column values in the order of the table's columns.
	values() []any
}

// cardRecord is a cards row. The payload is kept as raw JSON so the
// snapshot stays readable.
type cardRecord struct {
	CardID    types.CardID    `json:"card_id"`
	Category  string          `json:"category"`
	Kind      types.Kind      `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

func (r *cardRecord) validate() error {
	if r.CardID == types.NoCard {
		return fmt.Errorf("card without id: %w", types.ErrInvalidData)
	}
	if _, err := types.DecodeType(r.Kind, r.Payload); err != nil {
		return fmt.Errorf("card %s: %w", r.CardID, err)
	}
	stamp(&r.CreatedAt)
	if r.UpdatedAt == "" {
		r.UpdatedAt = r.CreatedAt
	}
	return nil
}

func (r *cardRecord) values() []any {
	return []any{string(r.CardID), r.Category, string(r.Kind), string(r.Payload), r.CreatedAt, r.UpdatedAt}
}

// attributeRecord is an attributes row. BackType is nil for patterns that
// accept any answer.
type attributeRecord struct {
	AttributeID types.AttributeID `json:"attribute_id"`
	Pattern     string            `json:"pattern"`
	ClassID     types.CardID      `json:"class_id"`
	BackType    *types.CardID     `json:"back_type"`
	CreatedAt   string            `json:"created_at"`
}

func (r *attributeRecord) validate() error {
	switch {
	case r.AttributeID == "":
		return fmt.Errorf("attribute without id: %w", types.ErrInvalidData)
	case r.Pattern == "" || r.ClassID == types.NoCard:
		return fmt.Errorf("attribute %s needs a pattern and a class: %w", r.AttributeID, types.ErrInvalidData)
	}
	if r.BackType != nil && *r.BackType == types.NoCard {
		r.BackType = nil
	}
	stamp(&r.CreatedAt)
	return nil
}

func (r *attributeRecord) values() []any {
	var backType any
	if r.BackType != nil {
		backType = string(*r.BackType)
	}
	return []any{string(r.AttributeID), r.Pattern, string(r.ClassID), backType, r.CreatedAt}
}

// dependencyRecord is a dependencies row: To depends on From.
type dependencyRecord struct {
	FromID    types.CardID `json:"from_id"`
	ToID      types.CardID `json:"to_id"`
	CreatedAt string       `json:"created_at"`
}

func (r *dependencyRecord) validate() error {
	if r.FromID == types.NoCard || r.ToID == types.NoCard {
		return fmt.Errorf("dependency %q -> %q: %w", r.FromID, r.ToID, types.ErrInvalidData)
	}
	stamp(&r.CreatedAt)
	return nil
}

func (r *dependencyRecord) values() []any {
	return []any{string(r.FromID), string(r.ToID), r.CreatedAt}
}

func stamp(ts *string) {
	if *ts == "" {
		*ts = now()
	}
}

// readRecords decodes every line of a snapshot file with decode. Blank
// lines are ignored; lines that are not JSON, or that decode or validate
// fails on, are counted as skipped.
func readRecords(path string, decode func(line []byte) (snapshotRecord, error)) ([]snapshotRecord, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var (
		records []snapshotRecord
		skipped int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		rec, err := decode(line)
		if err == nil {
			err = rec.validate()
		}
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, skipped, nil
}

// decodeAs returns a decoder for readRecords producing records of type R.
func decodeAs[R any, P interface {
	*R
	snapshotRecord
}]() func([]byte) (snapshotRecord, error) {
	return func(line []byte) (snapshotRecord, error) {
		var rec R
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, err
		}
		return P(&rec), nil
	}
}

// writeRecords replaces path with one JSON line per record. The file is
// written to a temporary sibling, synced and renamed into place.
func writeRecords(path string, records []snapshotRecord) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
