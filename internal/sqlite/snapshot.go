package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/cardtree/pkg/types"
)

// snapshotTable ties a JSONL file to its table. Cards load before the
// tables that reference them.
type snapshotTable struct {
	file    string
	table   string
	columns []string
	decode  func(line []byte) (snapshotRecord, error)
	scan    func(row rowScanner) (snapshotRecord, error)
}

var snapshotTables = []snapshotTable{
	{
		file:    "cards.jsonl",
		table:   "cards",
		columns: []string{"card_id", "category", "kind", "payload", "created_at", "updated_at"},
		decode:  decodeAs[cardRecord](),
		scan: func(row rowScanner) (snapshotRecord, error) {
			var (
				r       cardRecord
				payload string
			)
			if err := row.Scan(&r.CardID, &r.Category, &r.Kind, &payload, &r.CreatedAt, &r.UpdatedAt); err != nil {
				return nil, err
			}
			r.Payload = []byte(payload)
			return &r, nil
		},
	},
	{
		file:    "attributes.jsonl",
		table:   "attributes",
		columns: []string{"attribute_id", "pattern", "class_id", "back_type", "created_at"},
		decode:  decodeAs[attributeRecord](),
		scan: func(row rowScanner) (snapshotRecord, error) {
			var (
				r        attributeRecord
				backType sql.NullString
			)
			if err := row.Scan(&r.AttributeID, &r.Pattern, &r.ClassID, &backType, &r.CreatedAt); err != nil {
				return nil, err
			}
			if backType.Valid {
				bt := types.CardID(backType.String)
				r.BackType = &bt
			}
			return &r, nil
		},
	},
	{
		file:    "dependencies.jsonl",
		table:   "dependencies",
		columns: []string{"from_id", "to_id", "created_at"},
		decode:  decodeAs[dependencyRecord](),
		scan: func(row rowScanner) (snapshotRecord, error) {
			var r dependencyRecord
			if err := row.Scan(&r.FromID, &r.ToID, &r.CreatedAt); err != nil {
				return nil, err
			}
			return &r, nil
		},
	},
}

// Export writes one JSONL file per table into dir. Each file is replaced
// atomically.
func (b *Backend) Export(dir string) error {
	db, release, err := b.readDB()
	if err != nil {
		return err
	}
	defer release()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	for _, st := range snapshotTables {
		records, err := st.records(db)
		if err != nil {
			return err
		}
		if err := writeRecords(filepath.Join(dir, st.file), records); err != nil {
			return fmt.Errorf("exporting %s: %w", st.table, err)
		}
		b.logger.Debug("table exported", zap.String("table", st.table), zap.Int("rows", len(records)))
	}
	return nil
}

// records reads every row of the table in insertion order.
func (st snapshotTable) records(db *sql.DB) ([]snapshotRecord, error) {
	rows, err := db.Query(fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(st.columns, ", "), st.table))
	if err != nil {
		return nil, fmt.Errorf("querying %s for export: %w", st.table, err)
	}
	defer rows.Close()

	var records []snapshotRecord
	for rows.Next() {
		rec, err := st.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", st.table, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s for export: %w", st.table, err)
	}
	return records, nil
}

// Import loads the JSONL files in dir into the store inside one
// transaction. Missing files count as empty. Rows whose key already exists
// are kept as they are; lines that are not valid rows, including cards
// whose kind or payload does not decode, are skipped. Any write failure
// aborts the import and nothing is stored.
func (b *Backend) Import(dir string) error {
	db, release, err := b.writeDB()
	if err != nil {
		return err
	}
	defer release()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning import transaction: %w", err)
	}
	defer tx.Rollback()

	for _, st := range snapshotTables {
		records, skipped, err := readRecords(filepath.Join(dir, st.file), st.decode)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", st.file, err)
		}
		n, err := st.insert(tx, records)
		if err != nil {
			return fmt.Errorf("importing %s into %s: %w", st.file, st.table, err)
		}
		b.logger.Debug("table imported",
			zap.String("table", st.table),
			zap.Int("rows", n),
			zap.Int("skipped", skipped))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing import transaction: %w", err)
	}
	return nil
}

// insert writes records into the table and returns how many rows were
// new. Existing keys are ignored; every other failure is returned.
func (st snapshotTable) insert(tx *sql.Tx, records []snapshotRecord) (int, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(st.columns)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT OR IGNORE INTO %s (%s) VALUES (%s)",
		st.table, strings.Join(st.columns, ", "), placeholders,
	))
	if err != nil {
		return 0, fmt.Errorf("preparing insert for %s: %w", st.table, err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		res, err := stmt.Exec(rec.values()...)
		if err != nil {
			return inserted, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, err
		}
		inserted += int(n)
	}
	return inserted, nil
}
