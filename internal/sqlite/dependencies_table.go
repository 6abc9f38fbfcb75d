package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/cardtree/pkg/types"
)

// AddDependency records that to depends on from. Both cards must exist.
// The (from, to) primary key makes a repeated edge a no-op.
func (b *Backend) AddDependency(from, to types.CardID) error {
	db, release, err := b.writeDB()
	if err != nil {
		return err
	}
	defer release()

	for _, id := range []types.CardID{from, to} {
		ok, err := cardExists(db, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("card %s: %w", id, types.ErrNotFound)
		}
	}
	if _, err := db.Exec(
		"INSERT INTO dependencies (from_id, to_id, created_at) VALUES (?, ?, ?) ON CONFLICT (from_id, to_id) DO NOTHING",
		string(from), string(to), now(),
	); err != nil {
		return fmt.Errorf("inserting dependency: %w", err)
	}
	return nil
}

// DependenciesOf returns the cards id depends on, oldest edge first.
func (b *Backend) DependenciesOf(id types.CardID) ([]types.CardID, error) {
	return b.fetchIDs("SELECT from_id FROM dependencies WHERE to_id = ? ORDER BY rowid", id)
}

// CachedDependentsOf returns the cards that depend on id, oldest edge first.
func (b *Backend) CachedDependentsOf(id types.CardID) ([]types.CardID, error) {
	return b.fetchIDs("SELECT to_id FROM dependencies WHERE from_id = ? ORDER BY rowid", id)
}

func (b *Backend) fetchIDs(query string, id types.CardID) ([]types.CardID, error) {
	db, release, err := b.readDB()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.Query(query, string(id))
	if err != nil {
		return nil, fmt.Errorf("fetching dependencies: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]types.CardID, error) {
	var out []types.CardID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		out = append(out, types.CardID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ids: %w", err)
	}
	return out, nil
}
