package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/cardtree/pkg/types"
)

const attributeColumns = "attribute_id, pattern, class_id, back_type"

func hydrateAttribute(row rowScanner) (*types.Attribute, error) {
	var (
		a        types.Attribute
		backType sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Pattern, &a.Class, &backType); err != nil {
		return nil, err
	}
	if backType.Valid {
		a.BackType = types.CardID(backType.String)
	}
	return &a, nil
}

// CreateAttribute stores a new pattern under a fresh UUID v7.
func (b *Backend) CreateAttribute(pattern string, class, backType types.CardID) (types.AttributeID, error) {
	if pattern == "" || class == types.NoCard {
		return "", types.ErrInvalidData
	}
	db, release, err := b.writeDB()
	if err != nil {
		return "", err
	}
	defer release()

	var bt sql.NullString
	if backType != types.NoCard {
		bt = sql.NullString{String: string(backType), Valid: true}
	}
	id := newUUID()
	if _, err := db.Exec(
		"INSERT INTO attributes (attribute_id, pattern, class_id, back_type, created_at) VALUES (?, ?, ?, ?, ?)",
		id, pattern, string(class), bt, now(),
	); err != nil {
		return "", fmt.Errorf("inserting attribute: %w", err)
	}
	return types.AttributeID(id), nil
}

// LoadAttribute retrieves a pattern by ID.
func (b *Backend) LoadAttribute(id types.AttributeID) (*types.Attribute, error) {
	db, release, err := b.readDB()
	if err != nil {
		return nil, err
	}
	defer release()

	a, err := hydrateAttribute(db.QueryRow("SELECT "+attributeColumns+" FROM attributes WHERE attribute_id = ?", string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("attribute %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting attribute %s: %w", id, err)
	}
	return a, nil
}

// AttributesOfClass returns the patterns declared exactly on class, in
// creation order.
func (b *Backend) AttributesOfClass(class types.CardID) ([]*types.Attribute, error) {
	db, release, err := b.readDB()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.Query("SELECT "+attributeColumns+" FROM attributes WHERE class_id = ? ORDER BY rowid", string(class))
	if err != nil {
		return nil, fmt.Errorf("fetching attributes: %w", err)
	}
	defer rows.Close()

	var out []*types.Attribute
	for rows.Next() {
		a, err := hydrateAttribute(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating attribute: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attributes: %w", err)
	}
	return out, nil
}
