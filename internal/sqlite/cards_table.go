package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/cardtree/pkg/types"
)

const cardColumns = "card_id, category, kind, payload"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// hydrateCard converts a cards row into a *types.Card.
func hydrateCard(row rowScanner) (*types.Card, error) {
	var (
		c       types.Card
		kind    string
		payload string
	)
	if err := row.Scan(&c.ID, &c.Category, &kind, &payload); err != nil {
		return nil, err
	}
	t, err := types.DecodeType(types.Kind(kind), []byte(payload))
	if err != nil {
		return nil, fmt.Errorf("card %s: %w", c.ID, err)
	}
	c.Type = t
	return &c, nil
}

// Load retrieves a card by ID.
func (b *Backend) Load(id types.CardID) (*types.Card, error) {
	if id == types.NoCard {
		return nil, types.ErrInvalidID
	}
	db, release, err := b.readDB()
	if err != nil {
		return nil, err
	}
	defer release()

	c, err := hydrateCard(db.QueryRow("SELECT "+cardColumns+" FROM cards WHERE card_id = ?", string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("card %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting card %s: %w", id, err)
	}
	return c, nil
}

// Exists reports whether a card with the given id exists.
func (b *Backend) Exists(id types.CardID) (bool, error) {
	db, release, err := b.readDB()
	if err != nil {
		return false, err
	}
	defer release()
	return cardExists(db, id)
}

func cardExists(db *sql.DB, id types.CardID) (bool, error) {
	var one int
	err := db.QueryRow("SELECT 1 FROM cards WHERE card_id = ?", string(id)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking card existence: %w", err)
	}
	return true, nil
}

// AllCards returns every card in creation order.
func (b *Backend) AllCards() ([]*types.Card, error) {
	return b.fetchCards("SELECT " + cardColumns + " FROM cards ORDER BY rowid")
}

// AllClasses returns every Class card in creation order.
func (b *Backend) AllClasses() ([]*types.Card, error) {
	return b.fetchCards("SELECT "+cardColumns+" FROM cards WHERE kind = ? ORDER BY rowid", string(types.KindClass))
}

func (b *Backend) fetchCards(query string, args ...any) ([]*types.Card, error) {
	db, release, err := b.readDB()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching cards: %w", err)
	}
	defer rows.Close()

	var out []*types.Card
	for rows.Next() {
		c, err := hydrateCard(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating card: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cards: %w", err)
	}
	return out, nil
}

// MutateType replaces the payload of an existing card.
func (b *Backend) MutateType(id types.CardID, t types.CardType) error {
	kind, payload, err := types.EncodeType(t)
	if err != nil {
		return err
	}
	db, release, err := b.writeDB()
	if err != nil {
		return err
	}
	defer release()

	res, err := db.Exec(
		"UPDATE cards SET kind = ?, payload = ?, updated_at = ? WHERE card_id = ?",
		string(kind), string(payload), now(), string(id),
	)
	if err != nil {
		return fmt.Errorf("updating card %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating card %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("card %s: %w", id, types.ErrNotFound)
	}
	return nil
}

// CreateCard stores a new card under a fresh UUID v7.
func (b *Backend) CreateCard(t types.CardType, category string) (types.CardID, error) {
	kind, payload, err := types.EncodeType(t)
	if err != nil {
		return types.NoCard, err
	}
	db, release, err := b.writeDB()
	if err != nil {
		return types.NoCard, err
	}
	defer release()

	id := newUUID()
	ts := now()
	if _, err := db.Exec(
		"INSERT INTO cards (card_id, category, kind, payload, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		id, category, string(kind), string(payload), ts, ts,
	); err != nil {
		return types.NoCard, fmt.Errorf("inserting card: %w", err)
	}
	return types.CardID(id), nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
