package store

import (
	"database/sql"
	"fmt"

	"github.com/feedme-app/feedme/internal/model"
)

// Collection names one of the two item tables.
type Collection string

const (
	Pantry   Collection = "pantry_items"
	Shopping Collection = "shopping_items"
)

// ItemStore persists pantry and shopping items, keyed by id and indexed by
// owner. Both collections share one row shape.
type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

const itemCols = `id, name, quantity, unit, bought, price, owner_id, created_at`

func scanItem(scanner interface{ Scan(...any) error }) (*model.Item, error) {
	var item model.Item
	var price sql.NullFloat64

	err := scanner.Scan(
		&item.ID, &item.Name, &item.Quantity, &item.Unit,
		&item.Bought, &price, &item.OwnerID, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if price.Valid {
		item.Price = &price.Float64
	}
	return &item, nil
}

// Put inserts or fully replaces the item at its primary key and returns the
// stored record.
func (s *ItemStore) Put(c Collection, item model.Item) (*model.Item, error) {
	var price sql.NullFloat64
	if item.Price != nil {
		price = sql.NullFloat64{Float64: *item.Price, Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO `+string(c)+` (id, name, quantity, unit, bought, price, owner_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name, quantity = excluded.quantity, unit = excluded.unit,
		   bought = excluded.bought, price = excluded.price, owner_id = excluded.owner_id`,
		item.ID, item.Name, item.Quantity, item.Unit, item.Bought, price, item.OwnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("put %s: %w", c, err)
	}
	return s.Get(c, item.ID)
}

// Get returns the item at id, or nil if absent.
func (s *ItemStore) Get(c Collection, id int64) (*model.Item, error) {
	row := s.db.QueryRow(`SELECT `+itemCols+` FROM `+string(c)+` WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s item: %w", c, err)
	}
	return item, nil
}

// GetAllByOwner returns the owner's items in creation order (ascending id,
// which is what list positions mean in the views).
func (s *ItemStore) GetAllByOwner(c Collection, ownerID int64) ([]model.Item, error) {
	rows, err := s.db.Query(
		`SELECT `+itemCols+` FROM `+string(c)+` WHERE owner_id = ? ORDER BY id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s item: %w", c, err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Delete removes the item at id. Deleting an absent id is a no-op.
func (s *ItemStore) Delete(c Collection, id int64) error {
	_, err := s.db.Exec(`DELETE FROM `+string(c)+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s item: %w", c, err)
	}
	return nil
}
