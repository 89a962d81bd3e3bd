package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/feedme-app/feedme/internal/model"
)

// PurchaseStore keeps the history of finished shopping trips. Line items are
// stored as a JSON snapshot: history records are immutable and never joined.
type PurchaseStore struct {
	db *sql.DB
}

func NewPurchaseStore(db *sql.DB) *PurchaseStore {
	return &PurchaseStore{db: db}
}

func (s *PurchaseStore) Create(ownerID int64, items []model.PurchasedItem, totalSpent float64) (*model.CompletedPurchase, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal purchase items: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO completed_purchases (owner_id, items, total_spent) VALUES (?, ?, ?)`,
		ownerID, string(data), totalSpent,
	)
	if err != nil {
		return nil, fmt.Errorf("insert purchase: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PurchaseStore) GetByID(id int64) (*model.CompletedPurchase, error) {
	row := s.db.QueryRow(
		`SELECT id, owner_id, items, total_spent, purchased_at FROM completed_purchases WHERE id = ?`,
		id,
	)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	return p, nil
}

// ListByOwner returns the owner's most recent purchases, newest first.
func (s *PurchaseStore) ListByOwner(ownerID int64, limit int) ([]model.CompletedPurchase, error) {
	rows, err := s.db.Query(
		`SELECT id, owner_id, items, total_spent, purchased_at FROM completed_purchases
		 WHERE owner_id = ? ORDER BY purchased_at DESC, id DESC LIMIT ?`,
		ownerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []model.CompletedPurchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, *p)
	}
	return purchases, rows.Err()
}

func scanPurchase(scanner interface{ Scan(...any) error }) (*model.CompletedPurchase, error) {
	var p model.CompletedPurchase
	var items string
	if err := scanner.Scan(&p.ID, &p.OwnerID, &items, &p.TotalSpent, &p.PurchasedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &p.Items); err != nil {
		return nil, fmt.Errorf("unmarshal purchase items: %w", err)
	}
	return &p, nil
}
