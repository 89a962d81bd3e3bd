package store

import (
	"database/sql"
	"fmt"
	"time"
)

// SessionSlotStore is the durable single-slot cache of the signed-in user.
// There is at most one row; saving overwrites it.
type SessionSlotStore struct {
	db *sql.DB
}

func NewSessionSlotStore(db *sql.DB) *SessionSlotStore {
	return &SessionSlotStore{db: db}
}

// Save records userID as the current session, replacing any previous slot.
func (s *SessionSlotStore) Save(userID int64) error {
	_, err := s.db.Exec(
		`INSERT INTO session_slot (id, user_id, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, saved_at = excluded.saved_at`,
		userID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save session slot: %w", err)
	}
	return nil
}

// Load returns the saved user id, or (0, false) when the slot is empty.
func (s *SessionSlotStore) Load() (int64, bool, error) {
	var userID int64
	err := s.db.QueryRow(`SELECT user_id FROM session_slot WHERE id = 1`).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load session slot: %w", err)
	}
	return userID, true, nil
}

// Clear empties the slot. Clearing an empty slot is a no-op.
func (s *SessionSlotStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM session_slot WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("clear session slot: %w", err)
	}
	return nil
}
