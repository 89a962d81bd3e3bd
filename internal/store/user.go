package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/feedme-app/feedme/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var pwUpdated sql.NullTime
	err := scanner.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &pwUpdated, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if pwUpdated.Valid {
		u.PasswordUpdatedAt = &pwUpdated.Time
	}
	return &u, nil
}

const userCols = `id, name, email, password_hash, password_updated_at, created_at`

// Create inserts a user under the given id (a millisecond timestamp assigned
// by the caller). The schema rejects emails that already exist under any
// casing.
func (s *UserStore) Create(id int64, name, email, passwordHash string) (*model.User, error) {
	_, err := s.db.Exec(
		`INSERT INTO users (id, name, email, password_hash) VALUES (?, ?, ?, ?)`,
		id, name, email, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByEmail looks a user up case-insensitively: User(email="Foo@Bar.com") is
// found by "foo@bar.com".
func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE lower(email) = lower(?)`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// UpdatePassword replaces the stored hash and stamps password_updated_at.
func (s *UserStore) UpdatePassword(id int64, passwordHash string) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET password_hash = ?, password_updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
