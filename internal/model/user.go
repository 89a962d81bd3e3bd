package model

import "time"

type User struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	PasswordUpdatedAt *time.Time `json:"password_updated_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}
