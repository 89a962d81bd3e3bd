// Package session tracks who is using the app right now. The active user is
// held in memory and mirrored to a durable single-slot record so a restart
// restores the session without re-authentication.
package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/feedme-app/feedme/internal/model"
	"github.com/feedme-app/feedme/internal/store"
)

// State is the session lifecycle: Restore on startup, Login/Logout from the
// auth flow. All list operations are gated on an active session.
type State struct {
	mu      sync.Mutex
	users   *store.UserStore
	slot    *store.SessionSlotStore
	current *model.User
	logger  *slog.Logger

	// OnChange is invoked after every session transition with the new user
	// (nil on logout). Set before first use; called outside the lock.
	OnChange func(*model.User)
}

func NewState(users *store.UserStore, slot *store.SessionSlotStore, logger *slog.Logger) *State {
	return &State{users: users, slot: slot, logger: logger}
}

// Restore reads the durable slot and re-validates the saved user against the
// store. A missing or stale record tears the session down (logout path); a
// valid one is adopted as current. Returns the restored user, or nil.
func (s *State) Restore() (*model.User, error) {
	s.mu.Lock()

	userID, ok, err := s.slot.Load()
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if !ok {
		s.current = nil
		s.mu.Unlock()
		s.notify(nil)
		return nil, nil
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if user == nil {
		// Saved user no longer exists: clear the slot and stay signed out.
		s.logger.Warn("session slot references missing user", "user_id", userID)
		if err := s.slot.Clear(); err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("restore session: %w", err)
		}
		s.current = nil
		s.mu.Unlock()
		s.notify(nil)
		return nil, nil
	}

	s.current = user
	s.mu.Unlock()
	s.logger.Info("session restored", "user_id", user.ID)
	s.notify(user)
	return user, nil
}

// Login adopts user as the current session and writes the durable slot.
func (s *State) Login(user *model.User) error {
	s.mu.Lock()
	if err := s.slot.Save(user.ID); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("login: %w", err)
	}
	s.current = user
	s.mu.Unlock()

	s.logger.Info("session started", "user_id", user.ID)
	s.notify(user)
	return nil
}

// Logout clears the durable slot and the current session.
func (s *State) Logout() error {
	s.mu.Lock()
	if err := s.slot.Clear(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("logout: %w", err)
	}
	s.current = nil
	s.mu.Unlock()

	s.logger.Info("session ended")
	s.notify(nil)
	return nil
}

// Current returns the signed-in user, or nil.
func (s *State) Current() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SignedIn reports whether a session is active.
func (s *State) SignedIn() bool {
	return s.Current() != nil
}

func (s *State) notify(user *model.User) {
	if s.OnChange != nil {
		s.OnChange(user)
	}
}
