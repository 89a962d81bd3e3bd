// Package list implements the pantry and shopping-list operations. The store
// is the source of truth: every mutation is followed by a fresh read-back, and
// the reloaded collection is pushed to the change sink.
package list

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/feedme-app/feedme/internal/model"
	"github.com/feedme-app/feedme/internal/session"
	"github.com/feedme-app/feedme/internal/store"
)

// Location names one of the two user-facing lists.
type Location string

const (
	Pantry   Location = "pantry"
	Shopping Location = "shopping"
)

func (l Location) collection() store.Collection {
	if l == Shopping {
		return store.Shopping
	}
	return store.Pantry
}

var (
	// ErrNoSession is returned by every operation when nobody is signed in.
	ErrNoSession = errors.New("no active session")
	// ErrNotFound is returned when the addressed item does not exist or does
	// not belong to the signed-in user.
	ErrNotFound = errors.New("item not found")
)

// ValidationError reports a rejected input field, caught before any store
// call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UndoWindow is how long a pantry removal can be taken back.
const UndoWindow = 3 * time.Second

// PendingMove is the single undo slot: a snapshot of the most recent
// pantry-to-shopping move. Arming overwrites any previous value (last write
// wins, never queued).
type PendingMove struct {
	Snapshot   model.Item // the removed pantry item, original id preserved
	ShoppingID int64      // id of the copy inserted into the shopping list
	ExpiresAt  time.Time
}

// Controller runs all mutating operations on the two collections. Items are
// addressed by durable id, resolved against current store state at call time;
// a stale id is a benign not-found. Operations from concurrent gestures
// serialize on the controller lock.
type Controller struct {
	mu     sync.Mutex
	items  *store.ItemStore
	state  *session.State
	logger *slog.Logger

	window    time.Duration
	pending   *PendingMove
	undoTimer *time.Timer

	// OnChange receives the freshly reloaded collection after every
	// mutation. Set before first use.
	OnChange func(Location, []model.Item)
}

func NewController(items *store.ItemStore, state *session.State, logger *slog.Logger) *Controller {
	return &Controller{
		items:  items,
		state:  state,
		logger: logger,
		window: UndoWindow,
	}
}

// Load returns the signed-in user's collection. Without a session it yields
// an empty view rather than an error.
func (c *Controller) Load(loc Location) ([]model.Item, error) {
	owner := c.state.Current()
	if owner == nil {
		return nil, nil
	}
	items, err := c.items.GetAllByOwner(loc.collection(), owner.ID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", loc, err)
	}
	return items, nil
}

// AddPantryItem validates the fields, normalizes the name casing, assigns a
// fresh timestamp id and writes the item to the pantry.
func (c *Controller) AddPantryItem(name string, quantity int, unit model.Unit) (*model.Item, error) {
	owner := c.state.Current()
	if owner == nil {
		return nil, ErrNoSession
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}
	if !model.ValidUnit(unit) {
		return nil, &ValidationError{Field: "unit", Reason: "unknown unit code"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	item := model.Item{
		ID:       model.NewID(),
		Name:     normalizeName(name),
		Quantity: quantity,
		Unit:     unit,
		OwnerID:  owner.ID,
	}
	stored, err := c.items.Put(store.Pantry, item)
	if err != nil {
		return nil, fmt.Errorf("add pantry item: %w", err)
	}
	c.reload(Pantry, owner.ID)
	return stored, nil
}

// Increment raises the item's quantity by one.
func (c *Controller) Increment(loc Location, id int64) error {
	owner := c.state.Current()
	if owner == nil {
		return ErrNoSession
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	item, err := c.ownedItem(loc, id, owner.ID)
	if err != nil {
		return err
	}
	item.Quantity++
	if _, err := c.items.Put(loc.collection(), *item); err != nil {
		return fmt.Errorf("increment: %w", err)
	}
	c.reload(loc, owner.ID)
	return nil
}

// Decrement lowers the item's quantity by one. At quantity 1 the decrement
// routes through the removal path instead, so quantities never go negative.
func (c *Controller) Decrement(loc Location, id int64) error {
	owner := c.state.Current()
	if owner == nil {
		return ErrNoSession
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	item, err := c.ownedItem(loc, id, owner.ID)
	if err != nil {
		return err
	}

	if item.Quantity > 1 {
		item.Quantity--
		if _, err := c.items.Put(loc.collection(), *item); err != nil {
			return fmt.Errorf("decrement: %w", err)
		}
		c.reload(loc, owner.ID)
		return nil
	}

	if loc == Pantry {
		return c.moveToShopping(item, owner.ID)
	}
	return c.deleteShopping(item, owner.ID)
}

// RemovePantryItem moves the item to the shopping list: a copy with a fresh
// id is inserted there, the original is deleted, and a 3-second undo window
// is armed for the move.
func (c *Controller) RemovePantryItem(id int64) error {
	owner := c.state.Current()
	if owner == nil {
		return ErrNoSession
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	item, err := c.ownedItem(Pantry, id, owner.ID)
	if err != nil {
		return err
	}
	return c.moveToShopping(item, owner.ID)
}

// RemoveShoppingItem deletes the item from the shopping list.
func (c *Controller) RemoveShoppingItem(id int64) error {
	owner := c.state.Current()
	if owner == nil {
		return ErrNoSession
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	item, err := c.ownedItem(Shopping, id, owner.ID)
	if err != nil {
		return err
	}
	return c.deleteShopping(item, owner.ID)
}

// Undo takes back the most recent pantry-to-shopping move if its window is
// still open: the snapshot is written back to the pantry under its original
// id (which restores its original position) and the shopping copy is deleted.
// The slot is disarmed regardless of outcome. Returns whether a move was
// undone.
func (c *Controller) Undo() (bool, error) {
	owner := c.state.Current()
	if owner == nil {
		return false, ErrNoSession
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pending := c.pending
	c.disarmUndo()
	if pending == nil || time.Now().After(pending.ExpiresAt) {
		return false, nil
	}

	if _, err := c.items.Put(store.Pantry, pending.Snapshot); err != nil {
		return false, fmt.Errorf("undo: restore pantry item: %w", err)
	}
	if err := c.items.Delete(store.Shopping, pending.ShoppingID); err != nil {
		return false, fmt.Errorf("undo: remove shopping copy: %w", err)
	}

	c.logger.Info("undid pantry removal", "item_id", pending.Snapshot.ID)
	c.reload(Pantry, owner.ID)
	c.reload(Shopping, owner.ID)
	return true, nil
}

// Pending returns a copy of the armed undo slot, or nil.
func (c *Controller) Pending() *PendingMove {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil
	}
	p := *c.pending
	return &p
}

// moveToShopping performs the delete+insert pair of a pantry removal and arms
// the undo window. Caller holds the lock.
func (c *Controller) moveToShopping(item *model.Item, ownerID int64) error {
	copy := *item
	copy.ID = model.NewID()
	if _, err := c.items.Put(store.Shopping, copy); err != nil {
		return fmt.Errorf("move to shopping: %w", err)
	}
	if err := c.items.Delete(store.Pantry, item.ID); err != nil {
		return fmt.Errorf("move to shopping: delete original: %w", err)
	}

	c.armUndo(&PendingMove{
		Snapshot:   *item,
		ShoppingID: copy.ID,
		ExpiresAt:  time.Now().Add(c.window),
	})

	c.reload(Pantry, ownerID)
	c.reload(Shopping, ownerID)
	return nil
}

// deleteShopping removes a shopping item outright. Caller holds the lock.
func (c *Controller) deleteShopping(item *model.Item, ownerID int64) error {
	if err := c.items.Delete(store.Shopping, item.ID); err != nil {
		return fmt.Errorf("remove shopping item: %w", err)
	}
	c.reload(Shopping, ownerID)
	return nil
}

// armUndo replaces any armed slot and re-arms the expiry timer.
func (c *Controller) armUndo(p *PendingMove) {
	if c.undoTimer != nil {
		c.undoTimer.Stop()
	}
	c.pending = p
	c.undoTimer = time.AfterFunc(c.window, func() {
		c.mu.Lock()
		if c.pending == p {
			c.pending = nil
			c.undoTimer = nil
		}
		c.mu.Unlock()
	})
}

// disarmUndo clears the slot and stops the timer. Caller holds the lock.
func (c *Controller) disarmUndo() {
	if c.undoTimer != nil {
		c.undoTimer.Stop()
		c.undoTimer = nil
	}
	c.pending = nil
}

// ownedItem resolves id in the collection and checks ownership. A missing or
// foreign item is ErrNotFound. Caller holds the lock.
func (c *Controller) ownedItem(loc Location, id, ownerID int64) (*model.Item, error) {
	item, err := c.items.Get(loc.collection(), id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if item == nil || item.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return item, nil
}

// reload re-fetches the collection and pushes it to the change sink. A failed
// read-back is logged, not fatal: the mutation itself already committed.
// Caller holds the lock.
func (c *Controller) reload(loc Location, ownerID int64) {
	if c.OnChange == nil {
		return
	}
	items, err := c.items.GetAllByOwner(loc.collection(), ownerID)
	if err != nil {
		c.logger.Error("reload after mutation", "location", string(loc), "error", err)
		return
	}
	c.OnChange(loc, items)
}

// normalizeName capitalizes the first letter and lowercases the rest.
func normalizeName(name string) string {
	runes := []rune(strings.ToLower(name))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
