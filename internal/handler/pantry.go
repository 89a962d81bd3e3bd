package handler

import (
	"log/slog"
	"net/http"

	"github.com/feedme-app/feedme/internal/auth"
	"github.com/feedme-app/feedme/internal/model"
	"github.com/feedme-app/feedme/internal/store"
)

// PantryHandler serves the owner-scoped pantry CRUD API.
type PantryHandler struct {
	items  *store.ItemStore
	sync   func(ownerID int64)
	logger *slog.Logger
}

// NewPantryHandler creates the handler. sync is called after every mutation
// so the live app channel can pick up API writes; it may be nil.
func NewPantryHandler(items *store.ItemStore, sync func(int64), logger *slog.Logger) *PantryHandler {
	return &PantryHandler{items: items, sync: sync, logger: logger}
}

type itemRequest struct {
	Name     string   `json:"name" validate:"required"`
	Quantity int      `json:"quantity" validate:"required,gt=0"`
	Unit     string   `json:"unit" validate:"required,unit"`
	Bought   int      `json:"bought" validate:"gte=0"`
	Price    *float64 `json:"price" validate:"omitempty,gte=0"`
}

func (h *PantryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.GetAllByOwner(store.Pantry, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list pantry", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list items"})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *PantryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeValid(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ownerID := auth.UserID(r.Context())
	item, err := h.items.Put(store.Pantry, model.Item{
		ID:       model.NewID(),
		Name:     req.Name,
		Quantity: req.Quantity,
		Unit:     model.Unit(req.Unit),
		Bought:   req.Bought,
		Price:    req.Price,
		OwnerID:  ownerID,
	})
	if err != nil {
		h.logger.Error("create pantry item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create item"})
		return
	}

	if h.sync != nil {
		h.sync(ownerID)
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *PantryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	ownerID := auth.UserID(r.Context())
	existing, err := h.items.Get(store.Pantry, id)
	if err != nil {
		h.logger.Error("get pantry item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get item"})
		return
	}
	if existing == nil || existing.OwnerID != ownerID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return
	}

	var req itemRequest
	if err := decodeValid(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	existing.Name = req.Name
	existing.Quantity = req.Quantity
	existing.Unit = model.Unit(req.Unit)
	existing.Bought = req.Bought
	existing.Price = req.Price

	item, err := h.items.Put(store.Pantry, *existing)
	if err != nil {
		h.logger.Error("update pantry item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update item"})
		return
	}

	if h.sync != nil {
		h.sync(ownerID)
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *PantryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	ownerID := auth.UserID(r.Context())
	existing, err := h.items.Get(store.Pantry, id)
	if err != nil {
		h.logger.Error("get pantry item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get item"})
		return
	}
	if existing == nil || existing.OwnerID != ownerID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return
	}

	if err := h.items.Delete(store.Pantry, id); err != nil {
		h.logger.Error("delete pantry item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete item"})
		return
	}

	if h.sync != nil {
		h.sync(ownerID)
	}
	w.WriteHeader(http.StatusNoContent)
}
