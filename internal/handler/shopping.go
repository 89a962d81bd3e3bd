package handler

import (
	"log/slog"
	"net/http"

	"github.com/feedme-app/feedme/internal/auth"
	"github.com/feedme-app/feedme/internal/model"
	"github.com/feedme-app/feedme/internal/store"
)

const historyLimit = 10

// ShoppingHandler serves the owner-scoped shopping list API, including
// checkout and purchase history.
type ShoppingHandler struct {
	items     *store.ItemStore
	purchases *store.PurchaseStore
	sync      func(ownerID int64)
	logger    *slog.Logger
}

func NewShoppingHandler(items *store.ItemStore, purchases *store.PurchaseStore, sync func(int64), logger *slog.Logger) *ShoppingHandler {
	return &ShoppingHandler{items: items, purchases: purchases, sync: sync, logger: logger}
}

func (h *ShoppingHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.GetAllByOwner(store.Shopping, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list shopping", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list items"})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ShoppingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeValid(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ownerID := auth.UserID(r.Context())
	item, err := h.items.Put(store.Shopping, model.Item{
		ID:       model.NewID(),
		Name:     req.Name,
		Quantity: req.Quantity,
		Unit:     model.Unit(req.Unit),
		Bought:   req.Bought,
		Price:    req.Price,
		OwnerID:  ownerID,
	})
	if err != nil {
		h.logger.Error("create shopping item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create item"})
		return
	}

	if h.sync != nil {
		h.sync(ownerID)
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *ShoppingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	ownerID := auth.UserID(r.Context())
	existing, err := h.items.Get(store.Shopping, id)
	if err != nil {
		h.logger.Error("get shopping item", "error", err)
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

	item, err := h.items.Put(store.Shopping, *existing)
	if err != nil {
		h.logger.Error("update shopping item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update item"})
		return
	}

	if h.sync != nil {
		h.sync(ownerID)
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ShoppingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	ownerID := auth.UserID(r.Context())
	existing, err := h.items.Get(store.Shopping, id)
	if err != nil {
		h.logger.Error("get shopping item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get item"})
		return
	}
	if existing == nil || existing.OwnerID != ownerID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return
	}

	if err := h.items.Delete(store.Shopping, id); err != nil {
		h.logger.Error("delete shopping item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete item"})
		return
	}

	if h.sync != nil {
		h.sync(ownerID)
	}
	w.WriteHeader(http.StatusNoContent)
}

type finishRequest struct {
	Items []finishItem `json:"items" validate:"required,min=1,dive"`
}

type finishItem struct {
	ID     int64 `json:"id" validate:"required"`
	Bought int   `json:"bought" validate:"gte=0"`
}

// Finish closes out a shopping trip. Fully bought items are deleted, partial
// ones stay with the remaining quantity, and the trip is written to the
// purchase history.
func (h *ShoppingHandler) Finish(w http.ResponseWriter, r *http.Request) {
	var req finishRequest
	if err := decodeValid(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ownerID := auth.UserID(r.Context())

	var purchased []model.PurchasedItem
	var total float64
	for _, fi := range req.Items {
		item, err := h.items.Get(store.Shopping, fi.ID)
		if err != nil {
			h.logger.Error("get shopping item", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to finish shopping"})
			return
		}
		if item == nil || item.OwnerID != ownerID {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}

		purchased = append(purchased, model.PurchasedItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Unit:     item.Unit,
			Bought:   fi.Bought,
			Price:    item.Price,
		})
		if item.Price != nil {
			total += *item.Price * float64(fi.Bought)
		}

		if fi.Bought >= item.Quantity {
			if err := h.items.Delete(store.Shopping, item.ID); err != nil {
				h.logger.Error("delete bought item", "error", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to finish shopping"})
				return
			}
			continue
		}

		item.Quantity -= fi.Bought
		item.Bought = 0
		if _, err := h.items.Put(store.Shopping, *item); err != nil {
			h.logger.Error("update partial item", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to finish shopping"})
			return
		}
	}

	record, err := h.purchases.Create(ownerID, purchased, total)
	if err != nil {
		h.logger.Error("record purchase", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to finish shopping"})
		return
	}

	if h.sync != nil {
		h.sync(ownerID)
	}
	writeJSON(w, http.StatusCreated, record)
}

// History returns the ten most recent completed purchases, newest first.
func (h *ShoppingHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.purchases.ListByOwner(auth.UserID(r.Context()), historyLimit)
	if err != nil {
		h.logger.Error("list history", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list history"})
		return
	}
	writeJSON(w, http.StatusOK, history)
}
