package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/feedme-app/feedme/internal/list"
	"github.com/feedme-app/feedme/internal/model"
	"github.com/feedme-app/feedme/internal/session"
	"github.com/feedme-app/feedme/internal/store"
	"github.com/feedme-app/feedme/internal/view"
)

// AppHandler drives the live app surface: the process-level session and the
// list operations behind the kitchen display.
type AppHandler struct {
	state      *session.State
	controller *list.Controller
	users      *store.UserStore
	logger     *slog.Logger
}

func NewAppHandler(state *session.State, controller *list.Controller, users *store.UserStore, logger *slog.Logger) *AppHandler {
	return &AppHandler{state: state, controller: controller, users: users, logger: logger}
}

func (h *AppHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeValid(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("app login lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to log in"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
		return
	}

	if err := h.state.Login(user); err != nil {
		h.logger.Error("app login", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to log in"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": userResponse{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}

func (h *AppHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.state.Logout(); err != nil {
		h.logger.Error("app logout", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to log out"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session reports who is signed in on the display, if anyone.
func (h *AppHandler) Session(w http.ResponseWriter, r *http.Request) {
	user := h.state.Current()
	if user == nil {
		writeJSON(w, http.StatusOK, map[string]any{"signed_in": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"signed_in": true,
		"user":      userResponse{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}

// View renders one of the two lists for the current session. Signed out it
// returns the placeholder view.
func (h *AppHandler) View(w http.ResponseWriter, r *http.Request) {
	loc, ok := parseLocation(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown list"})
		return
	}

	items, err := h.controller.Load(loc)
	if err != nil {
		h.logger.Error("load list", "location", string(loc), "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load list"})
		return
	}
	writeJSON(w, http.StatusOK, view.Render(items, h.state.SignedIn()))
}

type addItemRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Unit     string `json:"unit"`
}

func (h *AppHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	// Validation happens in the controller so rejects are uniform across
	// surfaces.
	var req addItemRequest
	if err := decodeValid(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	item, err := h.controller.AddPantryItem(req.Name, req.Quantity, model.Unit(req.Unit))
	if err != nil {
		h.writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *AppHandler) Increment(w http.ResponseWriter, r *http.Request) {
	loc, ok := parseLocation(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown list"})
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.controller.Increment(loc, id); err != nil {
		h.writeControllerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AppHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	loc, ok := parseLocation(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown list"})
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.controller.Decrement(loc, id); err != nil {
		h.writeControllerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AppHandler) RemovePantryItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.controller.RemovePantryItem(id); err != nil {
		h.writeControllerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AppHandler) RemoveShoppingItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.controller.RemoveShoppingItem(id); err != nil {
		h.writeControllerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AppHandler) Undo(w http.ResponseWriter, r *http.Request) {
	undone, err := h.controller.Undo()
	if err != nil {
		h.writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"undone": undone})
}

func (h *AppHandler) writeControllerError(w http.ResponseWriter, err error) {
	var verr *list.ValidationError
	switch {
	case errors.Is(err, list.ErrNoSession):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "no active session"})
	case errors.Is(err, list.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error()})
	default:
		h.logger.Error("list operation", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "operation failed"})
	}
}

func parseLocation(r *http.Request) (list.Location, bool) {
	switch r.PathValue("location") {
	case "pantry":
		return list.Pantry, true
	case "shopping":
		return list.Shopping, true
	}
	return "", false
}
