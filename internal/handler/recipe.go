package handler

import (
	"log/slog"
	"net/http"

	"github.com/feedme-app/feedme/internal/recipe"
)

// RecipeHandler forwards recipe requests to the Gemini client.
type RecipeHandler struct {
	client *recipe.Client
	logger *slog.Logger
}

func NewRecipeHandler(client *recipe.Client, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{client: client, logger: logger}
}

type recipeRequest struct {
	MealType string `json:"mealType" validate:"required"`
}

func (h *RecipeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if err := decodeValid(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "meal type is required"})
		return
	}

	if !h.client.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "recipe generation not configured"})
		return
	}

	text, err := h.client.Generate(r.Context(), req.MealType)
	if err != nil {
		h.logger.Error("generate recipe", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to generate recipe"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"recipe": text})
}
