package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mielpino/storefront/internal/domain/recipe"
)

type recipeResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	ProductType string `json:"productType"`
}

func (h *Handler) toRecipeResponse(rc *recipe.Recipe) recipeResponse {
	return recipeResponse{
		ID:          rc.ID,
		Name:        rc.Name,
		Description: rc.Description,
		ImageURL:    h.imageURL(rc.ImageURL),
		ProductType: rc.ProductType,
	}
}

func (h *Handler) listRecipes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	var (
		recipes []recipe.Recipe
		err     error
	)
	if t := r.URL.Query().Get("type"); t != "" {
		recipes, err = h.recipes.ListByType(ctx, t)
	} else {
		recipes, err = h.recipes.List(ctx)
	}
	if err != nil {
		writeLookupError(w, r, err)
		return
	}

	resp := make([]recipeResponse, len(recipes))
	for i := range recipes {
		resp[i] = h.toRecipeResponse(&recipes[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "recipeID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "recipe id must be an integer")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	rc, err := h.recipes.GetByID(ctx, id)
	if err != nil {
		writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toRecipeResponse(rc))
}
