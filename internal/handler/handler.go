// Package handler exposes the storefront over HTTP with JSON bodies.
package handler

import (
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mielpino/storefront/internal/domain/order"
	"github.com/mielpino/storefront/internal/domain/product"
	"github.com/mielpino/storefront/internal/domain/recipe"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product and
	// recipe responses. When empty, image paths are returned as stored in
	// the database.
	ImageBaseURL string
}

// Handler serves the public storefront API.
type Handler struct {
	orders       *order.Service
	products     product.Repository
	recipes      recipe.Repository
	imageBaseURL string
}

// New creates a Handler over the given domain services.
func New(cfg Config, orders *order.Service, products product.Repository, recipes recipe.Repository) *Handler {
	return &Handler{
		orders:       orders,
		products:     products,
		recipes:      recipes,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// imageURL prefixes relative image paths with the configured base URL.
// Absolute URLs and empty paths pass through unchanged.
func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" || strings.Contains(path, "://") {
		return path
	}
	return h.imageBaseURL + path
}

// Register mounts all API routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/product", h.listProducts)
		r.Get("/product/{productID}", h.getProduct)

		r.Post("/order", h.submitOrder)
		r.Get("/order/{orderID}", h.getOrder)
		r.Get("/order/{orderID}/queue", h.getQueuePosition)

		r.Get("/recipe", h.listRecipes)
		r.Get("/recipe/{recipeID}", h.getRecipe)
	})
}
