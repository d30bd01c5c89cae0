package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mielpino/storefront/internal/domain/product"
)

const readTimeout = 3 * time.Second

type productResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       decimal.Decimal   `json:"price"`
	Stock       decimal.Decimal   `json:"stock"`
	SizesKg     []decimal.Decimal `json:"sizesKg"`
	ImageURL    string            `json:"imageUrl"`
	BgColor     string            `json:"bgColor"`
	BtnColor    string            `json:"btnColor"`
	HoneyColor  string            `json:"honeyColor"`
	ModelPath   string            `json:"modelPath"`
}

func (h *Handler) toProductResponse(p *product.Product) productResponse {
	sizes := p.SizesKg
	if sizes == nil {
		sizes = []decimal.Decimal{}
	}
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		SizesKg:     sizes,
		ImageURL:    h.imageURL(p.ImageURL),
		BgColor:     p.Display.BgColor,
		BtnColor:    p.Display.BtnColor,
		HoneyColor:  p.Display.HoneyColor,
		ModelPath:   p.Display.ModelPath,
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	products, err := h.products.List(ctx)
	if err != nil {
		writeLookupError(w, r, err)
		return
	}

	resp := make([]productResponse, len(products))
	for i := range products {
		resp[i] = h.toProductResponse(&products[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "product id must be an integer")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	p, err := h.products.GetByID(ctx, id)
	if err != nil {
		writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toProductResponse(p))
}
