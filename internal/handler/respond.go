package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/mielpino/storefront/internal/domain/order"
	"github.com/mielpino/storefront/internal/domain/product"
	"github.com/mielpino/storefront/internal/domain/recipe"
)

// maxBodyBytes caps request bodies; carts are small.
const maxBodyBytes = 1 << 20

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(v)
}

// errorResponse is the wire shape for every non-2xx response.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Code: code, Message: msg})
}

// shortageDetail is one entry of a 409 response, in kilograms of stock.
type shortageDetail struct {
	ProductID int64  `json:"productId"`
	Required  string `json:"required"`
	Available string `json:"available"`
}

// writeSubmitError maps order submission failures onto HTTP statuses.
// Insufficient stock is a 409 listing every product that fell short; a
// ledger write failure is a 503 because the submission is safe to retry.
func writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		insufficient *order.InsufficientStockError
		notFound     *order.ProductNotFoundError
		badSize      *order.SizeNotOfferedError
	)
	switch {
	case errors.As(err, &insufficient):
		details := make([]shortageDetail, len(insufficient.Shortages))
		for i, s := range insufficient.Shortages {
			details[i] = shortageDetail{
				ProductID: s.ProductID,
				Required:  s.Required.String(),
				Available: s.Available.String(),
			}
		}
		writeJSON(w, http.StatusConflict, errorResponse{
			Code:    http.StatusConflict,
			Message: "insufficient stock",
			Details: details,
		})
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &badSize),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrInvalidSize):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrLedgerWrite):
		writeError(w, http.StatusServiceUnavailable, "order could not be recorded, please retry")
	default:
		zctx.From(r.Context()).Error("order submission failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeLookupError maps read-path failures: domain not-found sentinels become
// 404, anything else is logged and becomes 500.
func writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, recipe.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		zctx.From(r.Context()).Error("lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
