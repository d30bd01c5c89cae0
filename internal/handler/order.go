package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mielpino/storefront/internal/domain/order"
)

// submitTimeout bounds the whole reservation and commit sequence.
const submitTimeout = 10 * time.Second

type submitOrderRequest struct {
	Items        []orderItemRequest  `json:"items"`
	CheckoutInfo checkoutInfoRequest `json:"checkoutInfo"`
}

type orderItemRequest struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	SizeKg    decimal.Decimal `json:"sizeKg"`
}

type checkoutInfoRequest struct {
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone"`
}

// missingFields names empty required checkout fields. Phone stays optional.
func (c checkoutInfoRequest) missingFields() []string {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"email", c.Email},
		{"firstName", c.FirstName},
		{"lastName", c.LastName},
		{"address", c.Address},
		{"city", c.City},
		{"postalCode", c.PostalCode},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

type orderResponse struct {
	ID        string              `json:"id"`
	Status    string              `json:"status"`
	Total     decimal.Decimal     `json:"total"`
	Items     []orderItemResponse `json:"items"`
	CreatedAt time.Time           `json:"createdAt"`
}

type orderItemResponse struct {
	ProductID       int64           `json:"productId"`
	Quantity        int             `json:"quantity"`
	SizeKg          decimal.Decimal `json:"sizeKg"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			SizeKg:          it.SizeKg,
			PriceAtPurchase: it.PriceAtPurchase,
		}
	}
	return orderResponse{
		ID:        o.ID,
		Status:    string(o.Status),
		Total:     o.Total,
		Items:     items,
		CreatedAt: o.CreatedAt,
	}
}

func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if missing := req.CheckoutInfo.missingFields(); len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "missing checkout fields: "+strings.Join(missing, ", "))
		return
	}

	lines := make([]order.CartLine, len(req.Items))
	for i, it := range req.Items {
		lines[i] = order.CartLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			SizeKg:    it.SizeKg,
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), submitTimeout)
	defer cancel()

	o, err := h.orders.SubmitOrder(ctx, order.SubmitRequest{
		Lines: lines,
		Checkout: order.CheckoutInfo{
			Email:      req.CheckoutInfo.Email,
			FirstName:  req.CheckoutInfo.FirstName,
			LastName:   req.CheckoutInfo.LastName,
			Address:    req.CheckoutInfo.Address,
			City:       req.CheckoutInfo.City,
			PostalCode: req.CheckoutInfo.PostalCode,
			Phone:      req.CheckoutInfo.Phone,
		},
	})
	if err != nil {
		writeSubmitError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	o, err := h.orders.GetOrder(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type queuePositionResponse struct {
	OrderID  string `json:"orderId"`
	Position int    `json:"position"`
}

func (h *Handler) getQueuePosition(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	orderID := chi.URLParam(r, "orderID")
	writeJSON(w, http.StatusOK, queuePositionResponse{
		OrderID:  orderID,
		Position: h.orders.QueuePosition(ctx, orderID),
	})
}
