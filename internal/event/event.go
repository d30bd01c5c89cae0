// Package event decouples order notifications from the commit path. The
// coordinator emits an OrderCommitted event after the ledger write succeeds;
// delivery is best-effort and a failed publish never fails the order.
package event

import (
	"context"
	"time"
)

// TopicOrderCommitted carries one message per successfully committed order,
// keyed by order ID.
const TopicOrderCommitted = "storefront.order.committed"

// OrderCommitted is the payload published after an order is durably recorded.
// Downstream consumers (the confirmation mailer, back-office dashboards) act
// on it independently of the checkout request.
type OrderCommitted struct {
	OrderID     string    `json:"order_id"`
	Email       string    `json:"email"`
	Total       string    `json:"total"`
	ItemCount   int       `json:"item_count"`
	CommittedAt time.Time `json:"committed_at"`
}

// Publisher delivers events to interested consumers. Implementations must be
// safe for concurrent use. Errors are for the caller to log, never to act on.
type Publisher interface {
	PublishOrderCommitted(ctx context.Context, ev OrderCommitted) error
}
