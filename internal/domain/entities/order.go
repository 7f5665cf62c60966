package entities

import "time"

// OrderStatus mirrors the order states this service is allowed to reason
// about. Orders are owned by the storefront; the reconciliation flow is the
// only component here permitted to move one from `pending` into `paid` or
// `payment_failed`, and it must never overwrite a state a human already set
// (e.g. `cancelled`).

type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "pending"
	OrderStatusPaid          OrderStatus = "paid"
	OrderStatusPaymentFailed OrderStatus = "payment_failed"
	OrderStatusCancelled     OrderStatus = "cancelled"
)

// Order is the external collaborator record referenced by payments.
//
// Storage model (DynamoDB):
//   - PK: id
type Order struct {
	ID        string      `json:"id"`
	UserRef   string      `json:"user_ref,omitempty"`
	Total     float64     `json:"total"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderStatusForOutcome returns the order status a payment outcome maps to.
func OrderStatusForOutcome(o Outcome) OrderStatus {
	if o == OutcomeSuccess {
		return OrderStatusPaid
	}
	return OrderStatusPaymentFailed
}
