package interfaces

import (
	"context"

	"yangu_payments/internal/domain/entities"
)

// IOrderRepository is the narrow view of the storefront's orders this service
// needs. The order update that follows a payment transition is deliberately
// best-effort and outside the payment's own write (see ReconciliationUseCase).
type IOrderRepository interface {
	GetByID(ctx context.Context, id string) (entities.Order, error)

	// MarkPaymentResult moves the order into `paid`/`payment_failed`, but only
	// while it is still `pending`. applied=false means the order had already
	// left `pending` (e.g. cancelled by an admin) and was left untouched.
	MarkPaymentResult(ctx context.Context, id string, status entities.OrderStatus) (applied bool, err error)
}
