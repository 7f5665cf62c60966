package interfaces

import (
	"context"
	"encoding/json"
	"time"

	"yangu_payments/internal/domain/entities"
)

// PaymentFilter narrows admin listing queries.
type PaymentFilter struct {
	Status    entities.PaymentStatus
	Provider  string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Page      int
}

// IPaymentRepository abstracts DynamoDB persistence for Payment.
//
// Every mutation is a conditional write:
//   - Create fails when the id already exists.
//   - Finalize applies only while the payment is still `initiated`; a losing
//     racer observes applied=false instead of double-applying the transition.
//   - OverrideStatus applies only when the stored status differs from the
//     target, and reports the prior state so callers can tell whether the
//     payment was still open.
type IPaymentRepository interface {
	Create(ctx context.Context, p entities.Payment) (entities.Payment, error)
	GetByID(ctx context.Context, id string) (entities.Payment, error)
	GetByTransactionRef(ctx context.Context, transactionRef string) (entities.Payment, error)

	// Finalize atomically moves the payment identified by id from `initiated`
	// to the given terminal status, recording the provider payload and the
	// provider's own reference. applied=false means the payment was already
	// terminal and nothing changed.
	Finalize(ctx context.Context, id string, status entities.PaymentStatus, payload json.RawMessage, providerTransactionRef string) (p entities.Payment, applied bool, err error)

	// OverrideStatus forces a terminal status regardless of the current one,
	// as long as it actually changes it. Returns the payment as it was before
	// the write; prev.ID == "" means the status already matched (no-op).
	OverrideStatus(ctx context.Context, id string, status entities.PaymentStatus) (prev entities.Payment, err error)

	// AttachProviderPayload stores the raw provider response for audit without
	// touching the status. Used when session creation fails or succeeds.
	AttachProviderPayload(ctx context.Context, id string, payload json.RawMessage) error

	List(ctx context.Context, filter PaymentFilter) ([]entities.Payment, error)
}
