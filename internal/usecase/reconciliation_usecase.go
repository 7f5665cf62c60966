package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"yangu_payments/internal/domain/entities"
	"yangu_payments/internal/usecase/interfaces"
)

var (
	ErrInvalidOverrideStatus = errors.New("invalid override status")

	// ErrOrderSyncFailed marks the order update that follows a committed
	// payment transition. The payment state is authoritative and stands; this
	// error is surfaced for operational alerting, never rolled back.
	ErrOrderSyncFailed = errors.New("order status sync failed")
)

// ReconcileDisposition says what a webhook delivery did to the payment.
type ReconcileDisposition string

const (
	// DispositionApplied: this delivery won the initiated→terminal transition.
	DispositionApplied ReconcileDisposition = "applied"
	// DispositionAlreadyTerminal: duplicate or late delivery, nothing changed.
	DispositionAlreadyTerminal ReconcileDisposition = "already_terminal"
	// DispositionOrphaned: no payment exists for the transaction ref.
	DispositionOrphaned ReconcileDisposition = "orphaned"
)

// ReconcileResult reports what happened so the webhook handler can log it and
// still acknowledge the provider with success in every case.
type ReconcileResult struct {
	Disposition ReconcileDisposition
	Payment     entities.Payment
	// OrderSyncErr wraps ErrOrderSyncFailed when the payment transition
	// committed but the linked order could not be updated.
	OrderSyncErr error
}

// IReconciliationUseCase is the single authority for moving Payment (and, as
// a side effect, Order) state in response to verified external events.
//
// The transition itself is one conditional write guarded by the current
// status, so two near-simultaneous webhook deliveries, or a webhook racing an
// admin override, cannot both win: exactly one applies, the other observes a
// terminal state and no-ops without re-firing side effects.

type IReconciliationUseCase interface {
	Reconcile(ctx context.Context, transactionRef string, outcome entities.Outcome, rawPayload json.RawMessage, providerTransactionRef string) (ReconcileResult, error)
	AdminOverride(ctx context.Context, paymentID string, status entities.PaymentStatus) (entities.Payment, error)
}

type ReconciliationUseCase struct {
	payments interfaces.IPaymentRepository
	orders   interfaces.IOrderRepository
}

var _ IReconciliationUseCase = (*ReconciliationUseCase)(nil)

func NewReconciliationUseCase(payments interfaces.IPaymentRepository, orders interfaces.IOrderRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{payments: payments, orders: orders}
}

func (u *ReconciliationUseCase) Reconcile(ctx context.Context, transactionRef string, outcome entities.Outcome, rawPayload json.RawMessage, providerTransactionRef string) (ReconcileResult, error) {
	log.Printf("[reconcile][usecase] start tx_ref=%s outcome=%s payload_len=%d", transactionRef, outcome, len(rawPayload))

	p, err := u.payments.GetByTransactionRef(ctx, transactionRef)
	if err != nil {
		log.Printf("[reconcile][usecase] lookup failed tx_ref=%s err=%v", transactionRef, err)
		return ReconcileResult{}, err
	}
	if p.ID == "" {
		// Payments are only created by our own initiation flow; an unknown
		// ref is acknowledged and ignored, never materialized.
		log.Printf("[reconcile][usecase] orphaned event tx_ref=%s", transactionRef)
		return ReconcileResult{Disposition: DispositionOrphaned}, nil
	}
	if p.Status.Terminal() {
		log.Printf("[reconcile][usecase] already terminal tx_ref=%s payment_id=%s status=%s", transactionRef, p.ID, p.Status)
		return ReconcileResult{Disposition: DispositionAlreadyTerminal, Payment: p}, nil
	}

	target := entities.StatusForOutcome(outcome)
	updated, applied, err := u.payments.Finalize(ctx, p.ID, target, rawPayload, providerTransactionRef)
	if err != nil {
		log.Printf("[reconcile][usecase] finalize failed payment_id=%s err=%v", p.ID, err)
		return ReconcileResult{}, err
	}
	if !applied {
		// Lost the race against a concurrent delivery or an admin override.
		log.Printf("[reconcile][usecase] finalize no-op payment_id=%s status=%s", updated.ID, updated.Status)
		return ReconcileResult{Disposition: DispositionAlreadyTerminal, Payment: updated}, nil
	}
	log.Printf("[reconcile][usecase] payment finalized payment_id=%s tx_ref=%s status=%s", updated.ID, transactionRef, updated.Status)

	result := ReconcileResult{Disposition: DispositionApplied, Payment: updated}
	result.OrderSyncErr = u.syncOrder(ctx, updated.OrderRef, entities.OrderStatusForOutcome(outcome))
	return result, nil
}

func (u *ReconciliationUseCase) AdminOverride(ctx context.Context, paymentID string, status entities.PaymentStatus) (entities.Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return entities.Payment{}, ErrInvalidPaymentID
	}
	if !status.ValidOverride() {
		return entities.Payment{}, ErrInvalidOverrideStatus
	}

	prev, err := u.payments.OverrideStatus(ctx, paymentID, status)
	if err != nil {
		return entities.Payment{}, err
	}
	if prev.ID == "" {
		// Status already matched; report the current record unchanged.
		current, err := u.payments.GetByID(ctx, paymentID)
		if err != nil {
			return entities.Payment{}, err
		}
		if current.ID == "" {
			return entities.Payment{}, ErrPaymentNotFound
		}
		log.Printf("[reconcile][usecase] admin override no-op payment_id=%s status=%s", paymentID, status)
		return current, nil
	}

	// Overrides out of a terminal state are legal but loud: a stale webhook
	// replay must never do this, only a human did.
	log.Printf("[reconcile][usecase] ADMIN OVERRIDE payment_id=%s %s -> %s", paymentID, prev.Status, status)

	if prev.Status == entities.PaymentStatusInitiated {
		outcome := entities.OutcomeFailure
		if status == entities.PaymentStatusPaid {
			outcome = entities.OutcomeSuccess
		}
		if syncErr := u.syncOrder(ctx, prev.OrderRef, entities.OrderStatusForOutcome(outcome)); syncErr != nil {
			log.Printf("[reconcile][usecase] %v", syncErr)
		}
	}

	current, err := u.payments.GetByID(ctx, paymentID)
	if err != nil {
		return entities.Payment{}, err
	}
	return current, nil
}

// syncOrder applies the best-effort order update that follows a committed
// payment transition. Failures are wrapped in ErrOrderSyncFailed and logged;
// a stale order flag is recoverable by review, a silently lost payment is not.
func (u *ReconciliationUseCase) syncOrder(ctx context.Context, orderRef string, status entities.OrderStatus) error {
	if orderRef == "" || u.orders == nil {
		return nil
	}
	applied, err := u.orders.MarkPaymentResult(ctx, orderRef, status)
	if err != nil {
		wrapped := fmt.Errorf("%w: order_ref=%s target=%s: %v", ErrOrderSyncFailed, orderRef, status, err)
		log.Printf("[reconcile][usecase] OPERATIONAL ALERT %v", wrapped)
		return wrapped
	}
	if !applied {
		// The order already left `pending` (e.g. admin cancelled it); that
		// state is owned by a human and is not overwritten.
		log.Printf("[reconcile][usecase] order not pending, left untouched order_ref=%s target=%s", orderRef, status)
	}
	return nil
}
