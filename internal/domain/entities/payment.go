package entities

import (
	"encoding/json"
	"time"
)

// PaymentStatus represents the payment lifecycle state.
//
// Domain notes:
//   - `initiated` is the only non-terminal state. A payment leaves it exactly
//     once, through the reconciliation flow (webhook) or an admin override.
//   - `paid` and `failed` are terminal: no webhook event may move a payment
//     out of them. Only an explicit admin override can, and that path is
//     logged independently.

type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "initiated"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Terminal reports whether no further automatic transition is permitted.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed
}

// ValidOverride reports whether an admin may force this status directly.
func (s PaymentStatus) ValidOverride() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed
}

// Payment is the payment entity persisted by the service.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (transaction_ref-index): transaction_ref
//
// TransactionRef is generated by us at session creation, sent to the gateway,
// and used as the join key when the webhook arrives. Exactly one payment
// exists per transaction_ref; retrying a failed payment creates a new Payment
// with a new ref rather than mutating the old one.
//
// Provider payload:
//   - ProviderPayload keeps the last raw body received from the provider
//     (session-creation response or webhook) for traceability/audit. It is
//     stored as-is and never interpreted beyond the initial parse.
type Payment struct {
	ID                     string        `json:"id"`
	OrderRef               string        `json:"order_ref,omitempty"`
	UserRef                string        `json:"user_ref,omitempty"`
	Amount                 float64       `json:"amount"`
	Currency               string        `json:"currency"`
	Provider               string        `json:"provider"`
	TransactionRef         string        `json:"transaction_ref"`
	ProviderTransactionRef string        `json:"provider_transaction_ref,omitempty"`
	Status                 PaymentStatus `json:"status"`

	ProviderPayload json.RawMessage `json:"provider_payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Payer carries the contact fields forwarded to the gateway when opening a
// hosted checkout session. Any field may be empty.
type Payer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Outcome is the normalized result parsed from a verified webhook event.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// successStatuses is the explicit mapping from provider status/event strings
// to a successful outcome. Anything not listed here is a failure: an
// unrecognized provider status must never be treated as money received.
var successStatuses = map[string]struct{}{
	"successful":       {},
	"completed":        {},
	"charge.completed": {},
}

// OutcomeFromProviderStatus maps a provider status (or event name) to an
// Outcome, failing closed on anything unrecognized.
func OutcomeFromProviderStatus(status string) Outcome {
	if _, ok := successStatuses[status]; ok {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

// StatusForOutcome returns the terminal payment status an outcome resolves to.
func StatusForOutcome(o Outcome) PaymentStatus {
	if o == OutcomeSuccess {
		return PaymentStatusPaid
	}
	return PaymentStatusFailed
}
