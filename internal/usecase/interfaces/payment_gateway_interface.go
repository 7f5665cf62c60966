package interfaces

import (
	"context"
	"encoding/json"
	"errors"

	"yangu_payments/internal/domain/entities"
)

// Session-creation failures, distinguished so callers can decide between
// retrying creation and presenting an error. Neither marks the payment failed.
var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayRejected    = errors.New("payment gateway rejected the session request")
)

// CheckoutSession is the result of opening a hosted checkout with the
// provider: the URL the payer's browser must be redirected to, plus the raw
// provider response kept for audit.
type CheckoutSession struct {
	CheckoutURL string
	RawResponse json.RawMessage
}

// IPaymentGateway abstracts the external payment provider (Flutterwave).
//
// A session-creation failure says nothing about the payment outcome, so
// implementations return ErrGatewayUnavailable/ErrGatewayRejected and the
// caller leaves the payment `initiated`. RawResponse is populated whenever a
// provider body was received, including on rejection, so it can be persisted
// for debugging.
type IPaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, p entities.Payment, payer entities.Payer, redirectURL string) (CheckoutSession, error)
}
