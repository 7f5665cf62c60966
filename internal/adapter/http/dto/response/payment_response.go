package response

import (
	"time"

	"yangu_payments/internal/domain/entities"
)

// PaymentInitiateResponse is what the checkout front-end needs: the payment
// id to stash before redirecting, and the hosted checkout URL.
type PaymentInitiateResponse struct {
	PaymentID   string `json:"payment_id"`
	CheckoutURL string `json:"checkout_url"`
	Status      string `json:"status"`
}

// PaymentStatusResponse is the polling view of a payment. Read-only and
// deliberately narrow.
type PaymentStatusResponse struct {
	ID                     string `json:"id"`
	Status                 string `json:"status"`
	Provider               string `json:"provider"`
	ProviderTransactionRef string `json:"provider_transaction_ref,omitempty"`
}

// PaymentResponse is the full admin view.
type PaymentResponse struct {
	ID                     string    `json:"id"`
	OrderRef               string    `json:"order_ref,omitempty"`
	UserRef                string    `json:"user_ref,omitempty"`
	Amount                 float64   `json:"amount"`
	Currency               string    `json:"currency"`
	Provider               string    `json:"provider"`
	TransactionRef         string    `json:"transaction_ref"`
	ProviderTransactionRef string    `json:"provider_transaction_ref,omitempty"`
	Status                 string    `json:"status"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// PaymentListResponse pages the admin listing.
type PaymentListResponse struct {
	Payments []PaymentResponse `json:"payments"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// WebhookAckResponse is the unconditional acknowledgment sent back to the
// provider once the body has been read, signature-checked or not.
type WebhookAckResponse struct {
	Received bool `json:"received"`
}

func FromPaymentStatus(p entities.Payment) PaymentStatusResponse {
	return PaymentStatusResponse{
		ID:                     p.ID,
		Status:                 string(p.Status),
		Provider:               p.Provider,
		ProviderTransactionRef: p.ProviderTransactionRef,
	}
}

func FromPayment(p entities.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                     p.ID,
		OrderRef:               p.OrderRef,
		UserRef:                p.UserRef,
		Amount:                 p.Amount,
		Currency:               p.Currency,
		Provider:               p.Provider,
		TransactionRef:         p.TransactionRef,
		ProviderTransactionRef: p.ProviderTransactionRef,
		Status:                 string(p.Status),
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}

func FromPayments(payments []entities.Payment, page, limit int) PaymentListResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, FromPayment(p))
	}
	return PaymentListResponse{Payments: out, Page: page, Limit: limit}
}
