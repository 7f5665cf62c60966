package request

// PaymentInitiateRequest is the payload for POST /payments/initiate.
//
// `order_ref` is optional: some flows create the order only after payment.
// `redirect_url` is where the gateway sends the payer's browser afterwards;
// when empty the service falls back to its configured public redirect URL.

type PaymentInitiateRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Currency    string  `json:"currency"`
	OrderRef    string  `json:"order_ref"`
	RedirectURL string  `json:"redirect_url"`
}

// PaymentStatusUpdateRequest is the admin override payload.
type PaymentStatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}
