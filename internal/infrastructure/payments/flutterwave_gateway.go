package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"yangu_payments/internal/domain/entities"
	"yangu_payments/internal/usecase/interfaces"
)

const defaultFlutterwaveBaseURL = "https://api.flutterwave.com/v3"

var ErrMissingFlutterwaveSecret = errors.New("missing FLW_SECRET_KEY")

// FlutterwaveGateway opens hosted checkout sessions against the Flutterwave
// v3 payments API. It is constructed explicitly with its own http.Client so
// callers stay testable without network access.
type FlutterwaveGateway struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

var _ interfaces.IPaymentGateway = (*FlutterwaveGateway)(nil)

func NewFlutterwaveGateway(baseURL, secretKey string, client *http.Client) (*FlutterwaveGateway, error) {
	if strings.TrimSpace(secretKey) == "" {
		log.Printf("[payment][gateway] missing FLW_SECRET_KEY")
		return nil, ErrMissingFlutterwaveSecret
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultFlutterwaveBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	log.Printf("[payment][gateway] Flutterwave client initialized base_url=%s", baseURL)
	return &FlutterwaveGateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    client,
	}, nil
}

type checkoutRequest struct {
	TxRef          string           `json:"tx_ref"`
	Amount         string           `json:"amount"`
	Currency       string           `json:"currency"`
	RedirectURL    string           `json:"redirect_url"`
	Customer       checkoutCustomer `json:"customer"`
	PaymentOptions string           `json:"payment_options"`
	Meta           checkoutMeta     `json:"meta"`
}

type checkoutCustomer struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phonenumber"`
	Name        string `json:"name"`
}

// checkoutMeta lets the webhook payload self-describe without a DB lookup.
type checkoutMeta struct {
	OrderID string `json:"orderId,omitempty"`
}

type checkoutResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

func (g *FlutterwaveGateway) CreateCheckoutSession(ctx context.Context, p entities.Payment, payer entities.Payer, redirectURL string) (interfaces.CheckoutSession, error) {
	log.Printf("[payment][gateway] create session start tx_ref=%s amount=%.2f %s", p.TransactionRef, p.Amount, p.Currency)

	email := payer.Email
	if email == "" {
		// Flutterwave requires a customer email even for mobile money.
		email = "unknown@domain.test"
	}
	reqBody := checkoutRequest{
		TxRef:          p.TransactionRef,
		Amount:         strconv.FormatFloat(p.Amount, 'f', -1, 64),
		Currency:       p.Currency,
		RedirectURL:    redirectURL,
		Customer:       checkoutCustomer{Email: email, PhoneNumber: payer.Phone, Name: payer.Name},
		PaymentOptions: "card,mobilemoneyuganda",
		Meta:           checkoutMeta{OrderID: p.OrderRef},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return interfaces.CheckoutSession{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return interfaces.CheckoutSession{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.client.Do(req)
	if err != nil {
		log.Printf("[payment][gateway] request failed tx_ref=%s err=%v", p.TransactionRef, err)
		return interfaces.CheckoutSession{}, fmt.Errorf("%w: %v", interfaces.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[payment][gateway] response read failed tx_ref=%s err=%v", p.TransactionRef, err)
		return interfaces.CheckoutSession{}, fmt.Errorf("%w: %v", interfaces.ErrGatewayUnavailable, err)
	}
	session := interfaces.CheckoutSession{RawResponse: raw}

	var parsed checkoutResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Printf("[payment][gateway] response parse failed tx_ref=%s http_status=%d err=%v", p.TransactionRef, resp.StatusCode, err)
		return session, fmt.Errorf("%w: unparseable response (http %d)", interfaces.ErrGatewayRejected, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK || parsed.Status != "success" || parsed.Data.Link == "" {
		log.Printf("[payment][gateway] session rejected tx_ref=%s http_status=%d provider_status=%s message=%q", p.TransactionRef, resp.StatusCode, parsed.Status, parsed.Message)
		return session, fmt.Errorf("%w: %s (http %d)", interfaces.ErrGatewayRejected, parsed.Message, resp.StatusCode)
	}

	log.Printf("[payment][gateway] create session success tx_ref=%s", p.TransactionRef)
	session.CheckoutURL = parsed.Data.Link
	return session, nil
}
