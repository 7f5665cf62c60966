package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"yangu_payments/internal/domain/entities"
	"yangu_payments/internal/usecase/interfaces"

	"github.com/google/uuid"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")
	ErrInvalidPaymentID     = errors.New("invalid payment id")
)

const (
	providerFlutterwave = "flutterwave"
	defaultCurrency     = "UGX"
)

// InitiateInput is the internal payment intent built from the initiate route.
type InitiateInput struct {
	Amount      float64
	Currency    string
	OrderRef    string
	RedirectURL string
}

// InitiateResult is what the checkout front-end needs to continue: the new
// payment and the hosted checkout URL to redirect the payer's browser to.
type InitiateResult struct {
	Payment     entities.Payment
	CheckoutURL string
}

// PaymentStats aggregates payments for the admin overview, mirroring the
// storefront dashboard's by-status and by-provider breakdowns.
type PaymentStats struct {
	ByStatus   map[string]StatBucket `json:"by_status"`
	ByProvider map[string]StatBucket `json:"by_provider"`
}

type StatBucket struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// IPaymentUseCase encapsulates payment initiation and read paths.
//
// Initiation creates the Payment record first and only then asks the gateway
// for a hosted checkout session: if session creation fails the payment stays
// `initiated` (the failure is about the session, not the payment outcome) and
// the provider response is still attached for audit.

type IPaymentUseCase interface {
	Initiate(ctx context.Context, in InitiateInput, payer entities.Payer, userRef string) (InitiateResult, error)
	GetStatus(ctx context.Context, id string) (entities.Payment, error)
	List(ctx context.Context, filter interfaces.PaymentFilter) ([]entities.Payment, error)
	Stats(ctx context.Context, startDate, endDate time.Time) (PaymentStats, error)
}

type PaymentUseCase struct {
	repo     interfaces.IPaymentRepository
	gateway  interfaces.IPaymentGateway
	currency string
}

var _ IPaymentUseCase = (*PaymentUseCase)(nil)

func NewPaymentUseCase(repo interfaces.IPaymentRepository, gateway interfaces.IPaymentGateway, currency string) *PaymentUseCase {
	if currency == "" {
		currency = defaultCurrency
	}
	return &PaymentUseCase{repo: repo, gateway: gateway, currency: currency}
}

func (u *PaymentUseCase) Initiate(ctx context.Context, in InitiateInput, payer entities.Payer, userRef string) (InitiateResult, error) {
	log.Printf("[payment][usecase] initiate start amount=%.2f order_ref=%q user_ref=%q", in.Amount, in.OrderRef, userRef)

	if in.Amount <= 0 {
		log.Printf("[payment][usecase] invalid amount amount=%.2f", in.Amount)
		return InitiateResult{}, ErrInvalidPaymentAmount
	}
	if u.gateway == nil {
		log.Printf("[payment][usecase] gateway not configured")
		return InitiateResult{}, errors.New("payment gateway not configured")
	}

	currency := strings.TrimSpace(in.Currency)
	if currency == "" {
		currency = u.currency
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	p := entities.Payment{
		ID:             id,
		OrderRef:       strings.TrimSpace(in.OrderRef),
		UserRef:        userRef,
		Amount:         in.Amount,
		Currency:       currency,
		Provider:       providerFlutterwave,
		TransactionRef: newTransactionRef(id, now),
		Status:         entities.PaymentStatusInitiated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := u.repo.Create(ctx, p)
	if err != nil {
		log.Printf("[payment][usecase] payment create failed payment_id=%s err=%v", p.ID, err)
		return InitiateResult{}, err
	}

	session, err := u.gateway.CreateCheckoutSession(ctx, created, payer, in.RedirectURL)
	if len(session.RawResponse) > 0 {
		// Keep whatever the provider said, success or not.
		if attachErr := u.repo.AttachProviderPayload(ctx, created.ID, session.RawResponse); attachErr != nil {
			log.Printf("[payment][usecase] attach provider payload failed payment_id=%s err=%v", created.ID, attachErr)
		}
	}
	if err != nil {
		log.Printf("[payment][usecase] checkout session failed payment_id=%s tx_ref=%s err=%v", created.ID, created.TransactionRef, err)
		return InitiateResult{}, err
	}

	log.Printf("[payment][usecase] initiate success payment_id=%s tx_ref=%s", created.ID, created.TransactionRef)
	created.ProviderPayload = session.RawResponse
	return InitiateResult{Payment: created, CheckoutURL: session.CheckoutURL}, nil
}

func (u *PaymentUseCase) GetStatus(ctx context.Context, id string) (entities.Payment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Payment{}, ErrInvalidPaymentID
	}

	p, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Payment{}, err
	}
	if p.ID == "" {
		return entities.Payment{}, ErrPaymentNotFound
	}
	return p, nil
}

func (u *PaymentUseCase) List(ctx context.Context, filter interfaces.PaymentFilter) ([]entities.Payment, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	return u.repo.List(ctx, filter)
}

func (u *PaymentUseCase) Stats(ctx context.Context, startDate, endDate time.Time) (PaymentStats, error) {
	payments, err := u.repo.List(ctx, interfaces.PaymentFilter{StartDate: startDate, EndDate: endDate})
	if err != nil {
		return PaymentStats{}, err
	}

	stats := PaymentStats{
		ByStatus:   map[string]StatBucket{},
		ByProvider: map[string]StatBucket{},
	}
	for _, p := range payments {
		s := stats.ByStatus[string(p.Status)]
		s.Count++
		s.Total += p.Amount
		stats.ByStatus[string(p.Status)] = s

		pr := stats.ByProvider[p.Provider]
		pr.Count++
		pr.Total += p.Amount
		stats.ByProvider[p.Provider] = pr
	}
	return stats, nil
}

// newTransactionRef builds the reference the gateway echoes back in its
// webhook. The payment id alone would be unique; the timestamp keeps refs
// unique across environments sharing a sandbox account.
func newTransactionRef(paymentID string, now time.Time) string {
	return fmt.Sprintf("yangu_%s_%d", paymentID, now.UnixMilli())
}
