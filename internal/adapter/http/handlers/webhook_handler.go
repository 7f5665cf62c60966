package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	response "yangu_payments/internal/adapter/http/dto/response"
	"yangu_payments/internal/domain/entities"
	"yangu_payments/internal/usecase"
	"yangu_payments/pkg"

	"github.com/gin-gonic/gin"
)

// Provider signature header, with the legacy fallback some Flutterwave
// integrations still send.
const (
	signatureHeader         = "verif-hash"
	signatureHeaderFallback = "verification"
)

// SignatureVerifier proves a raw webhook body originated from the provider.
type SignatureVerifier interface {
	Verify(rawBody []byte, signatureHeader string) bool
}

// WebhookHandler receives the provider's asynchronous payment notifications.
//
// Webhooks are delivered at-least-once and race the payer's redirect, so the
// handler acknowledges with 200 in every case once the body has been read and
// signature-checked; a 4xx would only make the provider redeliver a payload
// it cannot deliver differently. The single exception is an unreadable or
// unparseable body.

type WebhookHandler struct {
	verifier       SignatureVerifier
	reconciliation usecase.IReconciliationUseCase
}

func NewWebhookHandler(verifier SignatureVerifier, reconciliation usecase.IReconciliationUseCase) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, reconciliation: reconciliation}
}

// webhookEvent is the subset of the provider payload we act on. The raw body
// is what gets persisted; this parse is only for routing.
type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID     json.Number `json:"id"`
		TxRef  string      `json:"tx_ref"`
		FlwRef string      `json:"flw_ref"`
		Status string      `json:"status"`
	} `json:"data"`
}

// HandleWebhook verifies and reconciles a provider notification.
//
// @Summary      Payment provider webhook
// @Tags         payments
// @Accept       json
// @Produce      json
// @Success      200 {object} response.WebhookAckResponse
// @Router       /payments/webhook [post]
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	// The signature covers the exact raw bytes; read them before any parsing.
	raw, err := c.GetRawData()
	if err != nil {
		log.Printf("[webhook][handler] body read failed err=%v", err)
		appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Unreadable body", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	signature := c.GetHeader(signatureHeader)
	if signature == "" {
		signature = c.GetHeader(signatureHeaderFallback)
	}
	if !h.verifier.Verify(raw, signature) {
		// No state change, but still acknowledged: redelivering the same
		// bytes will never verify either.
		log.Printf("[webhook][handler] SIGNATURE INVALID body_len=%d", len(raw))
		c.JSON(http.StatusOK, response.WebhookAckResponse{Received: true})
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		log.Printf("[webhook][handler] unparseable body err=%v", err)
		appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Unparseable body", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	txRef := event.Data.TxRef
	if txRef == "" {
		txRef = event.Data.FlwRef
	}
	if txRef == "" {
		log.Printf("[webhook][handler] event without transaction ref event=%q", event.Event)
		c.JSON(http.StatusOK, response.WebhookAckResponse{Received: true})
		return
	}

	providerStatus := event.Data.Status
	if providerStatus == "" {
		providerStatus = event.Event
	}
	outcome := entities.OutcomeFromProviderStatus(providerStatus)

	providerRef := event.Data.FlwRef
	if providerRef == "" {
		providerRef = event.Data.ID.String()
	}

	result, err := h.reconciliation.Reconcile(c.Request.Context(), txRef, outcome, raw, providerRef)
	if err != nil {
		// Storage errors are transient; a 5xx invites the redelivery that can
		// actually succeed next time.
		log.Printf("[webhook][handler] reconcile failed tx_ref=%s err=%v", txRef, err)
		appErr := pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	switch result.Disposition {
	case usecase.DispositionApplied:
		log.Printf("[webhook][handler] reconciled tx_ref=%s payment_id=%s status=%s", txRef, result.Payment.ID, result.Payment.Status)
	case usecase.DispositionAlreadyTerminal:
		log.Printf("[webhook][handler] duplicate delivery tx_ref=%s status=%s", txRef, result.Payment.Status)
	case usecase.DispositionOrphaned:
		log.Printf("[webhook][handler] orphaned event tx_ref=%s", txRef)
	}

	c.JSON(http.StatusOK, response.WebhookAckResponse{Received: true})
}
