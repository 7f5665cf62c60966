package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"yangu_payments/internal/adapter/http/dto/request"
	response "yangu_payments/internal/adapter/http/dto/response"
	"yangu_payments/internal/adapter/http/middleware"
	"yangu_payments/internal/domain/entities"
	"yangu_payments/internal/usecase"
	"yangu_payments/internal/usecase/interfaces"
	"yangu_payments/pkg"

	"github.com/gin-gonic/gin"
)

// PaymentHandler handles HTTP requests for the payment lifecycle.

type PaymentHandler struct {
	payments       usecase.IPaymentUseCase
	reconciliation usecase.IReconciliationUseCase
	redirectURL    string
}

func NewPaymentHandler(payments usecase.IPaymentUseCase, reconciliation usecase.IReconciliationUseCase, redirectURL string) *PaymentHandler {
	return &PaymentHandler{payments: payments, reconciliation: reconciliation, redirectURL: redirectURL}
}

// Initiate creates a payment and opens a hosted checkout session.
//
// @Summary      Initiate a payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        body body request.PaymentInitiateRequest true "payment intent"
// @Success      200 {object} response.PaymentInitiateResponse
// @Security     Bearer
// @Router       /payments/initiate [post]
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req request.PaymentInitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[payment][handler] initiate invalid payload err=%v", err)
		appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	userRef := c.GetString(middleware.CtxUserID)
	payer := entities.Payer{
		Name:  c.GetString(middleware.CtxUserName),
		Email: c.GetString(middleware.CtxUserEmail),
		Phone: c.GetString(middleware.CtxUserPhone),
	}
	redirectURL := req.RedirectURL
	if redirectURL == "" {
		redirectURL = h.redirectURL
	}
	log.Printf("[payment][handler] initiate start user_ref=%s amount=%.2f order_ref=%q", userRef, req.Amount, req.OrderRef)

	result, err := h.payments.Initiate(c.Request.Context(), usecase.InitiateInput{
		Amount:      req.Amount,
		Currency:    req.Currency,
		OrderRef:    req.OrderRef,
		RedirectURL: redirectURL,
	}, payer, userRef)
	if err != nil {
		log.Printf("[payment][handler] initiate failed user_ref=%s err=%v", userRef, err)
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	log.Printf("[payment][handler] initiate success payment_id=%s", result.Payment.ID)

	c.JSON(http.StatusOK, response.PaymentInitiateResponse{
		PaymentID:   result.Payment.ID,
		CheckoutURL: result.CheckoutURL,
		Status:      string(result.Payment.Status),
	})
}

// GetPaymentStatus is the read-only endpoint the client poller hits after the
// redirect back from the gateway. Restricted to the payer and admins.
//
// @Summary      Get payment status
// @Tags         payments
// @Produce      json
// @Param        id path string true "payment id"
// @Success      200 {object} response.PaymentStatusResponse
// @Security     Bearer
// @Router       /payments/{id}/status [get]
func (h *PaymentHandler) GetPaymentStatus(c *gin.Context) {
	id := c.Param("id")

	p, err := h.payments.GetStatus(c.Request.Context(), id)
	if err != nil {
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	if !middleware.IsAdmin(c) && p.UserRef != "" && p.UserRef != c.GetString(middleware.CtxUserID) {
		appErr := pkg.NewDomainErrorSimple("FORBIDDEN", "Not your payment", http.StatusForbidden)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromPaymentStatus(p))
}

// UpdatePaymentStatus is the admin override for manual support resolution.
//
// @Summary      Override payment status (admin)
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "payment id"
// @Param        body body request.PaymentStatusUpdateRequest true "target status"
// @Success      200 {object} response.PaymentResponse
// @Security     Bearer
// @Router       /payments/{id}/status [put]
func (h *PaymentHandler) UpdatePaymentStatus(c *gin.Context) {
	id := c.Param("id")

	var req request.PaymentStatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	log.Printf("[payment][handler] admin override start payment_id=%s target=%s admin=%s", id, req.Status, c.GetString(middleware.CtxUserID))

	p, err := h.reconciliation.AdminOverride(c.Request.Context(), id, entities.PaymentStatus(req.Status))
	if err != nil {
		log.Printf("[payment][handler] admin override failed payment_id=%s err=%v", id, err)
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromPayment(p))
}

// ListPayments returns the filtered admin listing.
//
// @Summary      List payments (admin)
// @Tags         payments
// @Produce      json
// @Success      200 {object} response.PaymentListResponse
// @Security     Bearer
// @Router       /payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	filter := interfaces.PaymentFilter{
		Status:   entities.PaymentStatus(c.Query("status")),
		Provider: c.Query("provider"),
		Limit:    queryInt(c, "limit", 50),
		Page:     queryInt(c, "page", 1),
	}
	filter.StartDate = queryTime(c, "start_date")
	filter.EndDate = queryTime(c, "end_date")

	payments, err := h.payments.List(c.Request.Context(), filter)
	if err != nil {
		log.Printf("[payment][handler] list failed err=%v", err)
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromPayments(payments, filter.Page, filter.Limit))
}

// GetPaymentStats returns by-status and by-provider aggregates.
//
// @Summary      Payment stats overview (admin)
// @Tags         payments
// @Produce      json
// @Success      200 {object} usecase.PaymentStats
// @Security     Bearer
// @Router       /payments/stats/overview [get]
func (h *PaymentHandler) GetPaymentStats(c *gin.Context) {
	stats, err := h.payments.Stats(c.Request.Context(), queryTime(c, "start_date"), queryTime(c, "end_date"))
	if err != nil {
		log.Printf("[payment][handler] stats failed err=%v", err)
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, stats)
}

func mapPaymentError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidPaymentAmount), errors.Is(err, usecase.ErrInvalidPaymentID), errors.Is(err, usecase.ErrInvalidOverrideStatus):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPaymentNotFound):
		return pkg.NewDomainErrorSimple("PAYMENT_NOT_FOUND", "Payment not found", http.StatusNotFound)
	case errors.Is(err, interfaces.ErrGatewayRejected):
		return pkg.NewDomainError("GATEWAY_REJECTED", "Payment provider rejected the session request", err, http.StatusBadGateway)
	case errors.Is(err, interfaces.ErrGatewayUnavailable):
		return pkg.NewDomainError("GATEWAY_UNAVAILABLE", "Payment provider unavailable", err, http.StatusServiceUnavailable)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func queryTime(c *gin.Context, key string) time.Time {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
