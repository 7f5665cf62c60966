package routes

import (
	"yangu_payments/internal/adapter/http/handlers"
	"yangu_payments/internal/adapter/http/middleware"

	"github.com/gin-gonic/gin"
)

const PathPayments = "/payments"

func addPaymentRoutes(rg *gin.RouterGroup, paymentHandler *handlers.PaymentHandler, webhookHandler *handlers.WebhookHandler, auth gin.HandlerFunc) {
	payments := rg.Group(PathPayments)
	{
		// Provider webhook: no auth beyond the body signature.
		payments.POST("/webhook", webhookHandler.HandleWebhook)

		payments.POST("/initiate", auth, paymentHandler.Initiate)
		payments.GET("/:id/status", auth, paymentHandler.GetPaymentStatus)

		// Admin surface.
		payments.GET("", auth, middleware.RequireAdmin(), paymentHandler.ListPayments)
		payments.GET("/stats/overview", auth, middleware.RequireAdmin(), paymentHandler.GetPaymentStats)
		payments.PUT("/:id/status", auth, middleware.RequireAdmin(), paymentHandler.UpdatePaymentStatus)
	}
}
