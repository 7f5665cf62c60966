package routes

import (
	"log"
	"os"
	"strconv"

	_ "yangu_payments/docs" // This will be auto-generated
	"yangu_payments/internal/adapter/http/handlers"
	"yangu_payments/internal/adapter/http/middleware"
	repository2 "yangu_payments/internal/adapter/persistence/repository"
	"yangu_payments/internal/infrastructure/database"
	"yangu_payments/internal/infrastructure/payments"
	"yangu_payments/internal/usecase"
	"yangu_payments/internal/usecase/interfaces"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var router = gin.Default()

const PORT = 8080

// Run will start the server
func Run() {
	setMiddlewares()

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	getRoutes()

	err := router.Run(":" + strconv.Itoa(PORT))
	if err != nil {
		log.Fatalf("Failed to startup the application: %v", err.Error())
	}
}

func getRoutes() {
	ddb := database.ConnectDynamoDB()

	paymentRepo := repository2.NewPaymentDynamoRepository(ddb)
	orderRepo := repository2.NewOrderDynamoRepository(ddb)

	var paymentGateway interfaces.IPaymentGateway
	flwGateway, err := payments.NewFlutterwaveGateway(os.Getenv("FLW_BASE_URL"), os.Getenv("FLW_SECRET_KEY"), nil)
	if err != nil {
		log.Printf("Flutterwave gateway not configured: %v", err)
	} else {
		paymentGateway = flwGateway
	}

	paymentUseCase := usecase.NewPaymentUseCase(paymentRepo, paymentGateway, os.Getenv("DEFAULT_CURRENCY"))
	reconciliationUseCase := usecase.NewReconciliationUseCase(paymentRepo, orderRepo)

	verifier := payments.NewSignatureVerifier(webhookSecret())

	paymentHandler := handlers.NewPaymentHandler(paymentUseCase, reconciliationUseCase, os.Getenv("FLW_REDIRECT_URL"))
	webhookHandler := handlers.NewWebhookHandler(verifier, reconciliationUseCase)

	authMiddleware := middleware.RequireAuth(os.Getenv("JWT_SECRET"))

	v1 := router.Group("/v1")
	addPingRoutes(v1)
	addPaymentRoutes(v1, paymentHandler, webhookHandler, authMiddleware)
}

// webhookSecret prefers a dedicated webhook secret and falls back to the
// gateway key, which is what Flutterwave signs with when none is set.
func webhookSecret() string {
	if v := os.Getenv("FLW_WEBHOOK_SECRET"); v != "" {
		return v
	}
	return os.Getenv("FLW_SECRET_KEY")
}

func setMiddlewares() {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("Recovered from panic: %v", recovered)
		c.AbortWithStatus(500)
	}))
}
