// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/adspoint/adspoint-backend/internal/config"
	"github.com/adspoint/adspoint-backend/internal/handlers"
	"github.com/adspoint/adspoint-backend/internal/middleware"
	"github.com/adspoint/adspoint-backend/internal/models"
	"github.com/adspoint/adspoint-backend/internal/services"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

// Initialize wires the service graph and mounts the HTTP surface. The
// returned scheduler is started separately by main so tests can mount
// the router without background sweeps.
func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, *services.SchedulerService) {
	// Services
	notificationService := services.NewNotificationService(db, cfg.Telegram)
	storageService, _ := services.NewStorageService(cfg)
	fetcher := services.NewTelegramPostFetcher(cfg.Telegram)
	verificationService := services.NewVerificationService(fetcher)
	statsCollector := services.NewStatsCollector(fetcher)
	paymentService := services.NewPaymentService(db, cfg)
	contractService := services.NewContractService(db, cfg, verificationService,
		paymentService, notificationService, statsCollector)
	responseService := services.NewResponseService(db, contractService, notificationService)
	offerService := services.NewOfferService(db)
	channelService := services.NewChannelService(db)
	authService := services.NewAuthService(db, cfg)
	schedulerService := services.NewSchedulerService(db, cfg, contractService,
		verificationService, notificationService)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	offerHandler := handlers.NewOfferHandler(offerService, storageService)
	responseHandler := handlers.NewResponseHandler(responseService)
	contractHandler := handlers.NewContractHandler(contractService)
	channelHandler := handlers.NewChannelHandler(channelService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.Frontend.WebAppURL))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/telegram", authHandler.TelegramLogin)
			auth.POST("/admin/login", authHandler.AdminLogin)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		channels := v1.Group("/channels")
		{
			channels.GET("", middleware.OptionalAuth(), channelHandler.ListChannels)
			channels.GET("/:id", channelHandler.GetChannel)

			protected := channels.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.GET("/my", channelHandler.ListMyChannels)
				protected.POST("", middleware.RoleRequired(models.UserTypePublisher), channelHandler.RegisterChannel)
				protected.PUT("/:id", channelHandler.UpdateChannel)
				protected.DELETE("/:id", channelHandler.DeleteChannel)
			}
		}

		offers := v1.Group("/offers")
		{
			offers.GET("", middleware.OptionalAuth(), offerHandler.ListOffers)

			protected := offers.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.GET("/my", offerHandler.ListMyOffers)
				protected.POST("", middleware.RoleRequired(models.UserTypeAdvertiser), offerHandler.CreateOffer)
				protected.POST("/creatives", middleware.UploadRateLimit(), offerHandler.UploadCreative)
				protected.GET("/creatives/:key/url", offerHandler.PresignCreative)
				protected.GET("/:id", offerHandler.GetOffer)
				protected.PUT("/:id", offerHandler.UpdateOffer)
				protected.DELETE("/:id", offerHandler.DeleteOffer)
				protected.POST("/:id/pause", offerHandler.PauseOffer)
				protected.POST("/:id/resume", offerHandler.ResumeOffer)
				protected.POST("/:id/cancel", offerHandler.CancelOffer)
				protected.GET("/:id/responses", responseHandler.ListOfferResponses)
			}
		}

		responses := v1.Group("/responses")
		responses.Use(middleware.AuthRequired())
		{
			responses.POST("", middleware.RoleRequired(models.UserTypePublisher), responseHandler.SubmitResponse)
			responses.GET("/my", responseHandler.ListMyResponses)
			responses.POST("/:id/accept", responseHandler.AcceptResponse)
			responses.POST("/:id/reject", responseHandler.RejectResponse)
		}

		contracts := v1.Group("/contracts")
		contracts.Use(middleware.AuthRequired())
		{
			contracts.GET("", contractHandler.ListContracts)
			contracts.GET("/:id", contractHandler.GetContract)
			contracts.POST("/:id/fund", contractHandler.FundContract)
			contracts.POST("/:id/placement", middleware.RoleRequired(models.UserTypePublisher), contractHandler.SubmitPlacement)
			contracts.POST("/:id/verify", contractHandler.VerifyPlacement)
			contracts.DELETE("/:id", contractHandler.DeleteFailedContract)
			contracts.GET("/:id/payments", paymentHandler.GetContractPayments)
		}

		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.GET("", paymentHandler.GetPaymentHistory)
			payments.GET("/balance", paymentHandler.GetBalance)
			payments.GET("/:id", paymentHandler.GetPayment)
		}
	}

	return r, schedulerService
}
