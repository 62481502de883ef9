package router

import (
	"log"
	"time"

	"shoprent/config"
	"shoprent/internal/domain"
	"shoprent/internal/handler"
	"shoprent/internal/middleware"
	"shoprent/internal/repository"
	"shoprent/internal/service"
	"shoprent/internal/ws"
	"shoprent/pkg/cloudinary"
	"shoprent/pkg/payment"
	"shoprent/pkg/shipping"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	rentalRepo := repository.NewRentalRepository(db)
	planRepo := repository.NewRentalPlanRepository(db)
	voucherRepo := repository.NewVoucherRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	txManager := repository.NewGormTxManager(db)

	statusHub := ws.NewHub()

	// External providers, with development fallbacks when unconfigured.
	var gateway payment.Provider
	if cfg.PayOS.ClientID != "" {
		gateway = payment.NewPayOSProvider(cfg.PayOS.BaseURL, cfg.PayOS.ClientID, cfg.PayOS.APIKey, cfg.PayOS.ChecksumKey)
		log.Printf("[Payment] PayOS gateway enabled")
	} else {
		gateway = &payment.StubProvider{}
		log.Printf("[Payment] no PayOS credentials, using stub gateway")
	}
	var quoter shipping.Quoter
	if cfg.GHN.Token != "" {
		quoter = shipping.NewGHNClient(cfg.GHN.BaseURL, cfg.GHN.Token, cfg.GHN.ShopID)
		log.Printf("[Shipping] GHN quotes enabled")
	} else {
		quoter = &shipping.FlatQuoter{Fee: cfg.GHN.FlatFee}
		log.Printf("[Shipping] no GHN token, quoting flat fee %d", cfg.GHN.FlatFee)
	}

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	notifSvc := service.NewNotificationService(notificationRepo, statusHub)
	paymentSvc := service.NewPaymentService(txManager, gateway, &cfg.Checkout)
	checkoutSvc := service.NewCheckoutService(txManager, userRepo, quoter, paymentSvc, notifSvc, &cfg.Checkout)
	rentalSvc := service.NewRentalService(txManager, paymentSvc, notifSvc)
	reconcileSvc := service.NewReconcileService(txManager, gateway, notifSvc)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, userRepo)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	productHandler := handler.NewProductHandler(productRepo, planRepo, cloud)
	cartHandler := handler.NewCartHandler(cartRepo, productRepo)
	orderHandler := handler.NewOrderHandler(checkoutSvc, paymentSvc, orderRepo)
	rentalHandler := handler.NewRentalHandler(rentalSvc, rentalRepo)
	voucherHandler := handler.NewVoucherHandler(voucherRepo)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	webhookHandler := handler.NewPaymentWebhookHandler(reconcileSvc)

	authMw := middleware.AuthRequired(&cfg.JWT, cfg.Checkout.DevUserID)
	adminMw := middleware.RequireRole(domain.RoleAdmin)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", authHandler.Me)
			me.PATCH("/profile", authHandler.UpdateProfile)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
			me.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
		}

		api.GET("/categories", productHandler.ListCategories)
		api.GET("/products", productHandler.List)
		api.GET("/products/:id", productHandler.Get)
		api.GET("/vouchers/:code/preview", voucherHandler.Preview)

		cart := api.Group("/cart")
		cart.Use(authMw)
		{
			cart.GET("", cartHandler.Get)
			cart.POST("/items", cartHandler.AddItem)
			cart.PATCH("/items/:itemId", cartHandler.UpdateItem)
			cart.DELETE("/items/:itemId", cartHandler.RemoveItem)
		}

		orders := api.Group("/orders")
		orders.Use(authMw)
		{
			orders.POST("/checkout", orderHandler.Checkout)
			orders.GET("", orderHandler.List)
			orders.GET("/:id", orderHandler.Get)
			orders.GET("/:id/status", orderHandler.Status)
			orders.POST("/:id/payment-link", orderHandler.CreatePaymentLink)
		}

		rentals := api.Group("/rentals")
		rentals.Use(authMw)
		{
			rentals.POST("", rentalHandler.Create)
			rentals.GET("", rentalHandler.List)
			rentals.GET("/:id/status", rentalHandler.Status)
			rentals.POST("/:id/checkout", rentalHandler.Checkout)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, adminMw)
		{
			admin.POST("/categories", productHandler.CreateCategory)
			admin.POST("/products", productHandler.Create)
			admin.PUT("/products/:id", productHandler.Update)
			admin.POST("/products/:id/image", productHandler.UploadImage)
			admin.PUT("/products/:id/rental-plan", productHandler.SetRentalPlan)
			admin.POST("/vouchers", voucherHandler.Create)
			admin.GET("/vouchers", voucherHandler.List)
			admin.POST("/rentals/:id/activate", rentalHandler.Activate)
			admin.POST("/rentals/:id/settle", rentalHandler.Settle)
		}

		api.POST("/webhooks/payment", webhookHandler.Handle)
	}

	r.GET("/ws/status", ws.UpgradeStatusWS(&cfg.JWT, statusHub))

	return r
}
