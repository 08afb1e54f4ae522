package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/api/handlers"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/config"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/middleware"
)

// SetupRouter sets up the Gin router with all routes and middleware
func SetupRouter(db *gorm.DB, cfg *config.Config, logger zerolog.Logger) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// CORS configuration
	corsConfig := cors.Config{
		AllowOriginFunc: func(origin string) bool {
			// Allow localhost for development
			if origin == "http://localhost:3000" || origin == "http://localhost:3001" {
				return true
			}
			// Allow configured frontend URL
			if origin == cfg.FrontendURL {
				return true
			}
			// Allow any vercel.app subdomain
			if strings.HasSuffix(origin, ".vercel.app") {
				return true
			}
			// Allow custom domain arkline.app
			if origin == "https://www.arkline.app" || origin == "https://arkline.app" {
				return true
			}
			return false
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}
	router.Use(cors.New(corsConfig))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg, logger)
	portfolioHandler := handlers.NewPortfolioHandler(db, cfg, logger)
	holdingHandler := handlers.NewHoldingHandler(db, cfg, logger)
	transactionHandler := handlers.NewTransactionHandler(db, cfg, logger)
	reminderHandler := handlers.NewReminderHandler(db, cfg, logger)
	riskHandler := handlers.NewRiskHandler(db, cfg, logger)
	marketHandler := handlers.NewMarketHandler(db, cfg, logger)
	notificationHandler := handlers.NewNotificationHandler(db, cfg, logger)

	// Public routes
	public := router.Group("/api")
	public.Use(middleware.LimitAuth())
	{
		public.POST("/login", authHandler.Login)
		public.POST("/register", authHandler.Register)
	}
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Protected routes
	protected := router.Group("/api")
	protected.Use(middleware.LimitAPI(), middleware.AuthMiddleware(cfg))
	{
		// Auth routes
		protected.POST("/logout", authHandler.Logout)
		protected.POST("/change-password", authHandler.ChangePassword)
		protected.GET("/me", authHandler.GetCurrentUser)

		// Portfolio routes
		protected.GET("/portfolios", portfolioHandler.GetAllPortfolios)
		protected.GET("/portfolios/:id", portfolioHandler.GetPortfolio)
		protected.POST("/portfolios", portfolioHandler.CreatePortfolio)
		protected.PUT("/portfolios/:id", portfolioHandler.UpdatePortfolio)
		protected.DELETE("/portfolios/:id", portfolioHandler.DeletePortfolio)
		protected.GET("/portfolios/:id/metrics", portfolioHandler.GetPortfolioMetrics)
		protected.GET("/portfolios/:id/history", portfolioHandler.GetPortfolioHistory)

		// Holding routes
		protected.GET("/portfolios/:id/holdings", holdingHandler.GetHoldings)
		protected.GET("/portfolios/:id/holdings/:holdingID", holdingHandler.GetHolding)
		protected.POST("/portfolios/:id/holdings", holdingHandler.CreateHolding)
		protected.PUT("/portfolios/:id/holdings/:holdingID", holdingHandler.UpdateHolding)
		protected.DELETE("/portfolios/:id/holdings/:holdingID", holdingHandler.DeleteHolding)

		// Trade routes
		protected.POST("/portfolios/:id/holdings/:holdingID/buy", holdingHandler.Buy)
		protected.POST("/portfolios/:id/holdings/:holdingID/sell", holdingHandler.Sell)

		// Transaction ledger routes
		protected.GET("/portfolios/:id/transactions", transactionHandler.GetTransactions)
		protected.GET("/portfolios/:id/transactions/export", transactionHandler.ExportCSV)

		// DCA reminder routes
		protected.GET("/reminders", reminderHandler.GetAllReminders)
		protected.GET("/reminders/:id", reminderHandler.GetReminder)
		protected.POST("/reminders", reminderHandler.CreateReminder)
		protected.PUT("/reminders/:id", reminderHandler.UpdateReminder)
		protected.DELETE("/reminders/:id", reminderHandler.DeleteReminder)
		protected.POST("/reminders/:id/invest", reminderHandler.InvestReminder)
		protected.POST("/reminders/:id/skip", reminderHandler.SkipReminder)
		protected.POST("/reminders/:id/toggle", reminderHandler.ToggleReminder)

		// Deleted reminders (log) routes
		protected.GET("/deleted-reminders", reminderHandler.GetDeletedReminders)
		protected.POST("/deleted-reminders/:id/restore", reminderHandler.RestoreReminder)

		// Risk reminder routes
		protected.GET("/risk-reminders", riskHandler.GetAllRiskReminders)
		protected.GET("/risk-reminders/:id", riskHandler.GetRiskReminder)
		protected.POST("/risk-reminders", riskHandler.CreateRiskReminder)
		protected.PUT("/risk-reminders/:id", riskHandler.UpdateRiskReminder)
		protected.DELETE("/risk-reminders/:id", riskHandler.DeleteRiskReminder)
		protected.POST("/risk-reminders/:id/dismiss", riskHandler.DismissRiskReminder)
		protected.POST("/risk-reminders/:id/invest", riskHandler.InvestRiskReminder)
		protected.POST("/risk-reminders/:id/pause", riskHandler.PauseRiskReminder)
		protected.POST("/risk-reminders/:id/resume", riskHandler.ResumeRiskReminder)

		// Quote routes
		protected.GET("/quotes", marketHandler.GetQuotes)
		protected.GET("/quotes/:symbol", marketHandler.GetQuote)
		protected.POST("/quotes/refresh", marketHandler.RefreshQuotes)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.DELETE("/notifications/:id", notificationHandler.DeleteNotification)
	}

	return router
}
