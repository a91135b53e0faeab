package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"chorebank/internal/config"
	"chorebank/internal/database"
	"chorebank/internal/handlers"
	"chorebank/internal/logger"
	"chorebank/internal/middleware"
	"chorebank/internal/services"
	"chorebank/internal/validator"
)

// @title           ChoreBank API
// @version         1.0
// @description     ChoreBank lets families manage chores, reward children with coins, and spend a shared point balance in a family store.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	familyService := services.NewFamilyService(db, userService)
	childService := services.NewChildService(db, userService)
	pointsLedger := services.NewPointsLedgerService(db)
	coinLedger := services.NewCoinLedgerService(db)
	catalogService := services.NewCatalogService(db, userService)
	settlementService := services.NewSettlementService(db, pointsLedger, coinLedger, catalogService)
	choreService := services.NewChoreService(db, userService, settlementService)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	familyHandler := handlers.NewFamilyHandler(familyService, auditService)
	childHandler := handlers.NewChildHandler(childService, coinLedger)
	choreHandler := handlers.NewChoreHandler(choreService)
	storeHandler := handlers.NewStoreHandler(catalogService, settlementService)
	ledgerHandler := handlers.NewLedgerHandler(userService, childService, pointsLedger, coinLedger, settlementService, auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile", authHandler.UpdateProfile)
	protected.POST("/auth/logout", authHandler.Logout)

	// Family routes
	families := protected.Group("/families")
	families.POST("", familyHandler.CreateFamily)
	families.POST("/join", familyHandler.RequestToJoin)
	families.GET("/mine", familyHandler.GetFamily)
	families.GET("/mine/members", familyHandler.GetMembers)
	families.GET("/mine/join-requests", familyHandler.ListJoinRequests)
	families.POST("/mine/join-requests/:id/approve", familyHandler.ApproveJoinRequest)
	families.POST("/mine/join-requests/:id/reject", familyHandler.RejectJoinRequest)

	// Child routes
	children := protected.Group("/children")
	children.POST("", childHandler.CreateChild)
	children.GET("", childHandler.ListChildren)
	children.GET("/:id", childHandler.GetChild)
	children.PUT("/:id", childHandler.UpdateChild)
	children.DELETE("/:id", childHandler.DeleteChild)
	children.POST("/:id/verify-pin", childHandler.VerifyPIN)

	// Chore routes
	chores := protected.Group("/chores")
	chores.POST("", choreHandler.CreateChore)
	chores.GET("", choreHandler.ListChores)
	chores.GET("/:id", choreHandler.GetChore)
	chores.PUT("/:id", choreHandler.UpdateChore)
	chores.POST("/:id/assign", choreHandler.AssignChore)
	chores.POST("/:id/submit", choreHandler.SubmitChore)
	chores.POST("/:id/approve", choreHandler.ApproveChore)
	chores.POST("/:id/reject", choreHandler.RejectChore)
	chores.POST("/:id/complete", choreHandler.CompleteChore)
	chores.POST("/:id/archive", choreHandler.ArchiveChore)

	// Store routes
	store := protected.Group("/store")
	store.POST("/rewards/individual", storeHandler.CreateIndividualReward)
	store.GET("/rewards/individual", storeHandler.ListIndividualRewards)
	store.PUT("/rewards/individual/:id", storeHandler.UpdateIndividualReward)
	store.DELETE("/rewards/individual/:id", storeHandler.DeleteIndividualReward)
	store.POST("/rewards/individual/:id/purchase", storeHandler.PurchaseIndividualReward)
	store.POST("/rewards/family", storeHandler.CreateFamilyReward)
	store.GET("/rewards/family", storeHandler.ListFamilyRewards)
	store.PUT("/rewards/family/:id", storeHandler.UpdateFamilyReward)
	store.DELETE("/rewards/family/:id", storeHandler.DeleteFamilyReward)
	store.POST("/rewards/family/:id/purchase", storeHandler.PurchaseFamilyReward)
	store.POST("/conversions", storeHandler.CreateConversionItem)
	store.GET("/conversions", storeHandler.ListConversionItems)
	store.PUT("/conversions/:id", storeHandler.UpdateConversionItem)
	store.DELETE("/conversions/:id", storeHandler.DeleteConversionItem)
	store.POST("/conversions/:id/convert", storeHandler.ConvertCoins)

	// Ledger routes
	ledger := protected.Group("/ledger")
	ledger.GET("/points", ledgerHandler.GetPointsBalance)
	ledger.PUT("/points", ledgerHandler.SetPoints)
	ledger.GET("/transactions", ledgerHandler.GetPointsTransactions)
	ledger.POST("/adjust", ledgerHandler.AdjustPoints)
	ledger.GET("/coins/:childID", ledgerHandler.GetCoinBalance)
	ledger.GET("/coins/:childID/transactions", ledgerHandler.GetCoinTransactions)

	log.Infof("Starting ChoreBank backend server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
