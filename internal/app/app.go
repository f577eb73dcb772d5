package app

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/genovesjohn191/dealfi/internal/config"
	"github.com/genovesjohn191/dealfi/internal/handlers"
	"github.com/genovesjohn191/dealfi/internal/pdf"
	"github.com/genovesjohn191/dealfi/internal/repositories"
	"github.com/genovesjohn191/dealfi/internal/routes"
	"github.com/genovesjohn191/dealfi/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/genovesjohn191/dealfi/docs"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	leadRepo := repositories.NewLeadRepository(db)
	referralRepo := repositories.NewReferralRepository(db)
	folderRepo := repositories.NewFolderRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)

	// === Services ===
	authService := services.NewAuthService()
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	telegramService := services.NewTelegramService(cfg.Telegram.BotToken, cfg.Telegram.DryRun)

	userService := services.NewUserService(userRepo, emailService, authService)
	referralService := services.NewReferralService(referralRepo, userRepo, emailService)
	leadService := services.NewLeadService(leadRepo, userRepo, emailService, telegramService, referralService)
	folderService := services.NewFolderService(folderRepo)
	resetService := services.NewPasswordResetService(userRepo, resetRepo, emailService, authService)

	pdfGen := pdf.NewDocumentGenerator(cfg.Files.RootDir)
	reportService := services.NewReportService(leadRepo, userRepo, pdfGen)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService, resetService)
	userHandler := handlers.NewUserHandler(userService, referralService)
	leadHandler := handlers.NewLeadHandler(leadService, userService)
	referralHandler := handlers.NewReferralHandler(referralService)
	folderHandler := handlers.NewFolderHandler(folderService)
	reportHandler := handlers.NewReportHandler(reportService, leadService, cfg.Files.RootDir)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// JWT/RBAC is applied inside SetupRoutes
	routes.SetupRoutes(
		router,
		authHandler,
		userHandler,
		leadHandler,
		referralHandler,
		folderHandler,
		reportHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
