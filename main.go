package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nova-rewards-system/handlers"
	"nova-rewards-system/middleware"
	"nova-rewards-system/models"
	"nova-rewards-system/services"
	"nova-rewards-system/utils"
	"nova-rewards-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New()

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(allowedOriginsList, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Account{},
		&models.ChannelCounter{},
		&models.TaskChannel{},
		&models.ClaimToken{},
		&models.Giftcode{},
		&models.GiftcodeRedemption{},
		&models.WithdrawalRequest{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	cfg := services.DefaultConfig()
	locks := services.NewLocks()

	accountService := services.NewAccountService(db, cfg, locks)
	channelService := services.NewChannelService(db)
	taskService := services.NewTaskService(db, cfg, locks)
	giftcodeService := services.NewGiftcodeService(db, locks)
	withdrawalService := services.NewWithdrawalService(db, cfg, locks)
	auditService := services.NewAuditService(db, cfg, locks)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditWorker := workers.NewIntegrityAuditWorker(auditService, time.Hour)
	go auditWorker.Start(ctx)

	archiveWorker := workers.NewActivityArchiveWorker(db, cfg.LogRetention)
	go archiveWorker.Start(ctx)

	accountService.StartDailyResetScheduler()
	giftcodeService.StartExpirySweep()

	// ✅ Setup routes — enforced Gateway auth + user context on /s/
	handlers.SetupAccountRoutes(app, accountService)
	handlers.SetupTaskRoutes(app, taskService, accountService, channelService)
	handlers.SetupGiftcodeRoutes(app, giftcodeService, accountService)
	handlers.SetupWithdrawalRoutes(app, withdrawalService, accountService)
	handlers.SetupAdminRoutes(app, accountService, channelService, giftcodeService, withdrawalService, auditService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Integrity audit worker running (hourly sweep)")
	log.Println("✅ Daily reset + giftcode expiry schedulers running")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")

	<-ctx.Done()
	log.Println("Shutting down server...")
}
