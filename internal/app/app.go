package app

import (
	"database/sql"
	"fmt"
	"log"

	"gruzclick/internal/config"
	"gruzclick/internal/handlers"
	"gruzclick/internal/middleware"
	"gruzclick/internal/pdf"
	"gruzclick/internal/repositories"
	"gruzclick/internal/routes"
	"gruzclick/internal/security"
	"gruzclick/internal/services"
	"gruzclick/internal/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "gruzclick/docs"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Ошибка подключения к БД: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка закрытия БД: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	adminRepo := repositories.NewAdminRepository(db)
	verifRepo := repositories.NewVerificationCodeRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)
	logRepo := repositories.NewLoginLogRepository(db)
	deliveryRepo := repositories.NewDeliveryRepository(db)
	vehicleRepo := repositories.NewVehicleRepository(db)
	addressRepo := repositories.NewAddressRepository(db)
	markerRepo := repositories.NewMarkerRepository(db)

	// === Брутфорс-защита ===
	// Несколько инстансов делят состояние через Redis; без него — память процесса.
	var store security.AttemptStore
	if cfg.Security.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Security.RedisAddr,
			Password: cfg.Security.RedisPassword,
		})
		store = security.NewRedisStore(rdb)
		log.Printf("[app] limiter state in redis addr=%s", cfg.Security.RedisAddr)
	} else {
		store = security.NewMemoryStore()
		log.Printf("[app] limiter state in memory (single instance)")
	}
	// порог по IP вдвое выше аккаунтного: за одним адресом могут сидеть
	// несколько легитимных пользователей
	ipLimiter := security.NewLimiter(store,
		cfg.Security.MaxLoginAttempts*2, cfg.Security.AttemptWindow, cfg.Security.LockoutDuration)
	acctLimiter := security.NewLimiter(store,
		cfg.Security.MaxLoginAttempts, cfg.Security.AttemptWindow, cfg.Security.LockoutDuration)

	// === Services ===
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)

	mobizonClient := utils.NewClientWithOptions(
		cfg.Mobizon.APIKey,
		cfg.Mobizon.SenderID,
		cfg.Mobizon.DryRun,
	)

	telegramService, err := services.NewTelegramService(cfg.Telegram.BotToken, cfg.Telegram.DryRun, userRepo)
	if err != nil {
		log.Fatal("Ошибка инициализации Telegram-бота: ", err)
	}
	go telegramService.Run()

	tokenService := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.SessionTTL, cfg.JWT.RememberTTL)

	senders := services.NewChannelSenders(emailService, mobizonClient, telegramService)
	verifService := services.NewVerificationService(verifRepo, userRepo, senders)

	authService := services.NewAuthService(
		userRepo, logRepo, verifService, emailService, tokenService,
		ipLimiter, acctLimiter,
		cfg.Security.MaxLoginAttempts, cfg.Security.LockoutDuration,
	)
	resetService := services.NewPasswordResetService(userRepo, resetRepo, emailService, authService)
	adminService := services.NewAdminService(adminRepo, resetRepo, emailService, tokenService, telegramService, ipLimiter, acctLimiter)

	deliveryService := services.NewDeliveryService(deliveryRepo)
	vehicleService := services.NewVehicleService(vehicleRepo)
	profileService := services.NewProfileService(userRepo, addressRepo, vehicleRepo)
	mapService := services.NewMapService(markerRepo)

	// PDF накладных (TTF с кириллицей, см. assets/fonts)
	waybillGen := pdf.NewWaybillGenerator("./files", "assets/fonts/DejaVuSans.ttf")

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(authService, resetService)
	adminHandler := handlers.NewAdminHandler(adminService, tokenService)
	verifyHandler := handlers.NewVerifyHandler(verifService, userRepo, tokenService, cfg.Security.ExposeCodes)
	deliveryHandler := handlers.NewDeliveryHandler(deliveryService, userRepo, waybillGen)
	vehicleHandler := handlers.NewVehicleHandler(vehicleService)
	profileHandler := handlers.NewProfileHandler(profileService)
	mapHandler := handlers.NewMapHandler(mapService)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Throttle(100.0/60.0, 20)) // ~100 запросов в минуту на IP

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Сгенерированные накладные
	router.Static("/files", "./files")

	routes.SetupRoutes(
		router,
		tokenService,
		authHandler,
		adminHandler,
		verifyHandler,
		deliveryHandler,
		vehicleHandler,
		profileHandler,
		mapHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Ошибка запуска сервера: ", err)
	}
}
