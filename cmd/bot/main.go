package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/gatekeeper-bot/internal/captcha"
	"github.com/yourusername/gatekeeper-bot/internal/config"
	"github.com/yourusername/gatekeeper-bot/internal/handler"
	"github.com/yourusername/gatekeeper-bot/internal/messenger"
	"github.com/yourusername/gatekeeper-bot/internal/middleware"
	redisRepo "github.com/yourusername/gatekeeper-bot/internal/repository/redis"
	"github.com/yourusername/gatekeeper-bot/internal/service"
	"github.com/yourusername/gatekeeper-bot/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозиторий проверок
	grace := time.Duration(cfg.Verification.GraceMinutes) * time.Minute
	verificationRepo, err := redisRepo.NewVerificationRepo(redisClient, cfg.Redis.DB, grace)
	if err != nil {
		log.Printf("Failed to initialize VerificationRepo: %v", err)
		os.Exit(1)
	}

	// Инициализируем мессенджер
	tg, err := messenger.NewFromToken(cfg.Telegram.Token)
	if err != nil {
		log.Printf("Failed to initialize Telegram messenger: %v", err)
		os.Exit(1)
	}

	// Инициализируем генератор капчи
	alphabet := service.AlphabetUpper
	switch cfg.Verification.CipherAlphabet {
	case "", "upper":
		alphabet = service.AlphabetUpper
	case "digits":
		alphabet = service.AlphabetDigits
	case "lowerdigits":
		alphabet = service.AlphabetLowerDigits
	default:
		log.Printf("Unknown cipher alphabet %q, falling back to upper", cfg.Verification.CipherAlphabet)
	}
	generator, err := service.NewPhotoCipherGenerator(cfg.Telegram.CaptchaEndpoint, alphabet, cfg.Verification.CipherLength)
	if err != nil {
		log.Printf("Failed to initialize cipher generator: %v", err)
		os.Exit(1)
	}

	// Инициализируем сервисы
	cleanup, err := service.NewCleanupDispatcher(tg)
	if err != nil {
		log.Printf("Failed to initialize CleanupDispatcher: %v", err)
		os.Exit(1)
	}
	ttl := time.Duration(cfg.Verification.TTLMinutes) * time.Minute
	verificationService, err := service.NewVerificationService(verificationRepo, tg, generator, cleanup, ttl)
	if err != nil {
		log.Printf("Failed to initialize VerificationService: %v", err)
		os.Exit(1)
	}

	// Создаем контекст с отменой для корректного завершения работы горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запускаем reaper истёкших проверок
	reaper, err := service.NewExpiryReaper(verificationRepo, verificationRepo, cleanup)
	if err != nil {
		log.Printf("Failed to initialize ExpiryReaper: %v", err)
		os.Exit(1)
	}
	if err := verificationRepo.EnableExpiryNotifications(ctx); err != nil {
		// На managed Redis CONFIG SET может быть запрещён: события нужно
		// включить на стороне провайдера (notify-keyspace-events = Ex)
		log.Printf("Warning: failed to enable keyspace notifications: %v", err)
	}
	go func() {
		if err := reaper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("ExpiryReaper stopped with error: %v", err)
		}
	}()

	// Инициализируем рендерер капчи
	renderer, err := captcha.NewRenderer()
	if err != nil {
		log.Printf("Failed to initialize captcha renderer: %v", err)
		os.Exit(1)
	}

	// Инициализируем обработчики
	webhookHandler := handler.NewWebhookHandler(verificationService)
	captchaHandler := handler.NewCaptchaHandler(renderer)

	// Инициализируем роутер Gin
	router := gin.Default()

	// Вебхук вызывают только серверы Telegram: прокси-заголовкам не доверяем
	if err := router.SetTrustedProxies(nil); err != nil {
		log.Printf("Warning: failed to set trusted proxies: %v", err)
	}

	rateLimiter := middleware.NewRateLimiter(redisClient)

	router.POST("/webhook", middleware.WebhookSecret(cfg.Telegram.WebhookSecret), webhookHandler.HandleUpdate)
	router.GET("/captcha", rateLimiter.LimitByIP(middleware.CaptchaRateLimitConfig()), captchaHandler.HandleImage)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	// После получения сигнала SIGINT или SIGTERM вызываем cancel() для завершения горутин
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Отправляем сигнал завершения reaper-у
	cancel()

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
