package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/ignatzorin/ex-server/internal/avatar"
	"github.com/ignatzorin/ex-server/internal/config"
	"github.com/ignatzorin/ex-server/internal/db"
	"github.com/ignatzorin/ex-server/internal/goroutine"
	httpHandlers "github.com/ignatzorin/ex-server/internal/http/handlers"
	"github.com/ignatzorin/ex-server/internal/http/middleware"
	httpRouter "github.com/ignatzorin/ex-server/internal/http/router"
	"github.com/ignatzorin/ex-server/internal/logger"
	"github.com/ignatzorin/ex-server/internal/mailer"
	"github.com/ignatzorin/ex-server/internal/repository"
	"github.com/ignatzorin/ex-server/internal/scheduler"
	"github.com/ignatzorin/ex-server/internal/service"
	"github.com/ignatzorin/ex-server/internal/storage"
)

func main() {
	grantAdmin := flag.String("grant-admin", "", "выдать права администратора пользователю с этим email и выйти")
	flag.Parse()

	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logger.Init(cfg.LogLevel)
	if !cfg.IsProduction() {
		logger.SetTextFormatter()
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn); err != nil {
		logger.Log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	sessionRepo := repository.NewSessionRepository(dbConn)
	codeRepo := repository.NewCodeRepository(dbConn)

	if *grantAdmin != "" {
		user, err := userRepo.GrantAdmin(ctx, *grantAdmin)
		if err != nil {
			logger.Log.Fatalf("main: не удалось выдать права администратора: %v", err)
		}
		logger.Log.WithField("user_id", user.ID).Info("main: права администратора выданы")
		return
	}

	// Хранилище картинок.
	var (
		pictures       service.PictureStorage
		picturesDir    string
		picturesPrefix string
	)
	switch cfg.StorageBackend {
	case config.StorageBackendS3:
		s3Storage, err := storage.NewS3Storage(ctx, cfg.S3, strings.Trim(cfg.PictureDir, "/"), cfg.MaxUploadSizeMB)
		if err != nil {
			logger.Log.Fatalf("main: не удалось подготовить S3 хранилище: %v", err)
		}
		pictures = s3Storage
	default:
		localStorage, err := storage.NewLocalStorage(cfg.MediaStoragePath, cfg.PictureDir, cfg.MaxUploadSizeMB)
		if err != nil {
			logger.Log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
		}
		pictures = localStorage
		picturesDir = localStorage.Dir()
		picturesPrefix = localStorage.URLPrefix()
	}

	// Почта.
	var sender mailer.Sender
	if cfg.ResendAPIKey != "" {
		sender = mailer.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom)
	} else {
		logger.Log.Warn("main: RESEND_API_KEY не задан, письма будут только логироваться")
		sender = mailer.NewLogMailer(logger.Log)
	}

	// Хранилище счётчиков rate limit.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Log.Fatalf("main: некорректный REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Log.Fatalf("main: redis недоступен: %v", err)
		}
	}
	limiterStore, err := middleware.NewRateLimitStore(redisClient)
	if err != nil {
		logger.Log.Fatalf("main: %v", err)
	}

	// Сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	hasher := service.NewBcryptHasher(cfg.PasswordHashCost)

	authService := service.NewAuthService(userRepo, sessionRepo, hasher, tokenManager, pictures, avatar.NewRenderer())
	verificationService := service.NewVerificationService(userRepo, codeRepo, sender, hasher)
	userService := service.NewUserService(userRepo, pictures)

	// Очистка истёкших сессий и кодов.
	sweeper, err := scheduler.NewSweeper(cfg.CleanupSchedule, sessionRepo, codeRepo, logger.Log)
	if err != nil {
		logger.Log.Fatalf("main: %v", err)
	}
	sweeper.Start()

	// HTTP хэндлеры и роутер.
	engine := httpRouter.SetupRouter(cfg, httpRouter.Deps{
		Auth: httpHandlers.NewAuthHandler(authService, verificationService, httpHandlers.CookieOptions{
			Secure: cfg.IsProduction(),
			MaxAge: tokenManager.RefreshTTL(),
		}),
		Users:          httpHandlers.NewUserHandler(userService, cfg.MaxUploadSizeMB),
		Health:         httpHandlers.NewHealthHandler(dbConn),
		Authenticator:  authService,
		RateLimitStore: limiterStore,
		PicturesDir:    picturesDir,
		PicturesPrefix: picturesPrefix,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер и планировщик при получении сигнала.
	stopped := make(chan struct{})
	goroutine.GoWithContext(ctx, logger.Log, func(ctx context.Context) {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		sweeper.Stop(shutdownCtx)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Errorf("main: ошибка остановки http сервера: %v", err)
		}
	})

	logger.Log.Infof("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
	<-stopped
	logger.Log.Info("main: сервер остановлен")
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.Errorf("main: ошибка закрытия базы: %v", err)
	}
}
