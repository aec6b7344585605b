package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/ignatzorin/household-backend/internal/cache"
	"github.com/ignatzorin/household-backend/internal/config"
	"github.com/ignatzorin/household-backend/internal/db"
	httpHandlers "github.com/ignatzorin/household-backend/internal/http/handlers"
	"github.com/ignatzorin/household-backend/internal/http/middleware"
	httpRouter "github.com/ignatzorin/household-backend/internal/http/router"
	"github.com/ignatzorin/household-backend/internal/logger"
	"github.com/ignatzorin/household-backend/internal/repository"
	"github.com/ignatzorin/household-backend/internal/service"
	"github.com/ignatzorin/household-backend/internal/storage"
	"github.com/ignatzorin/household-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		logger.Log.Fatalf("main: ошибка миграций: %v", err)
	}

	documents, err := newDocumentStore(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("main: не удалось подготовить хранилище документов: %v", err)
	}

	// Redis необязателен: без него лимиты считаются в памяти процесса.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = cache.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Log.Fatalf("main: %v", err)
		}
		defer func() {
			if err := cache.DisconnectRedis(rdb); err != nil {
				logger.Log.Warn(err)
			}
		}()
	}
	limitStore, err := middleware.NewRateLimitStore(rdb)
	if err != nil {
		logger.Log.Fatalf("main: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	serviceRepo := repository.NewServiceRepository(dbConn)
	requestRepo := repository.NewRequestRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	go hub.Run()

	// Сервисы.
	summaryCache := service.NewCacheService(time.Minute)
	defer summaryCache.Close()

	authService := service.NewAuthService(userRepo, serviceRepo, documents, tokenManager)
	if err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Log.Fatalf("main: не удалось создать администратора: %v", err)
	}

	requestService := service.NewRequestService(requestRepo, userRepo, serviceRepo)
	requestService.SetNotifier(hub)
	requestService.SetCache(summaryCache)

	adminService := service.NewAdminService(userRepo, documents, summaryCache)
	catalogService := service.NewCatalogService(serviceRepo, summaryCache)
	summaryService := service.NewSummaryService(requestRepo, userRepo, summaryCache, cfg.SummaryCacheTTL)
	dashboardService := service.NewDashboardService(requestRepo, userRepo, serviceRepo)
	searchService := service.NewSearchService(userRepo, serviceRepo, requestRepo, userRepo)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Auth:      httpHandlers.NewAuthHandler(authService, cfg.MaxUploadSizeMB),
		Catalog:   httpHandlers.NewCatalogHandler(catalogService),
		Admin:     httpHandlers.NewAdminHandler(adminService),
		Requests:  httpHandlers.NewRequestHandler(requestService),
		Dashboard: httpHandlers.NewDashboardHandler(dashboardService, summaryService),
		Search:    httpHandlers.NewSearchHandler(searchService),
		Health:    httpHandlers.NewHealthHandler(dbConn),
		WS:        httpHandlers.NewWSHandler(hub, cfg.AllowedOrigins),
	}, tokenManager, limitStore)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Errorf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	logger.Log.Infof("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// newDocumentStore выбирает хранилище документов специалистов по конфигурации.
func newDocumentStore(ctx context.Context, cfg *config.Config) (storage.DocumentStore, error) {
	if cfg.DocumentStorage == config.DocumentStorageS3 {
		return storage.NewS3Storage(ctx, storage.S3Options{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Bucket:          cfg.AWS.Bucket,
			Endpoint:        cfg.AWS.Endpoint,
			MaxUploadMB:     cfg.MaxUploadSizeMB,
		})
	}
	return storage.NewLocalStorage(cfg.DocumentStoragePath, cfg.MaxUploadSizeMB)
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.Errorf("main: ошибка закрытия базы: %v", err)
	}
}
