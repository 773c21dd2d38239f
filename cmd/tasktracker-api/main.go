// main.go — точка входа REST API Task Tracker.
// Инициализация: config → logger → migrations → pgxpool → repositories →
// provider verifier / app tokens → services → dephealth → HTTP-сервер.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/tasktracker/internal/api/handlers"
	"github.com/bigkaa/tasktracker/internal/api/middleware"
	"github.com/bigkaa/tasktracker/internal/api/openapi"
	"github.com/bigkaa/tasktracker/internal/apptoken"
	"github.com/bigkaa/tasktracker/internal/config"
	"github.com/bigkaa/tasktracker/internal/database"
	"github.com/bigkaa/tasktracker/internal/idp"
	"github.com/bigkaa/tasktracker/internal/repository"
	"github.com/bigkaa/tasktracker/internal/server"
	"github.com/bigkaa/tasktracker/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Task Tracker API запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Применение миграций БД
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка применения миграций", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Repositories
	stores := repository.NewStores(pool)
	txRunner := repository.NewTxRunner(pool)

	// 6. Проверка ID-токенов провайдера и выпуск токенов приложения
	verifier, err := idp.NewVerifier(ctx,
		cfg.GoogleJWKSURL,
		cfg.GoogleClientID,
		cfg.GoogleIssuers,
		cfg.JWKSClientTimeout,
		cfg.JWKSRefreshInterval,
		cfg.JWTLeeway,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка инициализации JWKS провайдера", slog.String("error", err.Error()))
		os.Exit(1)
	}
	issuer := apptoken.NewIssuer(cfg.JWTSecret, cfg.JWTTTL, cfg.JWTLeeway)
	logger.Info("Проверка токенов провайдера инициализирована",
		slog.String("jwks_url", cfg.GoogleJWKSURL),
		slog.Any("issuers", cfg.GoogleIssuers),
	)

	// 7. Services
	authSvc := service.NewAuthService(verifier, issuer, txRunner, stores.Users, logger)
	roleCache := service.NewRoleCache(authSvc, cfg.RoleCacheSize, cfg.RoleCacheTTL)
	apiHandler := handlers.NewAPIHandler(handlers.Services{
		Projects:  service.NewProjectService(stores.Projects, logger),
		Tasks:     service.NewTaskService(stores.Tasks, logger),
		Users:     service.NewUserService(stores.Users, logger),
		Roles:     service.NewRoleService(stores.Roles, logger),
		Auth:      authSvc,
		RoleCache: roleCache,
	}, logger)

	// 8. topologymetrics — мониторинг зависимостей (PostgreSQL + JWKS)
	dephealthSvc, err := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     "tasktracker-api",
		Group:         cfg.DephealthGroup,
		DB:            pgDB,
		PostgresURL:   cfg.DatabaseURL(),
		JWKSURL:       cfg.GoogleJWKSURL,
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
	} else if err := dephealthSvc.Start(ctx); err != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
	} else {
		defer dephealthSvc.Stop()
	}

	// 9. OpenAPI-контракт для проверки запросов
	doc, err := openapi.Load(ctx)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI-контракта", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 10. Readiness checkers (PostgreSQL + JWKS)
	healthHandler := handlers.NewHealthHandler(
		database.NewReadinessChecker(pool),
		idp.NewReadinessChecker(cfg.GoogleJWKSURL, cfg.JWKSClientTimeout),
		openapi.Spec(),
	)

	// 11. HTTP-сервер
	srv := server.New(cfg, logger, server.Deps{
		API:       apiHandler,
		Health:    healthHandler,
		Auth:      middleware.NewAuthenticator(issuer, roleCache, logger),
		Validator: middleware.NewRequestValidator(doc, logger),
	})

	// 12. Запуск сервера (блокирующий вызов с graceful shutdown)
	if err := srv.Run(ctx); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Task Tracker API остановлен")
}
