// Пакет server — HTTP-сервер Task Tracker API с graceful shutdown.
// Без TLS: TLS termination на ingress.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/tasktracker/internal/api/errors"
	"github.com/bigkaa/tasktracker/internal/api/handlers"
	"github.com/bigkaa/tasktracker/internal/api/middleware"
	"github.com/bigkaa/tasktracker/internal/config"
	"github.com/bigkaa/tasktracker/internal/domain/rbac"
)

// Deps — обработчики и middleware, из которых собирается роутер.
type Deps struct {
	API    *handlers.APIHandler
	Health *handlers.HealthHandler
	Auth   *middleware.Authenticator
	// Validator может быть nil (без проверки по OpenAPI-контракту)
	Validator *middleware.RequestValidator
}

// Server — HTTP-сервер Task Tracker API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, deps Deps) *Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           NewRouter(cfg, logger, deps),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает роутер API. Health, metrics и контракт доступны
// без токена; обмен токена провайдера — без токена приложения;
// остальные маршруты требуют Bearer-токен и права роли.
func NewRouter(cfg *config.Config, logger *slog.Logger, deps Deps) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.RequestID())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.NotFound(w, "Not found.")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	// Служебные endpoints проверяются Kubernetes напрямую
	router.Get("/health/live", deps.Health.HealthLive)
	router.Get("/health/ready", deps.Health.HealthReady)
	router.Get("/metrics", deps.Health.GetMetrics)
	router.Get("/openapi.yaml", deps.Health.GetOpenAPISpec)

	// Маршруты регистрируются плоско (без Mount): валидатору нужен
	// полный шаблон маршрута. Порядок: аутентификация, права, контракт.
	validate := func(next http.Handler) http.Handler { return next }
	if deps.Validator != nil {
		validate = deps.Validator.Middleware()
	}

	router.With(validate).Post("/auth/provider", deps.API.ProviderLogin)
	router.With(validate).Post("/auth/google", deps.API.ProviderLogin)

	router.Group(func(r chi.Router) {
		r.Use(deps.Auth.Middleware())

		r.With(middleware.RequireKnownRole()).Get("/auth/me", deps.API.Me)

		api := deps.API
		resource(r, validate, "/projects", rbac.EntityProject, crud{
			list: api.ListProjects, get: api.GetProject,
			create: api.CreateProject, update: api.UpdateProject, remove: api.DeleteProject,
		})
		resource(r, validate, "/tasks", rbac.EntityTask, crud{
			list: api.ListTasks, get: api.GetTask,
			create: api.CreateTask, update: api.UpdateTask, remove: api.DeleteTask,
		})
		resource(r, validate, "/users", rbac.EntityUser, crud{
			list: api.ListUsers, get: api.GetUser,
			create: api.CreateUser, update: api.UpdateUser, remove: api.DeleteUser,
		})
		resource(r, validate, "/roles", rbac.EntityRole, crud{
			list: api.ListRoles, get: api.GetRole,
			create: api.CreateRole, update: api.UpdateRole, remove: api.DeleteRole,
		})
	})

	return router
}

// crud — обработчики коллекции.
type crud struct {
	list, get, create, update, remove http.HandlerFunc
}

// resource регистрирует маршруты коллекции: GET/POST base+"/",
// GET/PUT/DELETE base+"/{id}", каждый со своей проверкой прав.
func resource(r chi.Router, validate func(http.Handler) http.Handler, base string, entity rbac.Entity, h crud) {
	collection := base + "/"
	item := base + "/{id}"
	allow := func(op rbac.Operation) chi.Router {
		return r.With(middleware.RequirePermission(entity, op), validate)
	}

	allow(rbac.OpList).Get(collection, h.list)
	allow(rbac.OpCreate).Post(collection, h.create)
	allow(rbac.OpGet).Get(item, h.get)
	allow(rbac.OpUpdate).Put(item, h.update)
	allow(rbac.OpDelete).Delete(item, h.remove)
}

// Run запускает сервер и ожидает отмены ctx, после чего выполняет
// graceful shutdown с таймаутом ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Получен сигнал завершения")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
		return nil
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
