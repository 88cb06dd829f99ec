package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/plastinin/stepconverter/internal/adapter/http/handler"
	httpmiddleware "github.com/plastinin/stepconverter/internal/adapter/http/middleware"
	"github.com/plastinin/stepconverter/internal/config"
	"go.uber.org/zap"
)

// NewRouter создаёт и настраивает HTTP роутер
func NewRouter(
	conversionHandler *handler.ConversionHandler,
	authHandler *handler.AuthHandler,
	taskHandler *handler.TaskHandler,
	healthHandler *handler.HealthHandler,
	corsCfg config.CORSConfig,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsCfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(middleware.Compress(5))

	// Health check (вне версионирования API)
	r.Get("/health", healthHandler.Check)

	// Синхронная конвертация
	r.Post("/convert", conversionHandler.Convert)

	r.Route("/api", func(r chi.Router) {
		r.Post("/convert-step", conversionHandler.Convert)
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.Route("/v1/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.Create)
			r.Get("/", taskHandler.List)
			r.Get("/{id}", taskHandler.GetByID)
			r.Delete("/{id}", taskHandler.Delete)
		})
	})

	return r
}
