// Package api exposes the cost wizard over HTTP. Each client works on its
// own server-side session, addressed by id.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mrsinham/ircost/internal/catalog"
	"github.com/mrsinham/ircost/internal/config"
	"github.com/mrsinham/ircost/internal/session"
	"github.com/mrsinham/ircost/internal/tables"
	"go.uber.org/zap"
)

// Server represents the API server
type Server struct {
	config   *config.Config
	router   chi.Router
	handlers *Handlers
	logger   *zap.Logger
}

// NewServer creates a new API server over loaded reference data.
func NewServer(cfg *config.Config, cat *catalog.Catalog, tb *tables.Tables, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	handlers, err := NewHandlers(cfg, cat, tb, session.NewStore(cat, tb, cfg.SessionOptions(), cfg.Server.SessionIdleTimeout, logger), logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		handlers: handlers,
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Reference data
		r.Get("/catalog", s.handlers.ListCatalog)
		r.Get("/schemes", s.handlers.ListSchemes)
		r.Get("/operations", s.handlers.ListOperations)

		// Wizard sessions
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handlers.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handlers.GetSession)
				r.Delete("/", s.handlers.DeleteSession)

				r.Put("/patient", s.handlers.CommitPatient)
				r.Put("/operation", s.handlers.CommitOperation)
				r.Put("/equipment", s.handlers.CommitEquipment)

				r.Post("/next", s.handlers.Next)
				r.Post("/previous", s.handlers.Previous)

				r.Get("/report", s.handlers.DownloadReport)
			})
		})
	})
}

// Router returns the chi router
func (s *Server) Router() http.Handler {
	return s.router
}

// requestLogger logs one line per request once the response is written.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info("request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
