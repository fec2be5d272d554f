package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/conversation-handoff/internal/middleware"
	"github.com/capitalize-ai/conversation-handoff/internal/service"
	"github.com/capitalize-ai/conversation-handoff/pkg/logger"
)

// RouterConfig carries everything the router needs.
type RouterConfig struct {
	Sessions          *service.SessionManager
	Health            *HealthHandler
	Logger            *logger.Logger
	JWTSecret         string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter builds the HTTP routes of the service.
func NewRouter(cfg RouterConfig) http.Handler {
	conversations := NewConversationHandler(cfg.Sessions, cfg.Logger)
	intents := NewIntentHandler(cfg.Sessions, cfg.Logger)
	mediaHandler := NewMediaHandler(cfg.Sessions)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Tracing)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	r.Get("/health", cfg.Health.Health)
	r.Get("/ready", cfg.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		if cfg.RateLimitRequests > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}

		r.Post("/bookings/{counterpartyId}/intents", intents.Record)

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversations.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversations.Get)
				r.Post("/messages", conversations.Send)
				r.Post("/read", conversations.MarkRead)
				r.Get("/gallery", mediaHandler.Gallery)
				r.Get("/invoice", mediaHandler.Invoice)
			})
		})
	})

	return r
}
