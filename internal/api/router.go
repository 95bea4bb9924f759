package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JoaquinFreire/odontologiafinal/internal/auth"
	"github.com/JoaquinFreire/odontologiafinal/internal/schedule"
)

type RouterConfig struct {
	Service *schedule.Service
	Users   auth.UserStore
	Issuer  *auth.TokenIssuer
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
	Logger  *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Post("/api/auth/login", loginHandler(cfg.Users, cfg.Issuer))

	// Everything under /api/appointments is practitioner-scoped.
	r.Route("/api/appointments", func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Issuer))

		r.Get("/", listActiveHandler(cfg.Service))
		r.Get("/today", listTodayHandler(cfg.Service))
		r.Get("/overdue", listOverdueHandler(cfg.Service))
		r.Get("/pending/total", countActiveHandler(cfg.Service))
		r.Get("/week", weekHandler(cfg.Service))
		r.Get("/{id}", getAppointmentHandler(cfg.Service))
		r.Post("/", createAppointmentHandler(cfg.Service))
		r.Put("/{id}", updateAppointmentHandler(cfg.Service))
		r.Patch("/{id}/complete", completeAppointmentHandler(cfg.Service))
		r.Delete("/{id}", deleteAppointmentHandler(cfg.Service))
	})

	return r
}
