package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/turnoflow/scheduling/internal/booking"
	"github.com/turnoflow/scheduling/internal/cache"
	"github.com/turnoflow/scheduling/internal/notify"
)

type RouterConfig struct {
	Coordinator *booking.Coordinator
	Resolver    *booking.Resolver
	Repo        booking.Repository
	Configs     booking.ConfigStore
	Treatments  booking.TreatmentStore
	Cache       *cache.AvailabilityCache
	Subscriber  notify.Subscriber
	PgPool      *pgxpool.Pool
	Redis       *redis.Client
	Logger      *zap.Logger
	Env         string
	Version     string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(MetricsMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/config/{clinicID}", getConfigHandler(cfg.Configs))
	r.Put("/config/{clinicID}", putConfigHandler(cfg.Configs, cfg.Cache))

	r.Get("/treatments", listTreatmentsHandler(cfg.Treatments))
	r.Get("/availability", getAvailabilityHandler(cfg.Resolver, cfg.Cache))

	r.Post("/appointments", createAppointmentHandler(cfg.Coordinator))
	r.Get("/appointments", listAppointmentsHandler(cfg.Repo))
	r.Patch("/appointments/{id}", patchAppointmentHandler(cfg.Coordinator))

	events := NewEventStreamHandler(cfg.Subscriber, cfg.Logger)
	r.Get("/clinics/{clinicID}/events", events.Serve)

	return r
}
