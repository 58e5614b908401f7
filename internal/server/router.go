package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"partner-onboarding/internal/common/logger"
)

// NewRouter mounts the onboarding API plus the operational endpoints.
func NewRouter(manager *Manager, log logger.Logger) http.Handler {
	h := &Handler{manager: manager, log: log.WithFields(map[string]interface{}{"component": "http"})}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/session", func(r chi.Router) {
		r.Use(h.requireApplicant)

		r.Get("/", h.handleGetSession)
		r.Put("/fields", h.handleSetFields)
		r.Post("/next", h.handleNext)
		r.Post("/prev", h.handlePrev)
		r.Post("/uploads/{field}", h.handleUpload)
		r.Delete("/uploads/{field}/{index}", h.handleRemoveUpload)
		r.Post("/otp/send", h.handleSendOTP)
		r.Post("/otp/verify", h.handleVerifyOTP)
		r.Post("/nin", h.handleRecordNIN)
		r.Post("/submit", h.handleSubmit)
	})

	return r
}
