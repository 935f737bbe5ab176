package transport

import (
	"net/http"

	"dms-be/internal/logger"
	"dms-be/internal/middleware"
	"dms-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	JWTSecret  string
	CORSOrigin string
	Limiter    *middleware.Limiter
}

// NewRouter wires the middleware chain in front of h. Rate limiting runs
// after authentication so it can key on the caller.
func NewRouter(cfg RouterConfig, h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.CORS(cfg.CORSOrigin))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.JWTSecret))
		if cfg.Limiter != nil {
			r.Use(cfg.Limiter.Middleware)
		}
		h.Register(r)
	})
	return r
}
