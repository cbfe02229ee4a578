package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/eduflow/transcache/metrics"
)

// NewRouter wires the cache endpoints, middleware, and operational
// routes.
func NewRouter(h *Handler, logger *zap.Logger) *chi.Mux {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(metrics.Middleware)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(recoverer(logger))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/translations/{word}", h.GetTranslation)
		r.Post("/translations", h.PutTranslation)
		r.Post("/translations/batch/lookup", h.BatchLookup)
		r.Put("/translations/batch", h.BatchStore)
		r.Post("/warm", h.WarmLesson)

		r.Get("/cache/stats", h.GetStats)
		r.Post("/cache/expired", h.ClearExpired)
		r.Delete("/cache", h.ClearAll)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", metrics.Handler())

	return r
}

// recoverer converts panics into 500s and logs them.
func recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("path", r.URL.Path),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
