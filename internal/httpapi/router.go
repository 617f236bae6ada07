package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/logger"
)

// NewRouter mounts the API routes on a chi router.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.log))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/bundles", h.SubmitBundle)
		r.Get("/available-data/{recipient}/peek", h.PeekAvailableData)
	})

	return r
}

func requestLogger(log *logger.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			log.WithFields(logger.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
			}).Debug("HTTP request")
		})
	}
}
