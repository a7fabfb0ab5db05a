// Package httpapi is the HTTP surface spec §6 declares as the deployment
// form: a thin chi router delegating every operation to the engine.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/CoReason-AI/coreason-aegis/internal/engine"
	"github.com/CoReason-AI/coreason-aegis/internal/telemetry"
)

// NewRouter builds the HTTP handler for e.
func NewRouter(e *engine.Engine) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(requestIDBridge)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(e.Config.Engine.SanitizeTimeout + 5*time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler(e))

	r.Route("/", func(r chi.Router) {
		r.Post("/sanitize", sanitizeHandler(e))
		r.Post("/desanitize", desanitizeHandler(e))
		r.Post("/purge", purgeHandler(e))
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "endpoint not found"})
	})

	return r
}

// requestIDBridge copies chi's request-id middleware value into this
// module's own context key, so handler and pipeline logs carry the same
// request_id field without httpapi depending on chi's context key
// outside this one seam.
func requestIDBridge(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chimiddleware.GetReqID(r.Context())
		if id != "" {
			r = r.WithContext(telemetry.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
