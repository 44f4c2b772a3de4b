package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"assessment-service/internal/app"
)

// NewRouter wires every HTTP route onto a chi router.
func NewRouter(service *app.AssessmentService, allowedOrigins []string) http.Handler {
	admin := NewAdminHandler(service)
	ws := NewWSHandler(service)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/schemas/validate", admin.Validate)
	r.Route("/assessments/{id}", func(r chi.Router) {
		r.Put("/", admin.Save)
		r.Post("/score", admin.Score)
	})
	r.Get("/ws", ws.ServeWS)
	return r
}
