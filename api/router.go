package api

import (
	"net/http"

	"github.com/Goofygiraffe06/janseva/internal/config"
	"github.com/Goofygiraffe06/janseva/internal/mailer"
	"github.com/Goofygiraffe06/janseva/internal/manager"
	"github.com/Goofygiraffe06/janseva/internal/models"
	"github.com/Goofygiraffe06/janseva/store"
	"github.com/Goofygiraffe06/janseva/store/ephemeral"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps are the collaborators the dev server routes need.
type Deps struct {
	Users  *store.SQLiteStore
	OTPs   *ephemeral.OTPStore
	Work   *manager.WorkManager
	Mailer mailer.Sender
}

// NewRouter mounts the auth endpoints under /api/auth.
func NewRouter(d Deps) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: config.CORSAllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	router.Use(limitBody(config.MaxRequestBodyBytes()))

	router.Get("/health", HealthHandler)

	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", RegisterHandler(d.Users, d.OTPs, d.Work, d.Mailer))
		r.Post("/verify-otp", VerifyOTPHandler(d.Users, d.OTPs))
		r.Post("/login", LoginHandler(d.Users, d.Work))
		r.Get("/me", MeHandler(d.Users))
	})

	return router
}

func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}

func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
