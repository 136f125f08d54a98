package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"rockstar/internal/http/handlers"
	"rockstar/internal/middleware"
)

// Options carries the router's cross-cutting configuration.
type Options struct {
	CronSecret      string
	RateLimitPerMin int
	AllowedOrigins  []string
	CountryLookup   middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.RateLimitPerMin > 0 {
				r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
			}
			r.Use(middleware.Geo(opts.CountryLookup))
			r.Post("/generate", app.Generate)
			r.Get("/poll", app.Poll)
			r.Get("/wait", app.Wait)
			r.Post("/send-email", app.SendEmail)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.CronAuth(opts.CronSecret))
			r.Get("/check-pending", app.CheckPending)
		})
	})

	return r
}
