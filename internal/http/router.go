package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Africa-Access-Water/afaw-api/internal/http/donation"
	"github.com/Africa-Access-Water/afaw-api/internal/http/donor"
	"github.com/Africa-Access-Water/afaw-api/internal/http/export"
	"github.com/Africa-Access-Water/afaw-api/internal/http/ledger"
	"github.com/Africa-Access-Water/afaw-api/internal/http/project"
	"github.com/Africa-Access-Water/afaw-api/internal/http/subscription"
	"github.com/Africa-Access-Water/afaw-api/internal/http/webhook"
)

type Options struct {
	AllowedOrigins []string
	JWTSecret      string
}

type Handlers struct {
	Webhook       *webhook.Handler
	Donations     *donation.Handler
	Subscriptions *subscription.Handler
	Donors        *donor.Handler
	Projects      *project.Handler
	Ledger        *ledger.Handler
	Receipts      *export.Handler
}

func New(opts Options, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	requireAdmin := RequireAdmin([]byte(opts.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/donations", func(r chi.Router) {
			// Signature verification needs the raw body, so the webhook skips content-type checks.
			r.Route("/stripe", h.Webhook.Routes)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Donations.Routes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				h.Donations.AdminRoutes(r)
			})
		})

		r.Route("/projects", h.Projects.Routes)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			r.Route("/subscriptions", h.Subscriptions.Routes)
			r.Route("/donors", h.Donors.Routes)
			r.Route("/ledger", h.Ledger.Routes)

			r.Route("/receipts", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Receipts.Routes(r)
			})
		})
	})

	return router
}
