package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/eclinicgh/telehealth-platform/internal/directory"
	httpmiddleware "github.com/eclinicgh/telehealth-platform/internal/http/middleware"
	"github.com/eclinicgh/telehealth-platform/internal/identity"
	"github.com/eclinicgh/telehealth-platform/internal/messaging"
	"github.com/eclinicgh/telehealth-platform/internal/prescriptions"
	"github.com/eclinicgh/telehealth-platform/internal/scheduling"
	"github.com/eclinicgh/telehealth-platform/internal/symptomcheck"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger               *logging.Logger
	DirectoryHandler     *directory.Handler
	SchedulingHandler    *scheduling.Handler
	PrescriptionsHandler *prescriptions.Handler
	MessagingHandler     *messaging.Handler
	ChatHub              *messaging.Hub
	SymptomCheckHandler  *symptomcheck.Handler
	MetricsHandler       http.Handler

	AuthJWTSecret      string
	CORSAllowedOrigins []string
	RateLimitPerSec    float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSec > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.DirectoryHandler != nil {
			// The provider directory is browsable without an account.
			public.Get("/providers", cfg.DirectoryHandler.ListProviders)
			public.Get("/providers/{providerID}", cfg.DirectoryHandler.GetProvider)
		}
		if cfg.SchedulingHandler != nil {
			public.Get("/providers/{providerID}/slots", cfg.SchedulingHandler.OpenSlots)
		}
	})

	// Authenticated endpoints
	r.Group(func(authed chi.Router) {
		authed.Use(identity.RequireAuth(cfg.AuthJWTSecret))

		if cfg.DirectoryHandler != nil {
			authed.Post("/users/register", cfg.DirectoryHandler.Register)
			authed.Get("/users/me", cfg.DirectoryHandler.Me)
			authed.Put("/providers/me/availability", cfg.DirectoryHandler.UpdateAvailability)
		}

		if cfg.SchedulingHandler != nil {
			authed.Route("/appointments", func(r chi.Router) {
				r.Post("/", cfg.SchedulingHandler.Book)
				r.Get("/", cfg.SchedulingHandler.List)
				r.Post("/{appointmentID}/status", cfg.SchedulingHandler.Transition)
			})
		}

		if cfg.PrescriptionsHandler != nil {
			authed.Route("/prescriptions", func(r chi.Router) {
				r.Post("/", cfg.PrescriptionsHandler.Issue)
				r.Get("/", cfg.PrescriptionsHandler.List)
			})
		}

		if cfg.MessagingHandler != nil {
			authed.Route("/chat", func(r chi.Router) {
				r.Get("/contacts", cfg.MessagingHandler.Contacts)
				r.Get("/conversations/{peerID}/messages", cfg.MessagingHandler.History)
				r.Post("/conversations/{peerID}/messages", cfg.MessagingHandler.Send)
				r.Delete("/conversations/{peerID}/messages/{messageID}", cfg.MessagingHandler.Delete)
				if cfg.ChatHub != nil {
					r.Get("/ws", cfg.ChatHub.HandleWebSocket)
				}
			})
		}

		if cfg.SymptomCheckHandler != nil {
			authed.Post("/symptom-check", cfg.SymptomCheckHandler.Check)
		}
	})

	return r
}
