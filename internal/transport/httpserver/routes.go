package httpserver

import (
	"net/http"
	"time"

	"family-ledger/internal/config"
	"family-ledger/internal/transport/httpserver/handler"
	authmw "family-ledger/internal/transport/httpserver/middleware"
	"family-ledger/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, profiles authmw.ProfileSaver, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(authmw.NewCORS(cfg.CORSOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Common.Health)

		// Short requests get a deadline; the watch stream lives as long as
		// the client stays connected.
		r.With(chimw.Timeout(30*time.Second)).Post("/auth/login", handlers.Auth.Login)

		auth := authmw.NewSupabaseAuth(cfg.Supabase, profiles, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/families/{family_id}/watch", handlers.Families.Watch)

			r.Group(func(r chi.Router) {
				r.Use(chimw.Timeout(30 * time.Second))

				r.Post("/auth/logout", handlers.Auth.Logout)
				r.Get("/auth/session", handlers.Auth.Session)
				r.Get("/auth/me", handlers.Common.AuthMe)

				r.Post("/families", handlers.Families.CreateFamily)
				r.Get("/families/me", handlers.Families.GetFamilyMe)
				r.Get("/families/lookup", handlers.Families.LookupFamily)
				r.Post("/families/leave", handlers.Families.LeaveFamily)
				r.Post("/families/requests", handlers.Families.SubmitRequestByName)
				r.Delete("/families/{family_id}", handlers.Families.DeleteFamily)

				r.Get("/families/{family_id}/members", handlers.Families.ListMembers)
				r.Delete("/families/{family_id}/members/{user_id}", handlers.Families.ExpelMember)

				r.Post("/families/{family_id}/requests", handlers.Families.SubmitRequest)
				r.Get("/families/{family_id}/requests", handlers.Families.ListRequests)
				r.Post("/families/{family_id}/requests/{request_id}/approve", handlers.Families.ApproveRequest)
				r.Delete("/families/{family_id}/requests/{request_id}", handlers.Families.RejectRequest)

				r.Get("/ledger/entries", handlers.Ledger.ListEntries)
				r.Post("/ledger/entries", handlers.Ledger.CreateEntry)
			})
		})
	})

	return r
}
