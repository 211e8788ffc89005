// Package httpapi exposes the SafeHunt services over HTTP. It owns JSON
// encoding, status code mapping and the session middleware; all business
// rules stay in the service packages.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"safehunt/access"
	"safehunt/admin"
	"safehunt/auth"
	"safehunt/zone"
)

// Server wires the domain services into an HTTP router.
type Server struct {
	auth    *auth.Service
	zones   *zone.Service
	admin   *admin.Service
	watcher *zone.Watcher
	origins map[string]struct{}
}

// NewServer builds the transport layer. The watcher may be nil, in which
// case the live endpoint responds 503.
func NewServer(authSvc *auth.Service, zoneSvc *zone.Service, adminSvc *admin.Service, watcher *zone.Watcher, allowedOrigins []string) *Server {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &Server{
		auth:    authSvc,
		zones:   zoneSvc,
		admin:   adminSvc,
		watcher: watcher,
		origins: origins,
	}
}

// Router assembles all routes with their guards.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.cors)
	r.Use(s.withSession)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.guard(access.Guard{RequireAuth: false}))
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.guard(access.Guard{RequireAuth: true}))
			r.Get("/me", s.handleMe)
			r.Put("/me/display-name", s.handleUpdateDisplayName)
		})
	})

	r.Route("/zones", func(r chi.Router) {
		r.Get("/", s.handleListZones)
		r.Get("/live", s.handleLiveZones)
		r.Get("/{zoneID}", s.handleGetZone)

		r.Group(func(r chi.Router) {
			r.Use(s.guard(access.Guard{RequireAuth: true}))
			r.Get("/mine", s.handleMyZones)
			r.Post("/", s.handleCreateZone)
			r.Put("/{zoneID}", s.handleUpdateZone)
			r.Delete("/{zoneID}", s.handleDeleteZone)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.guard(access.Guard{RequireAuth: true, RequireAdmin: true}))
		r.Get("/stats", s.handleAdminStats)
		r.Get("/hunters/pending", s.handlePendingHunters)
		r.Get("/hunters/certified", s.handleCertifiedHunters)
		r.Get("/users/{userID}", s.handleAdminGetUser)
		r.Post("/hunters/{hunterID}/certify", s.handleCertify)
		r.Post("/hunters/{hunterID}/revoke", s.handleRevoke)
	})

	return r
}
