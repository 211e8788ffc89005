package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type statsJSON struct {
	TotalUsers       int `json:"total_users"`
	Randonneurs      int `json:"randonneurs"`
	Chasseurs        int `json:"chasseurs"`
	CertifiedHunters int `json:"certified_hunters"`
	PendingHunters   int `json:"pending_hunters"`
	Admins           int `json:"admins"`
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.admin.Stats(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		adminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsJSON{
		TotalUsers:       stats.TotalUsers,
		Randonneurs:      stats.Randonneurs,
		Chasseurs:        stats.Chasseurs,
		CertifiedHunters: stats.CertifiedHunters,
		PendingHunters:   stats.PendingHunters,
		Admins:           stats.Admins,
	})
}

func (s *Server) handlePendingHunters(w http.ResponseWriter, r *http.Request) {
	hunters, err := s.admin.PendingHunters(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		adminError(w, err)
		return
	}
	out := make([]userJSON, 0, len(hunters))
	for _, h := range hunters {
		out = append(out, toUserJSON(h))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCertifiedHunters(w http.ResponseWriter, r *http.Request) {
	hunters, err := s.admin.CertifiedHunters(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		adminError(w, err)
		return
	}
	out := make([]userJSON, 0, len(hunters))
	for _, h := range hunters {
		out = append(out, toUserJSON(h))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdminGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.admin.GetUser(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "userID"))
	if err != nil {
		adminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(user))
}

func (s *Server) handleCertify(w http.ResponseWriter, r *http.Request) {
	user, err := s.admin.Certify(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "hunterID"))
	if err != nil {
		adminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(user))
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	user, err := s.admin.Revoke(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "hunterID"))
	if err != nil {
		adminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(user))
}
