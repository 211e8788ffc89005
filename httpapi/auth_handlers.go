package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"safehunt/auth"
)

type userJSON struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Role        auth.Role  `json:"role"`
	Certified   bool       `json:"certified"`
	CertifiedAt *time.Time `json:"certified_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toUserJSON(u auth.User) userJSON {
	return userJSON{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Certified:   u.Certified,
		CertifiedAt: u.CertifiedAt,
		CreatedAt:   u.CreatedAt,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requête invalide")
		return
	}

	user, err := s.auth.Register(r.Context(), req)
	if err != nil {
		authError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserJSON(*user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requête invalide")
		return
	}

	result, err := s.auth.Login(r.Context(), req)
	if err != nil {
		authError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": result.Token,
		"user":  toUserJSON(result.User),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	writeJSON(w, http.StatusOK, toUserJSON(*sess.User))
}

func (s *Server) handleUpdateDisplayName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requête invalide")
		return
	}

	if strings.TrimSpace(req.DisplayName) == "" {
		writeError(w, http.StatusBadRequest, "Le nom d'affichage est requis")
		return
	}

	sess := sessionFrom(r.Context())
	user, err := s.auth.UpdateDisplayName(r.Context(), sess.User.ID, req.DisplayName)
	if err != nil {
		authError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(*user))
}
