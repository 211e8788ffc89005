package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"safehunt/admin"
	"safehunt/auth"
	"safehunt/zone"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// authError maps authentication failures to status codes; the body carries
// the fixed user-facing message for each case.
func authError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUserNotFound):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrDuplicateEmail):
		status = http.StatusConflict
	case errors.Is(err, auth.ErrTooManyAttempts):
		status = http.StatusTooManyRequests
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrRoleNotAllowed):
		status = http.StatusBadRequest
	}
	writeError(w, status, auth.ErrorMessage(err))
}

func zoneError(w http.ResponseWriter, err error) {
	switch {
	case zone.IsValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, zone.ErrForbidden):
		writeError(w, http.StatusForbidden, "Vous n'êtes pas autorisé à effectuer cette action")
	case errors.Is(err, zone.ErrNotFound):
		writeError(w, http.StatusNotFound, "Zone introuvable")
	default:
		writeError(w, http.StatusInternalServerError, "Une erreur est survenue")
	}
}

func adminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, admin.ErrAdminOnly):
		writeError(w, http.StatusForbidden, "Cette page est réservée aux administrateurs.")
	case errors.Is(err, admin.ErrNotHunter):
		writeError(w, http.StatusUnprocessableEntity, "Ce compte n'est pas un compte chasseur")
	case errors.Is(err, admin.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "Utilisateur introuvable")
	default:
		writeError(w, http.StatusInternalServerError, "Une erreur est survenue")
	}
}
