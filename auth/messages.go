package auth

import "errors"

// ErrorMessage maps auth failures to the fixed set of user-facing messages.
// These are shown inline and never trigger an automatic retry.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "Email ou mot de passe incorrect"
	case errors.Is(err, ErrUserNotFound):
		return "Aucun compte trouvé avec cet email"
	case errors.Is(err, ErrDuplicateEmail):
		return "Un compte existe déjà avec cet email"
	case errors.Is(err, ErrWeakPassword):
		return "Le mot de passe doit contenir au moins 8 caractères"
	case errors.Is(err, ErrTooManyAttempts):
		return "Trop de tentatives. Réessayez plus tard"
	case errors.Is(err, ErrRoleNotAllowed):
		return "Ce rôle ne peut pas être choisi à l'inscription"
	default:
		return "Erreur de connexion. Vérifiez vos identifiants"
	}
}
