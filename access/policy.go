// Package access derives effective permissions from an authenticated session
// and resolves page guards. Everything here is pure: the session is passed in
// explicitly and decisions are values, never errors.
package access

import "safehunt/auth"

// Session is the explicit authentication state threaded through calls.
// A nil User means nobody is signed in.
type Session struct {
	User *auth.User
}

// Permissions is the single place role and certification flags are combined.
// Consumers must not re-derive these from the raw user record.
type Permissions struct {
	IsAuthenticated bool
	IsHunter        bool
	IsAdmin         bool
	IsCertified     bool
	CanCreateZones  bool
}

// Derive computes the effective permissions for a session.
func Derive(s Session) Permissions {
	if s.User == nil {
		return Permissions{}
	}

	p := Permissions{
		IsAuthenticated: true,
		IsHunter:        s.User.Role == auth.RoleChasseur,
		IsAdmin:         s.User.Role == auth.RoleAdmin,
		IsCertified:     s.User.Certified,
	}
	p.CanCreateZones = (p.IsHunter && p.IsCertified) || p.IsAdmin
	return p
}

// Guard lists the requirements a page or endpoint declares.
// RequireAuth false marks a guest-only page (login, register).
type Guard struct {
	RequireAuth      bool
	RequireAdmin     bool
	RequireHunter    bool
	RequireCertified bool
}

// Outcome is the kind of decision a guard resolution produces.
type Outcome int

const (
	Allow Outcome = iota
	RedirectToLogin
	RedirectToDashboard
	Deny
)

// Decision is the guard verdict; Reason is set only for Deny.
type Decision struct {
	Outcome Outcome
	Reason  string
}

const (
	reasonAdminRequired     = "Cette page est réservée aux administrateurs."
	reasonHunterRequired    = "Cette page est réservée aux utilisateurs avec un compte chasseur."
	reasonCertificationHeld = "Votre compte chasseur est en attente de validation par un administrateur."
)

// Resolve checks the guard against the derived permissions. Checks run in a
// fixed order and the first failing one wins: authentication, inverse
// authentication, admin, hunter role, certification.
func Resolve(g Guard, p Permissions) Decision {
	if g.RequireAuth && !p.IsAuthenticated {
		return Decision{Outcome: RedirectToLogin}
	}
	if !g.RequireAuth && p.IsAuthenticated {
		return Decision{Outcome: RedirectToDashboard}
	}
	if g.RequireAdmin && !p.IsAdmin {
		return Decision{Outcome: Deny, Reason: reasonAdminRequired}
	}
	if g.RequireHunter && !p.IsHunter {
		return Decision{Outcome: Deny, Reason: reasonHunterRequired}
	}
	if g.RequireCertified && !p.IsCertified {
		return Decision{Outcome: Deny, Reason: reasonCertificationHeld}
	}
	return Decision{Outcome: Allow}
}
