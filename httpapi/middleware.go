package httpapi

import (
	"context"
	"net/http"
	"strings"

	"safehunt/access"
)

type contextKey struct{ name string }

var sessionKey = contextKey{"session"}

// sessionFrom returns the session stored by withSession. Missing means
// nobody is signed in.
func sessionFrom(ctx context.Context) access.Session {
	if sess, ok := ctx.Value(sessionKey).(access.Session); ok {
		return sess
	}
	return access.Session{}
}

// withSession resolves an optional bearer token into an access.Session on
// the request context. A missing or invalid token yields an anonymous
// session; the guards decide whether that is acceptable per route.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := access.Session{}

		if token, ok := bearerToken(r); ok {
			if userID, _, err := s.auth.VerifyToken(token); err == nil {
				if user, err := s.auth.GetUserByID(r.Context(), userID); err == nil {
					sess.User = user
				}
			}
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// guard translates an access decision into its HTTP equivalent: redirects
// for the authentication gates, 403 with the fixed message for role and
// certification denials.
func (s *Server) guard(g access.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := access.Resolve(g, access.Derive(sessionFrom(r.Context())))

			switch decision.Outcome {
			case access.Allow:
				next.ServeHTTP(w, r)
			case access.RedirectToLogin:
				http.Redirect(w, r, "/login", http.StatusSeeOther)
			case access.RedirectToDashboard:
				http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			default:
				writeError(w, http.StatusForbidden, decision.Reason)
			}
		})
	}
}

// cors echoes allow-listed origins back and short-circuits preflight.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := s.origins[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
