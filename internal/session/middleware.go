package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// CookieName is the cookie carrying the session token for page requests.
const CookieName = "velym_session"

// Resolver maps a session token to its identity. It returns an error for
// missing, expired or revoked sessions.
type Resolver interface {
	ResolveSession(ctx context.Context, token string) (*Identity, error)
}

type contextKey string

const identityKey contextKey = "session_identity"

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the identity placed by RequireSession or PageGuard.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

// TokenFromRequest reads a Bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// resolve builds a fresh signal for the request and resolves it.
func resolve(r *http.Request, res Resolver) *Signal {
	sig := NewSignal()
	token := TokenFromRequest(r)
	if token == "" {
		sig.Resolve(nil)
		return sig
	}
	id, err := res.ResolveSession(r.Context(), token)
	if err != nil {
		slog.Debug("Session did not resolve", "path", r.URL.Path, "error", err)
		sig.Resolve(nil)
		return sig
	}
	sig.Resolve(id)
	return sig
}

// RequireSession rejects API requests without a valid session with 401.
func RequireSession(res Resolver) func(http.Handler) http.Handler {
	gate := NewGate()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sig := resolve(r, res)
			if gate.Evaluate(sig) != Render {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Authentication required."})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), sig.Identity())))
		})
	}
}

// PageGuard redirects anonymous page requests to loginPath.
func PageGuard(res Resolver, loginPath string) func(http.Handler) http.Handler {
	gate := Gate{LoginPath: loginPath}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sig := resolve(r, res)
			switch gate.Evaluate(sig) {
			case Render:
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), sig.Identity())))
			default:
				http.Redirect(w, r, gate.Target(), http.StatusSeeOther)
			}
		})
	}
}
