package handlers

import (
	"context"
	"net/http"

	"github.com/knakajima/slotpicker/libs/auth"
	"github.com/knakajima/slotpicker/libs/httpx"
)

// SessionCookie holds the signed session token set by the OAuth callback.
const SessionCookie = "sp_session"

type ctxKey int

const ctxKeyPrincipal ctxKey = iota

// Principal is the authenticated user attached to the request context.
type Principal struct {
	Email string
	Name  string
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(Principal)
	return p, ok
}

// RequireSession verifies the session cookie and injects the principal.
// Requests without a valid session get a 401 JSON body.
func RequireSession(secret string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}
			claims, err := auth.ParseAndVerifyHS256(cookie.Value, secret)
			if err != nil {
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPrincipal, Principal{
				Email: claims.Sub,
				Name:  claims.Name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
}
