package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/storefront"
	"github.com/MrEthical07/storefront/permission"
)

// SessionValidator is the Engine surface the guards need.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*storefront.Session, error)
}

type sessionContextKey struct{}

// SessionFromContext returns the session stored by a guard.
func SessionFromContext(ctx context.Context) (*storefront.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*storefront.Session)
	return sess, ok && sess != nil
}

func withSession(ctx context.Context, sess *storefront.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// Guard wraps next so it only runs for a valid session whose role is in
// allowed. An empty allowed list accepts any role.
func Guard(v SessionValidator, allowed ...storefront.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			sess, err := v.ValidateSession(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if len(allowed) > 0 && !permission.Contains(allowed, sess.Role) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
		})
	}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" value.
func BearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
