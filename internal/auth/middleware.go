package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mind-insight/apiserver/types"
)

type contextKey string

const sessionContextKey contextKey = "insight_session"

// WithSession stores the session value on the context.
func WithSession(ctx context.Context, session types.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext returns the request's session, or the anonymous
// session when none was attached.
func SessionFromContext(ctx context.Context) types.Session {
	if session, ok := ctx.Value(sessionContextKey).(types.Session); ok {
		return session
	}
	return types.Anonymous()
}

// SessionMiddleware rebuilds the session from a bearer token and attaches
// it to the request context. Requests without a valid token proceed with
// the anonymous session; each handler decides access by calling Authorize
// explicitly, so a denial short-circuits that view instead of hiding in
// middleware control flow.
func SessionMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := types.Anonymous()
			if tokenString, err := bearerToken(r); err == nil {
				if parsed, err := ParseToken(tokenString, secret); err == nil {
					session = parsed
				}
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
