package auth

import (
	"net/http"
	"strings"
)

// Middleware validates bearer JWTs. An empty secret disables enforcement,
// which is the expected mode when the service runs behind the host's own
// ingress auth.
type Middleware struct {
	Secret []byte
	Exempt []string
}

// NewMiddleware constructs an auth middleware with the given exempt paths.
func NewMiddleware(secret []byte, exempt ...string) *Middleware {
	return &Middleware{Secret: secret, Exempt: exempt}
}

// Wrap applies token validation to the handler.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil || len(m.Secret) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, path := range m.Exempt {
			if r.URL.Path == path {
				next.ServeHTTP(w, r)
				return
			}
		}

		claims, err := ParseJWT(extractBearer(r), m.Secret)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), claims.Subject)))
	})
}

func extractBearer(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
