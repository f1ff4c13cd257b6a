package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"socialloom.io/internal/identity"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/auth/login",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// withAuth resolves the bearer token into a principal before any handler
// runs. Every path except the public ones requires a valid token.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		principal, err := a.identity.Authenticate(r.Context(), token)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		ctx := identity.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ensurePermission runs the access guard. It fires before any id in the
// request is resolved, so a caller without the permission cannot probe for
// resource existence.
func (a *API) ensurePermission(w http.ResponseWriter, r *http.Request, perm string) (identity.Principal, bool) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		writeDomainError(w, r, identity.ErrMissingToken)
		return identity.Principal{}, false
	}
	if err := identity.RequirePermission(principal, perm); err != nil {
		writeDomainError(w, r, err)
		return identity.Principal{}, false
	}
	return principal, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", identity.ErrMissingToken
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", fmt.Errorf("%w: invalid authorization scheme", identity.ErrInvalidToken)
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", identity.ErrMissingToken
	}
	return token, nil
}
