package gateway

import (
	"net/http"
	"strings"
)

// Authorizer decides whether a request may reach the gateway's
// endpoints.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Authorize must not write to the response; the middleware
//   owns the rejection.
type Authorizer interface {
	Authorize(r *http.Request) bool
}

// AllowAll authorizes every request.
type AllowAll struct{}

// Authorize implements Authorizer.
func (AllowAll) Authorize(*http.Request) bool { return true }

// TokenAuthorizer authorizes requests carrying a shared token, either
// as an "Authorization: token <value>" header or a token query
// argument.
type TokenAuthorizer struct {
	Token string
}

// Authorize implements Authorizer.
func (a TokenAuthorizer) Authorize(r *http.Request) bool {
	if a.Token == "" {
		return true
	}
	header := r.Header.Get("Authorization")
	if strings.TrimPrefix(header, "token ") == a.Token {
		return true
	}
	return r.URL.Query().Get("token") == a.Token
}

// requireAuth rejects unauthorized requests before they reach any
// endpoint handler. OPTIONS requests pass through so CORS preflight
// works without credentials.
func requireAuth(authorizer Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodOptions && !authorizer.Authorize(r) {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
