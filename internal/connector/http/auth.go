package http

import "net/http"

// =============================================================================
// AUTHENTICATION
// =============================================================================

// Authenticator adds credentials to an outgoing request.
type Authenticator interface {
	Apply(req *http.Request)
}

// Anonymous sends no credentials.
type Anonymous struct{}

// Apply implements Authenticator.
func (Anonymous) Apply(*http.Request) {}

// BearerToken sends "Authorization: Bearer <token>". An empty token sends
// nothing.
type BearerToken string

// Apply implements Authenticator.
func (t BearerToken) Apply(req *http.Request) {
	if t != "" {
		req.Header.Set("Authorization", "Bearer "+string(t))
	}
}
