package api

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
)

// OwnerID extracts the authenticated identity from the request's bearer
// token. Returns "" for anonymous requests or unverifiable tokens; the
// identity provider issues the tokens, this service only checks the
// signature and reads the subject.
func (a *LinkVaultAPI) OwnerID(r *http.Request) string {
	token, _, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil {
		return ""
	}
	return token.Subject()
}
