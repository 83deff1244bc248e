package api

import (
	"net/http"
	"strings"

	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/errors"
)

// Authenticator extracts the identity of the caller from a request.
type Authenticator interface {
	// Authenticate returns the caller identity and true, or false if the
	// request does not carry valid credentials for this authenticator.
	Authenticate(r *http.Request) (blendsafe.Identity, bool)
}

// TokenAuth maps bearer tokens to identities.
type TokenAuth map[string]blendsafe.Identity

var _ Authenticator = TokenAuth(nil)

// Authenticate implements Authenticator. The token is read from the
// "Authorization: Bearer <token>" header.
func (a TokenAuth) Authenticate(r *http.Request) (blendsafe.Identity, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	id, ok := a[h[len(prefix):]]
	return id, ok
}

// HeaderAuth trusts an identity header set by a proxy that already
// authenticated the caller. Use it only behind such a proxy.
type HeaderAuth struct {
	Header string
}

var _ Authenticator = HeaderAuth{}

// Authenticate implements Authenticator.
func (a HeaderAuth) Authenticate(r *http.Request) (blendsafe.Identity, bool) {
	id := blendsafe.Identity(r.Header.Get(a.Header))
	if a.Header == "" || id.Validate() != nil {
		return "", false
	}
	return id, true
}

// MultiAuth chains together many Authenticators into one
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticator. The first one that
// recognizes the request wins.
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// Authenticate implements Authenticator.
func (m MultiAuth) Authenticate(r *http.Request) (blendsafe.Identity, bool) {
	for _, impl := range m.impls {
		if id, ok := impl.Authenticate(r); ok {
			return id, true
		}
	}
	return "", false
}

// withCaller attaches the authenticated caller, if any, to the request
// context.
func withCaller(auth Authenticator, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth != nil {
			if id, ok := auth.Authenticate(r); ok {
				r = r.WithContext(blendsafe.WithCaller(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requireCaller rejects requests without an authenticated caller.
func requireCaller(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := blendsafe.GetCaller(r.Context()); !ok {
			JSONErr(w, http.StatusUnauthorized, errors.ErrUnauthorized.Code(), "authentication required")
			return
		}
		next(w, r)
	}
}
