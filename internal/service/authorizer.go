package service

import "crypto/subtle"

// AdminAuthorizer decides whether a request carries a valid admin
// credential.  Registration only depends on this predicate, so the shared
// secret can be replaced by a real identity check later.
type AdminAuthorizer interface {
	Authorize(credential string) bool
}

// SharedSecret authorizes callers presenting exactly the configured key.
// An empty secret authorizes nobody.
type SharedSecret string

func (s SharedSecret) Authorize(credential string) bool {
	if s == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s), []byte(credential)) == 1
}
