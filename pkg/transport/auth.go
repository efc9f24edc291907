package transport

import (
	"net/http"
)

// Authorizer attaches credentials to an outgoing request. The request passed
// to Authorize is already a private copy and may be modified.
type Authorizer interface {
	Authorize(req *http.Request) error
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(req *http.Request) error

// Authorize implements Authorizer.
func (f AuthorizerFunc) Authorize(req *http.Request) error { return f(req) }

// APIKey returns an Authorizer that sends key in the given header.
func APIKey(header, key string) Authorizer {
	return AuthorizerFunc(func(req *http.Request) error {
		req.Header.Set(header, key)
		return nil
	})
}

// BearerToken returns an Authorizer that sends token in the Authorization
// header.
func BearerToken(token string) Authorizer {
	return AuthorizerFunc(func(req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	})
}

// Auth returns a middleware that lets a attach credentials to every request.
// A nil Authorizer makes the middleware a no-op.
func Auth(a Authorizer) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if a == nil {
			return next
		}
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			req = req.Clone(req.Context())
			if err := a.Authorize(req); err != nil {
				return nil, err
			}
			return next.RoundTrip(req)
		})
	}
}
