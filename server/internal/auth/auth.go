package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrUnauthenticated is returned for a missing, malformed or rejected token.
	ErrUnauthenticated = errors.New("auth: invalid or missing token")
	// ErrForbidden is returned when a verified caller lacks admin rights.
	ErrForbidden = errors.New("auth: caller is not an administrator")
	// ErrNotConfigured is returned when no identity provider key is set.
	ErrNotConfigured = errors.New("auth: identity provider not configured")
)

// Identity is the verified caller.
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
}

// Verifier resolves an ID token to the caller's identity.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (Identity, error)
}

// Provisioner creates (or locates) an account and sends it an invite.
type Provisioner interface {
	Invite(ctx context.Context, email string) error
}

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by Optional, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Optional attaches the caller's Identity to the request context when the
// request carries a token that v accepts. It never rejects a request.
func Optional(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				next.ServeHTTP(w, r)
				return
			}
			if token, ok := BearerToken(r); ok {
				if id, err := v.Verify(r.Context(), token); err == nil {
					r = r.WithContext(WithIdentity(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// VerifyAdmin verifies token and requires the caller's email to belong to
// domain. The domain comparison ignores case.
func VerifyAdmin(ctx context.Context, v Verifier, token, domain string) (Identity, error) {
	if v == nil || domain == "" {
		return Identity{}, ErrNotConfigured
	}
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}
	id, err := v.Verify(ctx, token)
	if err != nil {
		return Identity{}, err
	}
	_, host, ok := strings.Cut(id.Email, "@")
	if !ok || !strings.EqualFold(host, strings.TrimPrefix(domain, "@")) {
		return id, ErrForbidden
	}
	return id, nil
}
