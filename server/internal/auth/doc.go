// Package auth verifies caller identity tokens against the identity provider
// and provisions invited accounts for the admin approve endpoint.
//
// Optional is HTTP middleware that attaches the verified Identity to the
// request context when a valid bearer token is present. A missing or invalid
// token leaves the request anonymous; only VerifyAdmin turns that into an
// error. When no identity provider is configured the Verifier is nil and
// every request is anonymous.
package auth
