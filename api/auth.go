/*
auth.go - Actor attribution and request authentication

PURPOSE:
  Every mutating endpoint records WHO acted, so the audit trail can answer
  "who sold this" and "who restocked that". The actor comes from the
  X-Actor header; requests without one are attributed to "system".

  Authentication itself is pluggable behind the Authenticator interface.
  The default deployments use either NoAuth (development) or APIKeyAuth
  (a single shared key in the X-API-Key header).

SEE ALSO:
  - server.go: Middleware wiring
  - engine/history.go: Where the actor ends up
*/
package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

// ActorHeader names the request header carrying the acting user.
const ActorHeader = "X-Actor"

// DefaultActor is recorded when a request carries no actor header.
const DefaultActor = "system"

type actorKey struct{}

// Authenticator is the auth collaborator. Authenticate gates the request as
// a whole; IsActive and Role describe the acting user, so deployments with a
// user directory can suspend actors or expose roles without changing the
// handlers.
type Authenticator interface {
	// Authenticate returns false when the request must be rejected with 401.
	Authenticate(r *http.Request) bool
	// IsActive returns false when the actor is suspended; the request is
	// rejected with 403.
	IsActive(actor string) bool
	// Role returns the actor's role, for audit context.
	Role(actor string) string
}

// NoAuth admits every request. Development only.
type NoAuth struct{}

func (NoAuth) Authenticate(*http.Request) bool { return true }
func (NoAuth) IsActive(string) bool            { return true }
func (NoAuth) Role(string) string              { return "admin" }

// APIKeyAuth admits requests carrying the configured key in X-API-Key.
// All actors behind the shared key are active operators.
type APIKeyAuth struct {
	Key string
}

func (a APIKeyAuth) Authenticate(r *http.Request) bool {
	got := r.Header.Get("X-API-Key")
	return subtle.ConstantTimeCompare([]byte(got), []byte(a.Key)) == 1
}

func (APIKeyAuth) IsActive(string) bool { return true }
func (APIKeyAuth) Role(string) string   { return "operator" }

// AuthMiddleware rejects unauthenticated requests with 401 and requests
// from suspended actors with 403.
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.Authenticate(r) {
				writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
				return
			}
			if !auth.IsActive(resolveActor(r)) {
				writeError(w, http.StatusForbidden, "Actor is suspended", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ActorMiddleware resolves the acting user and stores it on the request
// context for handlers to pick up via actorFrom.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), actorKey{}, resolveActor(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolveActor reads the actor header, falling back to DefaultActor.
func resolveActor(r *http.Request) string {
	actor := strings.TrimSpace(r.Header.Get(ActorHeader))
	if actor == "" {
		actor = DefaultActor
	}
	return actor
}

// actorFrom returns the acting user resolved by ActorMiddleware.
func actorFrom(r *http.Request) string {
	if actor, ok := r.Context().Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return DefaultActor
}
