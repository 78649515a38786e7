/*
Package session implements the cookie-token session store.

This file contains the HTTP guard middleware. It resolves the session cookie,
attaches the authenticated identity to the request context, and on failure
answers API-style clients with a structured 401 while redirecting browser
navigation to the login page.
*/
package session

import (
	"context"
	"net/http"
	"strings"

	"groupchat/internal/pkg/errs"
	"groupchat/internal/pkg/resp"
)

type usernameKey struct{}
type tokenKey struct{}

// Username returns the authenticated username attached by the Guard, or ""
// when the request did not pass through it.
func Username(r *http.Request) string {
	username, _ := r.Context().Value(usernameKey{}).(string)
	return username
}

// Token returns the session token attached by the Guard, or "".
func Token(r *http.Request) string {
	token, _ := r.Context().Value(tokenKey{}).(string)
	return token
}

// AcceptsJSON reports whether the client asked for a structured error response
// rather than a browser redirect.
func AcceptsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// RefuseUnauthenticated answers an authentication failure: a structured 401
// for API-style clients, a redirect to /login for browser navigation.
func RefuseUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if AcceptsJSON(r) {
		resp.RespondError(w, r, errs.NewError(errs.ErrAuthenticationRequired))
		return
	}

	http.Redirect(w, r, "/login", http.StatusFound)
}

// Guard returns middleware that requires a valid session cookie with the given
// name. On success the resolved username and token are attached to the request
// context for downstream handlers.
func (s *Store) Guard(cookieName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil {
				RefuseUnauthenticated(w, r)
				return
			}

			username, ok := s.Validate(cookie.Value)
			if !ok {
				RefuseUnauthenticated(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey{}, username)
			ctx = context.WithValue(ctx, tokenKey{}, cookie.Value)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
