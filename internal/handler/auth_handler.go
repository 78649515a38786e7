/*
Package handler provides the HTTP handlers and routing setup for the group
chat server.

This file contains the browser login flow (form post, session cookie,
redirects), logout, and the profile endpoint.
*/
package handler

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"net/http"

	"groupchat/internal/app/session"
	"groupchat/internal/pkg/logx"
	"groupchat/internal/pkg/req"
	"groupchat/internal/pkg/resp"
)

// saltLength is the length of the salt prefix in a stored password digest.
const saltLength = 20

// verifyPassword checks a plaintext password against a stored salted digest.
// The digest format is the salt followed by base64(sha256(password+salt)).
// The comparison is constant-time.
func verifyPassword(password, saltedDigest string) bool {
	if len(saltedDigest) <= saltLength {
		return false
	}

	salt := saltedDigest[:saltLength]

	sum := sha256.Sum256([]byte(password + salt))
	computed := salt + base64.StdEncoding.EncodeToString(sum[:])

	return subtle.ConstantTimeCompare([]byte(computed), []byte(saltedDigest)) == 1
}

// HandleLogin processes the browser login form. On success it creates a
// session, sets the session cookie, and redirects to the app root; any
// failure redirects back to the login page without detail.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, customErr := req.BindLoginForm(w, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		user, err := deps.Store.User(r.Context(), username)
		if err != nil {
			logx.Error(err, "login: user lookup failed", "username", username)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		if user == nil || !verifyPassword(password, user.Password) {
			logx.Warn("login: invalid credentials", "username", username)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		token, err := deps.Sessions.Create(user.Username, deps.Config.SessionMaxAge)
		if err != nil {
			logx.Error(err, "login: failed to create session", "username", username)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     deps.Config.SessionCookie,
			Value:    token,
			Path:     "/",
			MaxAge:   int(deps.Config.SessionMaxAge.Seconds()),
			HttpOnly: true,
		})

		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// HandleLogout invalidates the caller's session and redirects to the login page.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps.Sessions.Delete(session.Token(r))

		http.SetCookie(w, &http.Cookie{
			Name:     deps.Config.SessionCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})

		http.Redirect(w, r, "/login", http.StatusFound)
	}
}

// HandleProfile returns the authenticated caller's username.
func HandleProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"username": session.Username(r),
		})
	}
}
