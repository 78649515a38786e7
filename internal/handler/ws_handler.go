/*
Package handler provides the HTTP handlers and routing setup for the group
chat server.

This file contains the WebSocket upgrade handler. A connection with a missing
or invalid session cookie is refused before the upgrade, so it never enters
the relay's registry.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"groupchat/internal/app/relay"
	"groupchat/internal/pkg/errs"
	"groupchat/internal/pkg/limiter"
	"groupchat/internal/pkg/logx"
	"groupchat/internal/pkg/resp"
)

// HandleWebSocket authenticates the handshake against the session store,
// upgrades the connection, and hands it to the relay.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		cookie, err := r.Cookie(deps.Config.SessionCookie)
		if err != nil {
			logx.Warn("WebSocket connection refused: no session cookie.")
			resp.RespondError(w, r, errs.NewError(errs.ErrConnectionRefused))
			return
		}

		username, ok := deps.Sessions.Validate(cookie.Value)
		if !ok {
			logx.Warn("WebSocket connection refused: invalid session token.")
			resp.RespondError(w, r, errs.NewError(errs.ErrConnectionRefused))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := relay.NewClient(deps.Relay, conn, username)

		go client.WritePump()

		deps.Relay.Register(client)

		logx.Info("WebSocket connection established", "username", username)

		client.ReadPump()
	}
}
