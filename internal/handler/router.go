/*
Package handler provides the HTTP handlers and routing setup for the group
chat server.

This file defines the main Router, applying logging, CORS, and IP-based rate
limiting before delegating requests to the CRUD, auth, and WebSocket handlers.
All chat routes sit behind the session guard.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"groupchat/internal/pkg/limiter"
	"groupchat/internal/pkg/logx"
	"groupchat/internal/pkg/resp"
)

const (
	LoginRate    = 0.2
	LoginBurst   = 5
	ConnectRate  = 0.2
	ConnectBurst = 5
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global
// and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	loginLimiter := limiter.NewIPRateLimiter(rate.Limit(LoginRate), LoginBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "groupchat",
		}

		if err := deps.Store.Ping(r.Context()); err != nil {
			logx.Error(err, "Health check: document store unreachable")
			data["status"] = "degraded"
		}

		resp.RespondSuccess(w, r, data)
	})

	rateLimitedLogin := loginLimiter.Middleware(HandleLogin(deps))
	r.Post("/login", rateLimitedLogin.ServeHTTP)

	// The relay does its own handshake authentication so it can refuse the
	// connection outright instead of redirecting a socket client.
	r.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	r.Group(func(protected chi.Router) {
		protected.Use(deps.Sessions.Guard(deps.Config.SessionCookie))

		protected.Get("/chat", HandleListRooms(deps))
		protected.Post("/chat", HandleCreateRoom(deps))
		protected.Get("/chat/{roomID}", HandleGetRoom(deps))
		protected.Get("/chat/{roomID}/messages", HandleLastConversation(deps))

		protected.Get("/profile", HandleProfile(deps))
		protected.Get("/logout", HandleLogout(deps))
	})

	return r
}
