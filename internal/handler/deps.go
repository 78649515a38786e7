package handler

import (
	"groupchat/internal/app/relay"
	"groupchat/internal/app/session"
	"groupchat/internal/app/store"
	"groupchat/internal/configs"
)

// AppDeps bundles the collaborators every handler may need. One instance is
// assembled in main and passed explicitly; no package-level state.
type AppDeps struct {
	Config   *configs.AppConfig
	Store    store.Store
	Sessions *session.Store
	Relay    *relay.Relay
	Buffers  *relay.Buffers
}
