/*
Package handler provides the HTTP handlers and routing setup for the group
chat server.

This file contains the room CRUD surface and the history pagination endpoint.
*/
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"groupchat/internal/app/store"
	"groupchat/internal/pkg/errs"
	"groupchat/internal/pkg/logx"
	"groupchat/internal/pkg/req"
	"groupchat/internal/pkg/resp"
)

// RoomWithMessages is a room document merged with its live unpersisted tail.
type RoomWithMessages struct {
	store.Room
	Messages []store.Message `json:"messages"`
}

// HandleListRooms returns every room with its current unflushed buffer merged in.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, err := deps.Store.Rooms(r.Context())
		if err != nil {
			logx.Error(err, "failed to list rooms")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		merged := make([]RoomWithMessages, 0, len(rooms))
		for _, room := range rooms {
			merged = append(merged, RoomWithMessages{
				Room:     room,
				Messages: deps.Buffers.Snapshot(room.ID),
			})
		}

		resp.RespondSuccess(w, r, merged)
	}
}

type createRoomInput struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// HandleCreateRoom creates a room and initializes its empty message buffer.
// A missing name is a validation failure.
func HandleCreateRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input createRoomInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Name == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomNameRequired))
			return
		}

		room, err := deps.Store.AddRoom(r.Context(), input.Name, input.Image)
		if err != nil {
			logx.Error(err, "failed to create room", "name", input.Name)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		deps.Buffers.Init(room.ID)

		resp.RespondSuccess(w, r, room)
	}
}

// HandleGetRoom returns a single room or a 404.
func HandleGetRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomID")

		room, err := deps.Store.Room(r.Context(), roomID)
		if err != nil {
			logx.Error(err, "failed to fetch room", "room_id", roomID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if room == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomNotFound))
			return
		}

		resp.RespondSuccess(w, r, room)
	}
}

// HandleLastConversation returns the latest conversation block strictly
// earlier than the "before" query parameter (epoch ms), or earlier than now
// when the parameter is omitted. No qualifying block is a 404, not an error.
func HandleLastConversation(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomID")

		var before int64
		if raw := r.URL.Query().Get("before"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed < 0 {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			before = parsed
		}

		block, err := deps.Store.LastConversation(r.Context(), roomID, before)
		if err != nil {
			logx.Error(err, "failed to fetch conversation", "room_id", roomID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if block == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrConversationNotFound))
			return
		}

		resp.RespondSuccess(w, r, block)
	}
}
