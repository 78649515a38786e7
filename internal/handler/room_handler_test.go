package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"groupchat/internal/app/relay"
	"groupchat/internal/app/store"
	"groupchat/internal/configs"
	"groupchat/internal/pkg/errs"
	"groupchat/internal/pkg/resp"
)

func newRoomDeps(mockStore *store.MockStore) *AppDeps {
	return &AppDeps{
		Config: &configs.AppConfig{
			SessionCookie:    configs.DefaultSessionCookie,
			MessageBlockSize: configs.DefaultMessageBlockSize,
		},
		Store:   mockStore,
		Buffers: relay.NewBuffers(),
	}
}

// withRoomID attaches a chi route context carrying the roomID URL parameter.
func withRoomID(r *http.Request, roomID string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("roomID", roomID)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) resp.JSONResponse {
	t.Helper()
	var body resp.JSONResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestHandleListRooms(t *testing.T) {
	mockStore := &store.MockStore{}
	defer mockStore.AssertExpectations(t)
	mockStore.On("Rooms", mock.Anything).Return([]store.Room{
		{ID: "r1", Name: "general"},
		{ID: "r2", Name: "random"},
	}, nil)

	deps := newRoomDeps(mockStore)
	deps.Buffers.Init("r1")
	deps.Buffers.Init("r2")
	deps.Buffers.Append("r1", store.Message{Username: "alice", Text: "hello"}, 10, 1)

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	rr := httptest.NewRecorder()
	HandleListRooms(deps).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeResponse(t, rr)
	assert.Zero(t, body.Code)

	raw, err := json.Marshal(body.Data)
	require.NoError(t, err)
	var rooms []RoomWithMessages
	require.NoError(t, json.Unmarshal(raw, &rooms))

	require.Len(t, rooms, 2)
	assert.Equal(t, "general", rooms[0].Name)
	assert.Equal(t, []store.Message{{Username: "alice", Text: "hello"}}, rooms[0].Messages,
		"expected the unpersisted tail merged into the room listing")
	assert.Empty(t, rooms[1].Messages)
}

func TestHandleListRoomsStoreError(t *testing.T) {
	mockStore := &store.MockStore{}
	mockStore.On("Rooms", mock.Anything).Return(nil, errors.New("connection reset"))

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	rr := httptest.NewRecorder()
	HandleListRooms(newRoomDeps(mockStore)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, errs.ErrUnknown, decodeResponse(t, rr).Code)
}

func TestHandleCreateRoom(t *testing.T) {
	mockStore := &store.MockStore{}
	defer mockStore.AssertExpectations(t)
	mockStore.On("AddRoom", mock.Anything, "general", "general.png").
		Return(&store.Room{ID: "r1", Name: "general", Image: "general.png"}, nil)

	deps := newRoomDeps(mockStore)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"name":"general","image":"general.png"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	HandleCreateRoom(deps).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeResponse(t, rr)
	assert.Zero(t, body.Code)

	raw, err := json.Marshal(body.Data)
	require.NoError(t, err)
	var room store.Room
	require.NoError(t, json.Unmarshal(raw, &room))
	assert.Equal(t, "r1", room.ID)

	assert.NotNil(t, deps.Buffers.Snapshot("r1"), "expected the new room to get an empty buffer")
}

func TestHandleCreateRoomRejectsBadInput(t *testing.T) {
	tcases := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantCode    int
	}{
		{
			name:        "missing content type",
			contentType: "",
			body:        `{"name":"general"}`,
			wantStatus:  http.StatusUnsupportedMediaType,
			wantCode:    errs.ErrUnsupportedMediaType,
		},
		{
			name:        "malformed json",
			contentType: "application/json",
			body:        `{"name":`,
			wantStatus:  http.StatusBadRequest,
			wantCode:    errs.ErrInvalidJSONFormat,
		},
		{
			name:        "unknown field",
			contentType: "application/json",
			body:        `{"name":"general","admin":true}`,
			wantStatus:  http.StatusBadRequest,
			wantCode:    errs.ErrInvalidJSONFormat,
		},
		{
			name:        "empty name",
			contentType: "application/json",
			body:        `{"name":""}`,
			wantStatus:  http.StatusBadRequest,
			wantCode:    errs.ErrRoomNameRequired,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockStore := &store.MockStore{}
			defer mockStore.AssertNotCalled(t, "AddRoom")

			req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(tc.body))
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			rr := httptest.NewRecorder()
			HandleCreateRoom(newRoomDeps(mockStore)).ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantCode, decodeResponse(t, rr).Code)
		})
	}
}

func TestHandleGetRoom(t *testing.T) {
	mockStore := &store.MockStore{}
	defer mockStore.AssertExpectations(t)
	mockStore.On("Room", mock.Anything, "r1").Return(&store.Room{ID: "r1", Name: "general"}, nil)

	req := withRoomID(httptest.NewRequest(http.MethodGet, "/chat/r1", nil), "r1")
	rr := httptest.NewRecorder()
	HandleGetRoom(newRoomDeps(mockStore)).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, decodeResponse(t, rr).Code)
}

func TestHandleGetRoomNotFound(t *testing.T) {
	mockStore := &store.MockStore{}
	mockStore.On("Room", mock.Anything, "nope").Return(nil, nil)

	req := withRoomID(httptest.NewRequest(http.MethodGet, "/chat/nope", nil), "nope")
	rr := httptest.NewRecorder()
	HandleGetRoom(newRoomDeps(mockStore)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, errs.ErrRoomNotFound, decodeResponse(t, rr).Code)
}

func TestHandleLastConversation(t *testing.T) {
	block := &store.ConversationBlock{
		RoomID:    "r1",
		Timestamp: 200,
		Messages:  []store.Message{{Username: "alice", Text: "hi"}},
	}

	tcases := []struct {
		name       string
		query      string
		storeBlock *store.ConversationBlock
		wantBefore int64
		wantStatus int
		wantCode   int
	}{
		{
			name:       "without before asks for the latest block",
			storeBlock: block,
			wantBefore: 0,
			wantStatus: http.StatusOK,
		},
		{
			name:       "before is forwarded as parsed",
			query:      "?before=12345",
			storeBlock: block,
			wantBefore: 12345,
			wantStatus: http.StatusOK,
		},
		{
			name:       "no qualifying block is a 404",
			query:      "?before=100",
			storeBlock: nil,
			wantBefore: 100,
			wantStatus: http.StatusNotFound,
			wantCode:   errs.ErrConversationNotFound,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockStore := &store.MockStore{}
			defer mockStore.AssertExpectations(t)
			mockStore.On("LastConversation", mock.Anything, "r1", tc.wantBefore).Return(tc.storeBlock, nil)

			req := withRoomID(httptest.NewRequest(http.MethodGet, "/chat/r1/messages"+tc.query, nil), "r1")
			rr := httptest.NewRecorder()
			HandleLastConversation(newRoomDeps(mockStore)).ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantCode, decodeResponse(t, rr).Code)
		})
	}
}

func TestHandleLastConversationRejectsBadBefore(t *testing.T) {
	for _, query := range []string{"?before=abc", "?before=-1", "?before=1.5"} {
		mockStore := &store.MockStore{}

		req := withRoomID(httptest.NewRequest(http.MethodGet, "/chat/r1/messages"+query, nil), "r1")
		rr := httptest.NewRecorder()
		HandleLastConversation(newRoomDeps(mockStore)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code, "query %s", query)
		assert.Equal(t, errs.ErrInvalidParams, decodeResponse(t, rr).Code, "query %s", query)
		mockStore.AssertNotCalled(t, "LastConversation")
	}
}
