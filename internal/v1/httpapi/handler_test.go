package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RoseWrightdev/Rank-It/internal/v1/game"
	"github.com/RoseWrightdev/Rank-It/internal/v1/transport"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmoji struct{}

func (stubEmoji) EmojiFor(ctx context.Context, text string) string { return "⭐" }

func newTestServer(t *testing.T) (*gin.Engine, *transport.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := transport.NewHub(transport.Options{
		Emoji:   stubEmoji{},
		RoomTTL: time.Minute,
	})
	t.Cleanup(func() {
		_ = hub.Shutdown(context.Background())
	})

	router := gin.New()
	NewHandler(hub, nil).Register(router.Group("/"))
	return router, hub
}

type apiResponse struct {
	PlayerID string             `json:"playerId"`
	Room     *game.RoomSnapshot `json:"room"`
	Error    string             `json:"error"`
	Message  string             `json:"message"`
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp apiResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func createRoom(t *testing.T, router *gin.Engine) (game.RoomCode, string) {
	t.Helper()
	w, resp := doJSON(t, router, http.MethodPost, "/room/NEW1", gin.H{
		"action":   "create",
		"nickname": "Alice",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, resp.Room)
	return resp.Room.Code, resp.PlayerID
}

func TestCreateRoom(t *testing.T) {
	router, _ := newTestServer(t)

	w, resp := doJSON(t, router, http.MethodPost, "/room/IGNORED", gin.H{
		"action":   "create",
		"nickname": "Alice",
		"config":   gin.H{"itemsPerGame": 5},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, resp.PlayerID)
	require.NotNil(t, resp.Room)
	// The path segment is never the assigned code.
	assert.NotEqual(t, game.RoomCode("IGNORED"), resp.Room.Code)
	assert.Len(t, string(resp.Room.Code), 4)
	assert.Equal(t, 5, resp.Room.Config.ItemsPerGame)
}

func TestCreateRoom_InvalidNickname(t *testing.T) {
	router, _ := newTestServer(t)

	w, resp := doJSON(t, router, http.MethodPost, "/room/NEW1", gin.H{
		"action":   "create",
		"nickname": "   ",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(game.CodeInvalidNickname), resp.Error)
	assert.NotEmpty(t, resp.Message)
}

func TestJoinRoom(t *testing.T) {
	router, _ := newTestServer(t)
	code, _ := createRoom(t, router)

	w, resp := doJSON(t, router, http.MethodPost, fmt.Sprintf("/room/%s", code), gin.H{
		"action":   "join",
		"nickname": "Bob",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, resp.PlayerID)
	assert.Len(t, resp.Room.Players, 2)
}

func TestJoinRoom_Errors(t *testing.T) {
	router, _ := newTestServer(t)
	code, _ := createRoom(t, router)

	t.Run("unknown room", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPost, "/room/QQQQ", gin.H{
			"action":   "join",
			"nickname": "Bob",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, string(game.CodeRoomNotFound), resp.Error)
	})

	t.Run("malformed code", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPost, "/room/toolong", gin.H{
			"action":   "join",
			"nickname": "Bob",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, string(game.CodeInvalidRoomCode), resp.Error)
	})

	t.Run("nickname collision", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPost, fmt.Sprintf("/room/%s", code), gin.H{
			"action":   "join",
			"nickname": "alice",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, string(game.CodeNicknameTaken), resp.Error)
	})
}

func TestStartRoom(t *testing.T) {
	router, _ := newTestServer(t)
	code, hostID := createRoom(t, router)

	w, joined := doJSON(t, router, http.MethodPost, fmt.Sprintf("/room/%s", code), gin.H{
		"action":   "join",
		"nickname": "Bob",
	})
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("non-host is rejected", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPost, fmt.Sprintf("/room/%s", code), gin.H{
			"action":   "start",
			"playerId": joined.PlayerID,
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, string(game.CodeNotHost), resp.Error)
	})

	t.Run("host starts the game", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPost, fmt.Sprintf("/room/%s", code), gin.H{
			"action":   "start",
			"playerId": hostID,
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, game.StatusInProgress, resp.Room.Status)
	})
}

func TestGetRoom(t *testing.T) {
	router, _ := newTestServer(t)
	code, _ := createRoom(t, router)

	w, resp := doJSON(t, router, http.MethodGet, fmt.Sprintf("/room/%s", code), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, code, resp.Room.Code)
	assert.Equal(t, game.StatusLobby, resp.Room.Status)

	w, resp = doJSON(t, router, http.MethodGet, "/room/QQQQ", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(game.CodeRoomNotFound), resp.Error)
}

func TestRoomAction_BadRequests(t *testing.T) {
	router, _ := newTestServer(t)
	code, _ := createRoom(t, router)

	t.Run("missing action", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, fmt.Sprintf("/room/%s", code), gin.H{
			"nickname": "Bob",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown action", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, fmt.Sprintf("/room/%s", code), gin.H{
			"action": "explode",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/room/%s", code), bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetSuggestion_EmptyCatalog(t *testing.T) {
	router, _ := newTestServer(t)
	code, _ := createRoom(t, router)

	// No Redis behind the handler: the catalog is empty, not an error.
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/room/%s/suggestion", code), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/room/QQQQ/suggestion", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
