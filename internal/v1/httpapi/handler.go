// Package httpapi exposes the REST control surface: room creation, joining,
// starting, snapshots and suggestions. Realtime play happens over the
// WebSocket attached to the same room path.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/RoseWrightdev/Rank-It/internal/v1/game"
	"github.com/RoseWrightdev/Rank-It/internal/v1/store"
	"github.com/RoseWrightdev/Rank-It/internal/v1/transport"
	"github.com/RoseWrightdev/Rank-It/internal/v1/validate"
	"github.com/gin-gonic/gin"
)

// Handler serves the room HTTP endpoints.
type Handler struct {
	hub       *transport.Hub
	itemStore *store.Service
}

// NewHandler builds the HTTP handler around the room registry.
func NewHandler(hub *transport.Hub, itemStore *store.Service) *Handler {
	return &Handler{hub: hub, itemStore: itemStore}
}

// Register installs the room routes on the router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/room/:code", h.RoomAction)
	rg.GET("/room/:code", h.GetRoom)
	rg.GET("/room/:code/suggestion", h.GetSuggestion)
}

// roomActionRequest is the body of POST /room/:code.
type roomActionRequest struct {
	Action   string            `json:"action" binding:"required"`
	Nickname string            `json:"nickname"`
	PlayerID string            `json:"playerId"`
	Config   *game.ConfigPatch `json:"config"`
}

// roomResponse is the success shape shared by all room actions.
type roomResponse struct {
	PlayerID game.PlayerID      `json:"playerId,omitempty"`
	Room     *game.RoomSnapshot `json:"room"`
}

// RoomAction handles POST /room/:code with an action discriminator. For
// "create" the path code is ignored: codes are always server-assigned.
func (h *Handler) RoomAction(c *gin.Context) {
	var req roomActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, game.NewError(game.CodeInvalidConfig, "invalid request body"))
		return
	}

	ctx := c.Request.Context()
	switch req.Action {
	case "create":
		playerID, snap, err := h.hub.CreateRoom(ctx, req.Nickname, req.Config)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, roomResponse{PlayerID: playerID, Room: snap})

	case "join":
		room, err := h.lookupRoom(c)
		if err != nil {
			writeError(c, err)
			return
		}
		playerID, snap, err := room.Join(ctx, req.Nickname)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, roomResponse{PlayerID: playerID, Room: snap})

	case "start":
		room, err := h.lookupRoom(c)
		if err != nil {
			writeError(c, err)
			return
		}
		snap, err := room.Start(ctx, game.PlayerID(req.PlayerID))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, roomResponse{Room: snap})

	default:
		writeError(c, game.NewError(game.CodeInvalidConfig, "unknown action %q", req.Action))
	}
}

// GetRoom handles GET /room/:code. A plain request returns the snapshot; a
// WebSocket upgrade request attaches the caller as a room subscriber instead.
func (h *Handler) GetRoom(c *gin.Context) {
	if c.IsWebsocket() {
		code := game.RoomCode(c.Param("code"))
		if err := validate.RoomCode(string(code)); err != nil {
			writeError(c, game.NewError(game.CodeInvalidRoomCode, "%s", err))
			return
		}
		h.hub.ServeWs(c, code)
		return
	}

	room, err := h.lookupRoom(c)
	if err != nil {
		writeError(c, err)
		return
	}
	snap, err := room.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, roomResponse{Room: snap})
}

// GetSuggestion handles GET /room/:code/suggestion: a random entry from the
// global item catalog, for clients stuck on what to submit.
func (h *Handler) GetSuggestion(c *gin.Context) {
	if _, err := h.lookupRoom(c); err != nil {
		writeError(c, err)
		return
	}

	entries, err := h.itemStore.Sample(c.Request.Context(), 1)
	if err != nil || len(entries) == 0 {
		// Adapter failures degrade to "no suggestion", never an error.
		c.JSON(http.StatusNoContent, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": entries[0].Text, "emoji": entries[0].Emoji})
}

func (h *Handler) lookupRoom(c *gin.Context) (*game.Room, error) {
	code := c.Param("code")
	if err := validate.RoomCode(code); err != nil {
		return nil, game.NewError(game.CodeInvalidRoomCode, "%s", err)
	}
	room, ok := h.hub.Room(game.RoomCode(code))
	if !ok {
		return nil, game.NewError(game.CodeRoomNotFound, "room %s not found", code)
	}
	return room, nil
}

// writeError maps a coded game error onto an HTTP status and JSON body.
func writeError(c *gin.Context, err error) {
	code := game.CodeOf(err)
	var gerr *game.Error
	message := err.Error()
	if errors.As(err, &gerr) {
		message = gerr.Message
	}
	c.JSON(statusFor(code), gin.H{"error": code, "message": message})
}

func statusFor(code game.Code) int {
	switch code {
	case game.CodeInvalidNickname, game.CodeInvalidRoomCode, game.CodeInvalidItemText,
		game.CodeInvalidEmoji, game.CodeInvalidRanking, game.CodeInvalidConfig:
		return http.StatusBadRequest
	case game.CodeRoomNotFound, game.CodeItemNotFound, game.CodePlayerNotFound:
		return http.StatusNotFound
	case game.CodeNotHost, game.CodeNotYourTurn, game.CodeNoHostAvailable:
		return http.StatusForbidden
	case game.CodeRoomEnded, game.CodeGameAlreadyStarted, game.CodeNotEnoughPlayers,
		game.CodeNicknameTaken, game.CodeDuplicateItem, game.CodeRankingSlotTaken:
		return http.StatusConflict
	case game.CodeCodeExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
