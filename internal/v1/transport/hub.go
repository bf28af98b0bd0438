package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/RoseWrightdev/Rank-It/internal/v1/game"
	"github.com/RoseWrightdev/Rank-It/internal/v1/ids"
	"github.com/RoseWrightdev/Rank-It/internal/v1/logging"
	"github.com/RoseWrightdev/Rank-It/internal/v1/metrics"
	"github.com/RoseWrightdev/Rank-It/internal/v1/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// codeAllocationRetries bounds how many random codes the hub tries before
// giving up with CODE_EXHAUSTED.
const codeAllocationRetries = 5

// Hub is the room registry: it allocates codes, owns every live room actor,
// upgrades WebSocket subscribers, and evicts idle rooms after their TTL.
type Hub struct {
	rooms            map[game.RoomCode]*game.Room
	mu               sync.Mutex
	pendingEvictions map[game.RoomCode]*time.Timer

	roomTTL        time.Duration
	emoji          game.EmojiProvider
	recorder       game.ItemRecorder
	rateLimiter    *ratelimit.RateLimiter
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// Options configures a Hub.
type Options struct {
	Emoji          game.EmojiProvider
	Recorder       game.ItemRecorder
	RoomTTL        time.Duration
	AllowedOrigins []string
	RateLimiter    *ratelimit.RateLimiter
}

// NewHub creates a Hub and configures it with its dependencies.
func NewHub(opts Options) *Hub {
	h := &Hub{
		rooms:            make(map[game.RoomCode]*game.Room),
		pendingEvictions: make(map[game.RoomCode]*time.Timer),
		roomTTL:          opts.RoomTTL,
		emoji:            opts.Emoji,
		recorder:         opts.Recorder,
		rateLimiter:      opts.RateLimiter,
		allowedOrigins:   opts.AllowedOrigins,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r, h.allowedOrigins)
		},
	}
	return h
}

// CreateRoom allocates a fresh room code, starts the actor, and installs the
// creator as host. The path code in the client's request is ignored; codes
// are always server-assigned.
func (h *Hub) CreateRoom(ctx context.Context, nickname string, patch *game.ConfigPatch) (game.PlayerID, *game.RoomSnapshot, error) {
	for attempt := 0; attempt < codeAllocationRetries; attempt++ {
		code := game.RoomCode(ids.NewRoomCode())

		h.mu.Lock()
		if _, taken := h.rooms[code]; taken {
			h.mu.Unlock()
			continue
		}
		r := game.NewRoom(code, game.Options{
			Emoji:    h.emoji,
			Recorder: h.recorder,
			OnIdle:   h.scheduleEviction,
		})
		h.rooms[code] = r
		h.mu.Unlock()

		go r.Run()
		metrics.ActiveRooms.Inc()

		playerID, snap, err := r.Create(ctx, nickname, patch)
		if err != nil {
			h.dropRoom(code)
			return "", nil, err
		}
		// Arm the TTL now; a room whose creator never opens the WebSocket
		// must still expire.
		h.scheduleEviction(code)
		logging.Info(ctx, "Room created", zap.String("room_code", string(code)))
		return playerID, snap, nil
	}
	return "", nil, game.NewError(game.CodeCodeExhausted, "could not allocate a room code")
}

// Room returns the live room for a code.
func (h *Hub) Room(code game.RoomCode) (*game.Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[code]
	return r, ok
}

// ServeWs upgrades the request and attaches the connection to the room as an
// anonymous subscriber. Binding to a player happens via the identify message.
func (h *Hub) ServeWs(c *gin.Context, code game.RoomCode) {
	if h.rateLimiter != nil && !h.rateLimiter.CheckWebSocket(c) {
		return // response already written
	}

	room, ok := h.Room(code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": game.CodeRoomNotFound, "message": "room not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn(c.Request.Context(), "WebSocket upgrade failed",
			zap.String("room_code", string(code)), zap.Error(err))
		return
	}

	client := newClient(conn, room)
	if err := room.Subscribe(c.Request.Context(), client); err != nil {
		_ = conn.Close()
		return
	}
	h.cancelEviction(code)
	metrics.IncConnection()

	go client.writePump()
	go client.readPump()
}

// scheduleEviction is the rooms' OnIdle callback: it arms (or rearms) the TTL
// timer when a room loses its last subscriber. The timer rechecks before
// closing so a reconnect or late activity cancels the eviction.
func (h *Hub) scheduleEviction(code game.RoomCode) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if timer, ok := h.pendingEvictions[code]; ok {
		timer.Stop()
	}
	h.pendingEvictions[code] = time.AfterFunc(h.roomTTL, func() { h.evictIfIdle(code) })
}

func (h *Hub) evictIfIdle(code game.RoomCode) {
	h.mu.Lock()
	r, ok := h.rooms[code]
	if !ok {
		delete(h.pendingEvictions, code)
		h.mu.Unlock()
		return
	}
	if r.SubscriberCount() > 0 {
		delete(h.pendingEvictions, code)
		h.mu.Unlock()
		logging.Info(context.Background(), "Cancelled room eviction - room is active",
			zap.String("room_code", string(code)))
		return
	}
	// Idle, but activity may have happened after the timer was armed.
	if remaining := h.roomTTL - time.Since(r.LastActivity()); remaining > 0 {
		h.pendingEvictions[code] = time.AfterFunc(remaining, func() { h.evictIfIdle(code) })
		h.mu.Unlock()
		return
	}
	delete(h.rooms, code)
	delete(h.pendingEvictions, code)
	h.mu.Unlock()

	r.Close()
	metrics.ActiveRooms.Dec()
	logging.Info(context.Background(), "Evicted idle room", zap.String("room_code", string(code)))
}

func (h *Hub) cancelEviction(code game.RoomCode) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if timer, ok := h.pendingEvictions[code]; ok {
		timer.Stop()
		delete(h.pendingEvictions, code)
	}
}

// dropRoom removes a room that failed during creation.
func (h *Hub) dropRoom(code game.RoomCode) {
	h.mu.Lock()
	r, ok := h.rooms[code]
	delete(h.rooms, code)
	h.mu.Unlock()
	if ok {
		r.Close()
		metrics.ActiveRooms.Dec()
	}
}

// RoomCount reports the number of live rooms.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Shutdown gracefully closes all active rooms and connections.
func (h *Hub) Shutdown(ctx context.Context) error {
	logging.Info(ctx, "Shutting down Hub - closing all active rooms...")

	h.mu.Lock()
	for code, timer := range h.pendingEvictions {
		timer.Stop()
		delete(h.pendingEvictions, code)
	}
	rooms := make([]*game.Room, 0, len(h.rooms))
	for code, r := range h.rooms {
		rooms = append(rooms, r)
		delete(h.rooms, code)
	}
	h.mu.Unlock()

	for _, r := range rooms {
		r.Close()
	}
	logging.Info(ctx, "All rooms closed", zap.Int("count", len(rooms)))
	return nil
}

// originAllowed implements the browser origin check. Non-browser clients
// without an Origin header are allowed; "*" allows everything.
func originAllowed(r *http.Request, allowed []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
