package transport

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/RoseWrightdev/Rank-It/internal/v1/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmoji struct{}

func (stubEmoji) EmojiFor(ctx context.Context, text string) string { return "⭐" }

// stubSubscriber is a minimal game.Subscriber for hub tests.
type stubSubscriber struct {
	id     game.SubscriberID
	mu     sync.Mutex
	closed bool
}

func (s *stubSubscriber) ID() game.SubscriberID { return s.id }
func (s *stubSubscriber) Send(data []byte) bool { return true }
func (s *stubSubscriber) Close(code game.Code) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *stubSubscriber) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func newTestHub(t *testing.T, ttl time.Duration) *Hub {
	t.Helper()
	h := NewHub(Options{
		Emoji:          stubEmoji{},
		RoomTTL:        ttl,
		AllowedOrigins: []string{"http://localhost:3000"},
	})
	t.Cleanup(func() {
		_ = h.Shutdown(context.Background())
	})
	return h
}

func TestCreateRoom(t *testing.T) {
	h := newTestHub(t, time.Minute)

	playerID, snap, err := h.CreateRoom(context.Background(), "Alice", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, playerID)
	assert.Equal(t, game.StatusLobby, snap.Status)
	assert.Equal(t, 1, h.RoomCount())

	room, ok := h.Room(snap.Code)
	require.True(t, ok)
	assert.Equal(t, snap.Code, room.Code())
}

func TestCreateRoom_InvalidNicknameDropsRoom(t *testing.T) {
	h := newTestHub(t, time.Minute)

	_, _, err := h.CreateRoom(context.Background(), "   ", nil)
	require.Error(t, err)
	assert.Equal(t, game.CodeInvalidNickname, game.CodeOf(err))
	assert.Equal(t, 0, h.RoomCount())
}

func TestCreateRoom_AssignsDistinctCodes(t *testing.T) {
	h := newTestHub(t, time.Minute)

	codes := make(map[game.RoomCode]bool)
	for i := 0; i < 10; i++ {
		_, snap, err := h.CreateRoom(context.Background(), "Alice", nil)
		require.NoError(t, err)
		require.False(t, codes[snap.Code], "duplicate code %s", snap.Code)
		codes[snap.Code] = true
	}
	assert.Equal(t, 10, h.RoomCount())
}

func TestRoom_UnknownCode(t *testing.T) {
	h := newTestHub(t, time.Minute)

	_, ok := h.Room("QQQQ")
	assert.False(t, ok)
}

func TestEviction_IdleRoomIsClosed(t *testing.T) {
	h := newTestHub(t, 20*time.Millisecond)

	_, snap, err := h.CreateRoom(context.Background(), "Alice", nil)
	require.NoError(t, err)
	require.Equal(t, 1, h.RoomCount())

	// Nobody ever subscribes, so the TTL runs out.
	require.Eventually(t, func() bool {
		return h.RoomCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	_, ok := h.Room(snap.Code)
	assert.False(t, ok)
}

func TestEviction_SkippedWhileSubscribed(t *testing.T) {
	h := newTestHub(t, 20*time.Millisecond)

	_, snap, err := h.CreateRoom(context.Background(), "Alice", nil)
	require.NoError(t, err)
	room, ok := h.Room(snap.Code)
	require.True(t, ok)

	sub := &stubSubscriber{id: "s1"}
	require.NoError(t, room.Subscribe(context.Background(), sub))

	// The armed timer fires but finds a live subscriber.
	time.Sleep(50 * time.Millisecond)
	h.evictIfIdle(snap.Code)
	assert.Equal(t, 1, h.RoomCount())

	// Once the subscriber detaches, the idle callback rearms the TTL and
	// the room goes away.
	room.Unsubscribe("s1")
	require.Eventually(t, func() bool {
		return h.RoomCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, sub.isClosed())
}

func TestShutdown_ClosesAllRooms(t *testing.T) {
	h := NewHub(Options{Emoji: stubEmoji{}, RoomTTL: time.Minute})

	_, snap, err := h.CreateRoom(context.Background(), "Alice", nil)
	require.NoError(t, err)
	room, ok := h.Room(snap.Code)
	require.True(t, ok)

	require.NoError(t, h.Shutdown(context.Background()))
	assert.Equal(t, 0, h.RoomCount())

	_, err = room.Snapshot(context.Background())
	require.Error(t, err)
	assert.Equal(t, game.CodeRoomClosed, game.CodeOf(err))
}

func TestOriginAllowed(t *testing.T) {
	mkReq := func(origin string) *http.Request {
		req, _ := http.NewRequest(http.MethodGet, "/room/ABCD", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		return req
	}

	allowed := []string{"http://localhost:3000", "https://rankit.example"}

	assert.True(t, originAllowed(mkReq(""), allowed)) // non-browser client
	assert.True(t, originAllowed(mkReq("http://localhost:3000"), allowed))
	assert.True(t, originAllowed(mkReq("https://rankit.example"), allowed))
	assert.False(t, originAllowed(mkReq("https://evil.example"), allowed))
	assert.True(t, originAllowed(mkReq("https://evil.example"), []string{"*"}))
}
