// Package game implements the per-room authoritative state machine at the
// heart of the server. Each Room is a single-writer actor: every mutation
// (HTTP actions, client messages, timer expiries) arrives as a command on one
// bounded FIFO queue and is handled serially by the Run loop. The actor owns
// its data exclusively; there is no per-field locking.
//
// The actor never blocks on I/O while handling a command. Outbound events are
// enqueued onto per-subscriber bounded queues (a slow subscriber is closed,
// not waited for), and the emoji lookup uses a two-command split: submit_item
// reserves the text and returns, emoji_resolved completes the submission once
// the provider answers. A room epoch token dropped-stale-guards both the
// split submission and the two game timers.
package game

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoseWrightdev/Rank-It/internal/v1/logging"
	"github.com/RoseWrightdev/Rank-It/internal/v1/metrics"
	"go.uber.org/zap"
)

const (
	// commandQueueSize bounds the actor's inbound queue.
	commandQueueSize = 256
	// recorderQueueSize bounds concurrent writes to the global item store.
	recorderQueueSize = 16
)

// EmojiProvider resolves an emoji for a submitted item text. Implementations
// must not return invalid output: on failure they fall back internally, so
// the call never errors from the actor's point of view.
type EmojiProvider interface {
	EmojiFor(ctx context.Context, text string) string
}

// ItemRecorder persists successfully submitted items to the global store.
// Failures are logged and dropped; the room never depends on the result.
type ItemRecorder interface {
	Add(ctx context.Context, text, emoji string) error
}

// Subscriber is one live message channel. Send must not block: it reports
// false when the subscriber's queue is full, and the actor responds by
// closing that subscriber rather than slowing the room.
type Subscriber interface {
	ID() SubscriberID
	Send(data []byte) bool
	Close(code Code)
}

// subscription is the actor's view of one attached channel.
type subscription struct {
	sub      Subscriber
	playerID PlayerID // empty while anonymous
}

// pendingSubmission is the reservation held while the emoji provider runs.
type pendingSubmission struct {
	text      string
	by        PlayerID
	roomEpoch uint64
}

// Options carries the room's injected dependencies.
type Options struct {
	Emoji    EmojiProvider
	Recorder ItemRecorder
	// OnIdle is invoked (in its own goroutine) whenever the room loses its
	// last subscriber, so the registry can schedule TTL eviction.
	OnIdle func(RoomCode)
	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

// Room is the per-room actor. All fields below the channel block are owned
// by the Run goroutine and must not be touched from outside it.
type Room struct {
	code RoomCode

	commands  chan command
	done      chan struct{}
	closeOnce sync.Once

	// Read by the registry from other goroutines.
	subCount     atomic.Int32
	lastActivity atomic.Int64 // unix milliseconds

	// Actor-owned state.
	cfg              Config
	status           Status
	hostID           PlayerID
	players          []*Player
	items            []*Item
	currentTurnIndex int
	turnDeadline     time.Time
	rankingDeadline  time.Time
	rankingItemID    ItemID
	createdAt        time.Time

	// epoch distinguishes generations of the room across resets; stale timer
	// fires and stale emoji resolutions are dropped by comparing against it.
	epoch   uint64
	pending *pendingSubmission

	turnTimer    gameTimer
	rankingTimer gameTimer

	subscribers map[SubscriberID]*subscription

	emoji       EmojiProvider
	recorder    ItemRecorder
	onIdle      func(RoomCode)
	now         func() time.Time
	recordQueue chan struct{}
}

// NewRoom builds a room actor. The caller must start it with go Run and must
// issue a create command before anything else; the registry does both.
func NewRoom(code RoomCode, opts Options) *Room {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	r := &Room{
		code:        code,
		commands:    make(chan command, commandQueueSize),
		done:        make(chan struct{}),
		cfg:         DefaultConfig(),
		status:      StatusLobby,
		subscribers: make(map[SubscriberID]*subscription),
		emoji:       opts.Emoji,
		recorder:    opts.Recorder,
		onIdle:      opts.OnIdle,
		now:         now,
		recordQueue: make(chan struct{}, recorderQueueSize),
	}
	r.createdAt = now()
	r.lastActivity.Store(now().UnixMilli())
	return r
}

// Code returns the room code.
func (r *Room) Code() RoomCode {
	return r.code
}

// SubscriberCount reports the number of attached channels. Safe from any
// goroutine; used by the registry for TTL eviction.
func (r *Room) SubscriberCount() int {
	return int(r.subCount.Load())
}

// LastActivity reports when the room state last changed. Safe from any
// goroutine.
func (r *Room) LastActivity() time.Time {
	return time.UnixMilli(r.lastActivity.Load())
}

// Run is the actor loop. It exits when Close is called, at which point all
// timers are stopped and every subscriber is closed with ROOM_CLOSED.
func (r *Room) Run() {
	defer r.teardown()
	for {
		select {
		case cmd := <-r.commands:
			r.dispatch(cmd)
		case <-r.done:
			return
		}
	}
}

// Close shuts the room down. Idempotent; safe from any goroutine.
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
}

func (r *Room) teardown() {
	r.turnTimer.stop()
	r.rankingTimer.stop()
	for id, s := range r.subscribers {
		s.sub.Close(CodeRoomClosed)
		delete(r.subscribers, id)
	}
	r.subCount.Store(0)
	metrics.RoomPlayers.DeleteLabelValues(string(r.code))
	logging.Info(context.Background(), "Room actor stopped", zap.String("room_code", string(r.code)))
}

// dispatch handles one command, records metrics, and answers the reply
// channel when present.
func (r *Room) dispatch(cmd command) {
	start := r.now()

	rep := r.handle(cmd)

	name := cmd.kind.String()
	metrics.MessageProcessingDuration.WithLabelValues(name).Observe(r.now().Sub(start).Seconds())
	if rep.err != nil {
		metrics.WebsocketEvents.WithLabelValues(name, "error").Inc()
	} else {
		metrics.WebsocketEvents.WithLabelValues(name, "success").Inc()
	}

	if cmd.reply != nil {
		cmd.reply <- rep
	} else if rep.err != nil && cmd.sub != nil {
		// Errors are returned to the originator only, never broadcast.
		cmd.sub.Send(EncodeError(CodeOf(rep.err), rep.err.Error()))
	}
}

func (r *Room) handle(cmd command) cmdReply {
	switch cmd.kind {
	case cmdCreate:
		return r.handleCreate(cmd)
	case cmdJoin:
		return r.handleJoin(cmd)
	case cmdStart:
		return r.handleStart(cmd)
	case cmdSubmitItem:
		return r.handleSubmitItem(cmd)
	case cmdEmojiResolved:
		return r.handleEmojiResolved(cmd)
	case cmdRankItem:
		return r.handleRankItem(cmd)
	case cmdSkipTurn:
		return r.handleSkipTurn(cmd)
	case cmdUpdateConfig:
		return r.handleUpdateConfig(cmd)
	case cmdReset:
		return r.handleReset(cmd)
	case cmdSubscribe:
		return r.handleSubscribe(cmd)
	case cmdUnsubscribe:
		return r.handleUnsubscribe(cmd)
	case cmdIdentify:
		return r.handleIdentify(cmd)
	case cmdTurnExpired:
		return r.handleTurnExpired(cmd)
	case cmdRankingExpired:
		return r.handleRankingExpired(cmd)
	case cmdSnapshot:
		return cmdReply{room: r.snapshot()}
	}
	return cmdReply{err: NewError(CodeRoomClosed, "unknown command")}
}

// --- Public command API (used by the registry, HTTP surface and transport) ---

// Create installs the host player and applies the config patch on top of the
// defaults. Must be the first command a room receives.
func (r *Room) Create(ctx context.Context, nickname string, patch *ConfigPatch) (PlayerID, *RoomSnapshot, error) {
	rep, err := r.do(ctx, command{kind: cmdCreate, nickname: nickname, patch: patch})
	if err != nil {
		return "", nil, err
	}
	return rep.playerID, rep.room, nil
}

// Join adds a player to the room.
func (r *Room) Join(ctx context.Context, nickname string) (PlayerID, *RoomSnapshot, error) {
	rep, err := r.do(ctx, command{kind: cmdJoin, nickname: nickname})
	if err != nil {
		return "", nil, err
	}
	return rep.playerID, rep.room, nil
}

// Start begins the game. Host authority required.
func (r *Room) Start(ctx context.Context, by PlayerID) (*RoomSnapshot, error) {
	rep, err := r.do(ctx, command{kind: cmdStart, playerID: by})
	if err != nil {
		return nil, err
	}
	return rep.room, nil
}

// Snapshot returns the current room state.
func (r *Room) Snapshot(ctx context.Context) (*RoomSnapshot, error) {
	rep, err := r.do(ctx, command{kind: cmdSnapshot})
	if err != nil {
		return nil, err
	}
	return rep.room, nil
}

// Subscribe attaches a channel as an anonymous subscriber. It receives
// broadcasts immediately but cannot mutate state until it identifies.
func (r *Room) Subscribe(ctx context.Context, sub Subscriber) error {
	_, err := r.do(ctx, command{kind: cmdSubscribe, sub: sub})
	return err
}

// Unsubscribe detaches a channel. Fire-and-forget: the read pump calls this
// from its deferred cleanup and must not block on a closed room.
func (r *Room) Unsubscribe(subID SubscriberID) {
	r.post(command{kind: cmdUnsubscribe, subID: subID})
}
