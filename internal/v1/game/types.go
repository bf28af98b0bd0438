package game

import (
	"time"
)

// --- Core Domain Types ---

// RoomCode identifies a room; 4 uppercase letters excluding I and O.
type RoomCode string

// PlayerID is the opaque identifier a client holds across reconnects.
type PlayerID string

// ItemID identifies an item within its room.
type ItemID string

// SubscriberID identifies a single live WebSocket channel. Multiple
// subscribers may be bound to one PlayerID (duplicate browser tabs).
type SubscriberID string

// Status is the room lifecycle state.
type Status string

const (
	StatusLobby      Status = "lobby"
	StatusInProgress Status = "in_progress"
	StatusEnded      Status = "ended"
)

// SubmissionMode controls who may submit the next item.
type SubmissionMode string

const (
	ModeRoundRobin SubmissionMode = "round_robin"
	ModeHostOnly   SubmissionMode = "host_only"
)

// Config is the per-room game configuration.
type Config struct {
	SubmissionMode        SubmissionMode `json:"submissionMode"`
	TimerEnabled          bool           `json:"timerEnabled"`
	TimerDurationSeconds  int            `json:"timerDurationSeconds"`
	RankingTimeoutSeconds int            `json:"rankingTimeoutSeconds"`
	ItemsPerGame          int            `json:"itemsPerGame"`
}

// DefaultConfig returns the configuration applied when a room is created
// without overrides.
func DefaultConfig() Config {
	return Config{
		SubmissionMode:        ModeRoundRobin,
		TimerEnabled:          true,
		TimerDurationSeconds:  60,
		RankingTimeoutSeconds: 30,
		ItemsPerGame:          10,
	}
}

// ConfigPatch is a partial config update; nil fields are left unchanged.
type ConfigPatch struct {
	SubmissionMode        *SubmissionMode `json:"submissionMode,omitempty"`
	TimerEnabled          *bool           `json:"timerEnabled,omitempty"`
	TimerDurationSeconds  *int            `json:"timerDurationSeconds,omitempty"`
	RankingTimeoutSeconds *int            `json:"rankingTimeoutSeconds,omitempty"`
	ItemsPerGame          *int            `json:"itemsPerGame,omitempty"`
}

// Player is owned by its Room and mutated only by the room actor.
type Player struct {
	ID       PlayerID
	Nickname string
	// Connected is derived from the set of subscribers bound to this id.
	Connected bool
	// Rankings maps item id to this player's rank; each rank is used at most
	// once per player.
	Rankings map[ItemID]int
	JoinedAt time.Time
	// CatchingUp is set when the player joins after items already exist, and
	// cleared once they have ranked every item present at that point in time.
	CatchingUp bool
}

// Item is owned by its Room.
type Item struct {
	ID          ItemID
	Text        string
	Emoji       string
	SubmittedBy PlayerID
	SubmittedAt time.Time
}

// --- Snapshot types (the JSON view broadcast to clients) ---

// PlayerSnapshot is the wire representation of a Player.
type PlayerSnapshot struct {
	ID         PlayerID         `json:"id"`
	Nickname   string           `json:"nickname"`
	Connected  bool             `json:"connected"`
	Rankings   map[ItemID]int   `json:"rankings"`
	JoinedAt   int64            `json:"joinedAt"`
	CatchingUp bool             `json:"catchingUp"`
}

// ItemSnapshot is the wire representation of an Item.
type ItemSnapshot struct {
	ID          ItemID   `json:"id"`
	Text        string   `json:"text"`
	Emoji       string   `json:"emoji"`
	SubmittedBy PlayerID `json:"submittedBy"`
	SubmittedAt int64    `json:"submittedAt"`
}

// RoomSnapshot is the full room state fanned out on every mutation.
// Timestamps are unix milliseconds; deadlines are null when inactive.
type RoomSnapshot struct {
	Code                RoomCode         `json:"code"`
	HostID              PlayerID         `json:"hostId"`
	Status              Status           `json:"status"`
	Config              Config           `json:"config"`
	Players             []PlayerSnapshot `json:"players"`
	Items               []ItemSnapshot   `json:"items"`
	CurrentTurnIndex    int              `json:"currentTurnIndex"`
	CurrentTurnPlayerID PlayerID         `json:"currentTurnPlayerId,omitempty"`
	TurnEndsAt          *int64           `json:"turnEndsAt"`
	RankingEndsAt       *int64           `json:"rankingEndsAt"`
	CreatedAt           int64            `json:"createdAt"`
	LastActivityAt      int64            `json:"lastActivityAt"`
	Results             []AggregateEntry `json:"results,omitempty"`
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func millisOrNil(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
