package game

import (
	"context"
	"encoding/json"

	"github.com/RoseWrightdev/Rank-It/internal/v1/logging"
	"go.uber.org/zap"
)

// EventType names a server→client broadcast event.
type EventType string

const (
	EventRoomUpdated       EventType = "room_updated"
	EventItemSubmitted     EventType = "item_submitted"
	EventPlayerJoined      EventType = "player_joined"
	EventPlayerLeft        EventType = "player_left"
	EventPlayerReconnected EventType = "player_reconnected"
	EventTurnChanged       EventType = "turn_changed"
	EventGameStarted       EventType = "game_started"
	EventGameEnded         EventType = "game_ended"
	EventRoomReset         EventType = "room_reset"
	EventConfigUpdated     EventType = "config_updated"
	EventPong              EventType = "pong"
	EventError             EventType = "error"
)

// MessageType names a client→server control message.
type MessageType string

const (
	MessageIdentify     MessageType = "identify"
	MessagePing         MessageType = "ping"
	MessageSubmitItem   MessageType = "submit_item"
	MessageRankItem     MessageType = "rank_item"
	MessageSkipTurn     MessageType = "skip_turn"
	MessageUpdateConfig MessageType = "update_config"
	MessageResetRoom    MessageType = "reset_room"
)

// ClientMessage is the decoded form of every control message. Fields are
// populated per message type; unknown fields are ignored.
type ClientMessage struct {
	Type     MessageType  `json:"type"`
	PlayerID string       `json:"playerId,omitempty"`
	Text     string       `json:"text,omitempty"`
	ItemID   string       `json:"itemId,omitempty"`
	Ranking  int          `json:"ranking,omitempty"`
	Config   *ConfigPatch `json:"config,omitempty"`
}

// --- Event payload shapes ---

type roomUpdatedEvent struct {
	Type EventType     `json:"type"`
	Room *RoomSnapshot `json:"room"`
}

type itemSubmittedEvent struct {
	Type EventType    `json:"type"`
	Item ItemSnapshot `json:"item"`
}

type playerJoinedEvent struct {
	Type   EventType      `json:"type"`
	Player PlayerSnapshot `json:"player"`
}

type playerRefEvent struct {
	Type     EventType `json:"type"`
	PlayerID PlayerID  `json:"playerId"`
}

type turnChangedEvent struct {
	Type       EventType `json:"type"`
	PlayerID   PlayerID  `json:"playerId"`
	TimerEndAt *int64    `json:"timerEndAt"`
}

type bareEvent struct {
	Type EventType `json:"type"`
}

type roomResetEvent struct {
	Type EventType     `json:"type"`
	Room *RoomSnapshot `json:"room"`
}

type configUpdatedEvent struct {
	Type   EventType `json:"type"`
	Config Config    `json:"config"`
}

type errorEvent struct {
	Type    EventType `json:"type"`
	Code    Code      `json:"code"`
	Message string    `json:"message"`
}

// PongMessage is the serialized heartbeat reply, shared with the transport
// layer so it can answer pings without a round trip through the actor.
var PongMessage = mustEncode(bareEvent{Type: EventPong})

// EncodeError serializes a targeted error event.
func EncodeError(code Code, message string) []byte {
	return mustEncode(errorEvent{Type: EventError, Code: code, Message: message})
}

func mustEncode(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// Event payloads are plain structs; marshal failure is a programming
		// error, not a runtime condition.
		logging.Error(context.Background(), "failed to marshal event", zap.Error(err))
		return []byte(`{"type":"error","code":"ROOM_CLOSED","message":"internal error"}`)
	}
	return data
}
