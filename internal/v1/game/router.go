package game

import (
	"context"
	"encoding/json"

	"github.com/RoseWrightdev/Rank-It/internal/v1/logging"
	"go.uber.org/zap"
)

// HandleMessage routes one raw client frame from a subscriber. Mutating
// messages are enqueued fire-and-forget; the actor answers errors directly
// to the subscriber, and success surfaces as the resulting broadcast.
func (r *Room) HandleMessage(sub Subscriber, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logging.Warn(context.Background(), "Discarding malformed client message",
			zap.String("room_code", string(r.code)),
			zap.String("subscriber_id", string(sub.ID())),
			zap.Error(err))
		return
	}

	switch msg.Type {
	case MessagePing:
		sub.Send(PongMessage)
	case MessageIdentify:
		r.post(command{kind: cmdIdentify, sub: sub, subID: sub.ID(), playerID: PlayerID(msg.PlayerID)})
	case MessageSubmitItem:
		r.post(command{kind: cmdSubmitItem, sub: sub, subID: sub.ID(), text: msg.Text})
	case MessageRankItem:
		r.post(command{kind: cmdRankItem, sub: sub, subID: sub.ID(), itemID: ItemID(msg.ItemID), rank: msg.Ranking})
	case MessageSkipTurn:
		r.post(command{kind: cmdSkipTurn, sub: sub, subID: sub.ID()})
	case MessageUpdateConfig:
		r.post(command{kind: cmdUpdateConfig, sub: sub, subID: sub.ID(), patch: msg.Config})
	case MessageResetRoom:
		r.post(command{kind: cmdReset, sub: sub, subID: sub.ID()})
	default:
		logging.Warn(context.Background(), "Unknown client message type",
			zap.String("room_code", string(r.code)),
			zap.String("message_type", string(msg.Type)))
		sub.Send(EncodeError(CodeRoomClosed, "unknown message type"))
	}
}

// --- Synchronous command API keyed by player id ---
//
// These mirror the WebSocket messages for callers that already know who is
// acting (tests, tooling). The WebSocket path resolves the player through
// the subscriber's identify binding instead.

// SubmitItem submits an item on behalf of a player and waits for the actor
// to accept the reservation. The item itself appears asynchronously once the
// emoji resolves.
func (r *Room) SubmitItem(ctx context.Context, by PlayerID, text string) (*RoomSnapshot, error) {
	rep, err := r.do(ctx, command{kind: cmdSubmitItem, playerID: by, text: text})
	if err != nil {
		return nil, err
	}
	return rep.room, nil
}

// RankItem records a player's rank for an item.
func (r *Room) RankItem(ctx context.Context, by PlayerID, itemID ItemID, rank int) (*RoomSnapshot, error) {
	rep, err := r.do(ctx, command{kind: cmdRankItem, playerID: by, itemID: itemID, rank: rank})
	if err != nil {
		return nil, err
	}
	return rep.room, nil
}

// SkipTurn passes the submit right to the next connected player.
func (r *Room) SkipTurn(ctx context.Context, by PlayerID) (*RoomSnapshot, error) {
	rep, err := r.do(ctx, command{kind: cmdSkipTurn, playerID: by})
	if err != nil {
		return nil, err
	}
	return rep.room, nil
}

// UpdateConfig applies a config patch. Host authority required; lobby only.
func (r *Room) UpdateConfig(ctx context.Context, by PlayerID, patch *ConfigPatch) (*RoomSnapshot, error) {
	rep, err := r.do(ctx, command{kind: cmdUpdateConfig, playerID: by, patch: patch})
	if err != nil {
		return nil, err
	}
	return rep.room, nil
}

// Reset returns an ended room to the lobby, keeping players and config.
func (r *Room) Reset(ctx context.Context, by PlayerID) (*RoomSnapshot, error) {
	rep, err := r.do(ctx, command{kind: cmdReset, playerID: by})
	if err != nil {
		return nil, err
	}
	return rep.room, nil
}

// Identify binds a subscriber to a player.
func (r *Room) Identify(ctx context.Context, sub Subscriber, playerID PlayerID) (*RoomSnapshot, error) {
	rep, err := r.do(ctx, command{kind: cmdIdentify, sub: sub, subID: sub.ID(), playerID: playerID})
	if err != nil {
		return nil, err
	}
	return rep.room, nil
}
