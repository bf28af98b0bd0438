package game

import (
	"context"
)

// cmdKind discriminates the command union consumed by the room actor.
type cmdKind int

const (
	cmdCreate cmdKind = iota
	cmdJoin
	cmdStart
	cmdSubmitItem
	cmdEmojiResolved
	cmdRankItem
	cmdSkipTurn
	cmdUpdateConfig
	cmdReset
	cmdSubscribe
	cmdUnsubscribe
	cmdIdentify
	cmdTurnExpired
	cmdRankingExpired
	cmdSnapshot
)

func (k cmdKind) String() string {
	switch k {
	case cmdCreate:
		return "create"
	case cmdJoin:
		return "join"
	case cmdStart:
		return "start"
	case cmdSubmitItem:
		return "submit_item"
	case cmdEmojiResolved:
		return "emoji_resolved"
	case cmdRankItem:
		return "rank_item"
	case cmdSkipTurn:
		return "skip_turn"
	case cmdUpdateConfig:
		return "update_config"
	case cmdReset:
		return "reset_room"
	case cmdSubscribe:
		return "subscribe"
	case cmdUnsubscribe:
		return "unsubscribe"
	case cmdIdentify:
		return "identify"
	case cmdTurnExpired:
		return "turn_timer_expired"
	case cmdRankingExpired:
		return "ranking_timer_expired"
	case cmdSnapshot:
		return "snapshot"
	}
	return "unknown"
}

// command is a single unit of work for the actor. Only the fields relevant
// to the kind are populated. reply, when non-nil, receives exactly one value.
type command struct {
	kind cmdKind

	nickname string
	patch    *ConfigPatch
	playerID PlayerID
	itemID   ItemID
	rank     int
	text     string
	emoji    string
	epoch    uint64

	sub   Subscriber
	subID SubscriberID

	reply chan cmdReply
}

// cmdReply is the actor's answer to a command that expects one.
type cmdReply struct {
	playerID PlayerID
	room     *RoomSnapshot
	err      error
}

// do enqueues a command and waits for its reply. It never blocks past room
// shutdown or context cancellation; commands accepted before shutdown run to
// completion even if the caller has stopped waiting (the reply channel is
// buffered).
func (r *Room) do(ctx context.Context, cmd command) (cmdReply, error) {
	cmd.reply = make(chan cmdReply, 1)

	select {
	case r.commands <- cmd:
	case <-r.done:
		return cmdReply{}, NewError(CodeRoomClosed, "room %s is closed", r.code)
	case <-ctx.Done():
		return cmdReply{}, NewError(CodeRoomClosed, "request cancelled")
	}

	select {
	case rep := <-cmd.reply:
		if rep.err != nil {
			return cmdReply{}, rep.err
		}
		return rep, nil
	case <-r.done:
		return cmdReply{}, NewError(CodeRoomClosed, "room %s is closed", r.code)
	case <-ctx.Done():
		return cmdReply{}, NewError(CodeRoomClosed, "request cancelled")
	}
}

// post enqueues a command without waiting for a reply. Used by timer
// callbacks and the fire-and-forget paths; drops silently once the room has
// shut down.
func (r *Room) post(cmd command) {
	select {
	case r.commands <- cmd:
	case <-r.done:
	}
}
