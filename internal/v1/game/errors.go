package game

import "fmt"

// Code is a stable wire-contract error code. Codes are returned to the
// command's originator only; they are never broadcast.
type Code string

const (
	// Input-shape errors, rejected before touching room state.
	CodeInvalidNickname Code = "INVALID_NICKNAME"
	CodeInvalidRoomCode Code = "INVALID_ROOM_CODE"
	CodeInvalidItemText Code = "INVALID_ITEM_TEXT"
	CodeInvalidEmoji    Code = "INVALID_EMOJI"
	CodeInvalidRanking  Code = "INVALID_RANKING"
	CodeInvalidConfig   Code = "INVALID_CONFIG"

	// State errors, a precondition failed.
	CodeRoomNotFound       Code = "ROOM_NOT_FOUND"
	CodeRoomEnded          Code = "ROOM_ENDED"
	CodeGameAlreadyStarted Code = "GAME_ALREADY_STARTED"
	CodeNotYourTurn        Code = "NOT_YOUR_TURN"
	CodeNotHost            Code = "NOT_HOST"
	CodeNotEnoughPlayers   Code = "NOT_ENOUGH_PLAYERS"
	CodeNicknameTaken      Code = "NICKNAME_TAKEN"
	CodeDuplicateItem      Code = "DUPLICATE_ITEM"
	CodeRankingSlotTaken   Code = "RANKING_SLOT_TAKEN"
	CodeItemNotFound       Code = "ITEM_NOT_FOUND"
	CodePlayerNotFound     Code = "PLAYER_NOT_FOUND"
	CodeNoHostAvailable    Code = "NO_HOST_AVAILABLE"

	// Resource errors.
	CodeCodeExhausted Code = "CODE_EXHAUSTED"
	CodeRoomClosed    Code = "ROOM_CLOSED"
)

// Error carries a wire code plus a human-readable message.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a coded error.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the wire code from an error, defaulting to ROOM_CLOSED for
// unexpected failures so clients always receive a taxonomy value.
func CodeOf(err error) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return CodeRoomClosed
}
