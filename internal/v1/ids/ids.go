// Package ids generates room codes and the opaque identifiers handed to
// clients. Room codes are short and human-typable; player, item and
// subscriber ids only need to be unique for the process lifetime.
package ids

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RoomCodeAlphabet is the 24-letter set used for room codes: A-Z without the
// visually confusable I and O.
const RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ"

// RoomCodeLength is the fixed length of a room code.
const RoomCodeLength = 4

// NewRoomCode returns a uniformly random 4-letter room code.
func NewRoomCode() string {
	buf := make([]byte, 0, RoomCodeLength)
	raw := make([]byte, 8)
	for len(buf) < RoomCodeLength {
		// rand.Read never returns an error on supported platforms; it panics
		// internally if the kernel entropy source is unavailable.
		_, _ = rand.Read(raw)
		for _, b := range raw {
			letter, ok := roomCodeLetter(b)
			if !ok {
				continue
			}
			buf = append(buf, letter)
			if len(buf) == RoomCodeLength {
				break
			}
		}
	}
	return string(buf)
}

// roomCodeLetter maps one random byte onto the alphabet. Bytes in the tail
// that cannot be distributed evenly across the 24 letters are rejected, so
// every letter is equally likely.
func roomCodeLetter(b byte) (byte, bool) {
	const limit = 256 - 256%len(RoomCodeAlphabet)
	if int(b) >= limit {
		return 0, false
	}
	return RoomCodeAlphabet[int(b)%len(RoomCodeAlphabet)], true
}

// NewPlayerID returns an opaque player identifier. The millisecond prefix
// keeps ids roughly sortable by creation time; the uuid suffix makes
// collisions within a process lifetime implausible.
func NewPlayerID() string {
	return newID("p")
}

// NewItemID returns an opaque item identifier.
func NewItemID() string {
	return newID("i")
}

// NewSubscriberID returns an identifier for a single WebSocket channel.
func NewSubscriberID() string {
	return newID("s")
}

func newID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), uuid.NewString()[:8])
}
