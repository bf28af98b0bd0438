// Package validate holds the shape and bounds checks applied to every piece
// of client input before it reaches a room. Functions return the normalized
// value where normalization is part of the rule (trimming, case folding).
package validate

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

const (
	MaxNicknameLength = 20
	MaxItemTextLength = 100
	MaxEmojiBytes     = 32

	MinTimerDuration  = 10
	MaxTimerDuration  = 300
	MinRankingTimeout = 0
	MaxRankingTimeout = 300
	MinItemsPerGame   = 2
	MaxItemsPerGame   = 50
)

var (
	ErrNicknameLength   = errors.New("nickname must be 1-20 characters after trimming")
	ErrRoomCodeFormat   = errors.New("room code must be 4 uppercase letters excluding I and O")
	ErrItemTextLength   = errors.New("item text must be 1-100 characters after trimming")
	ErrRankOutOfRange   = errors.New("rank out of range")
	ErrNotAnEmoji       = errors.New("input is not a single emoji")
	ErrTimerDuration    = errors.New("timer duration must be between 10 and 300 seconds")
	ErrRankingTimeout   = errors.New("ranking timeout must be between 0 and 300 seconds")
	ErrItemsPerGame     = errors.New("items per game must be between 2 and 50")
)

// roomCodeRe is the room code grammar: uppercase A-Z minus I and O.
var roomCodeRe = regexp.MustCompile(`^[A-HJ-NP-Z]{4}$`)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Nickname trims the input and checks its length in characters, so multibyte
// names are not penalized. Returns the trimmed value.
func Nickname(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if n := utf8.RuneCountInString(trimmed); n < 1 || n > MaxNicknameLength {
		return "", ErrNicknameLength
	}
	return trimmed, nil
}

// RoomCode checks the 4-letter room code grammar.
func RoomCode(s string) error {
	if !roomCodeRe.MatchString(s) {
		return ErrRoomCodeFormat
	}
	return nil
}

// ItemText trims the input and checks its length in characters. Returns the
// trimmed value.
func ItemText(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if n := utf8.RuneCountInString(trimmed); n < 1 || n > MaxItemTextLength {
		return "", ErrItemTextLength
	}
	return trimmed, nil
}

// NormalizeText case-folds and collapses whitespace. Uniqueness of nicknames
// and item texts within a room is defined over this normal form.
func NormalizeText(s string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// Rank checks that a ranking value lies in [1, itemsPerGame].
func Rank(rank, itemsPerGame int) error {
	if rank < 1 || rank > itemsPerGame {
		return ErrRankOutOfRange
	}
	return nil
}

// TimerDuration checks the submission-turn budget bounds.
func TimerDuration(seconds int) error {
	if seconds < MinTimerDuration || seconds > MaxTimerDuration {
		return ErrTimerDuration
	}
	return nil
}

// RankingTimeout checks the per-item ranking budget bounds. Zero disables
// auto-assignment and is valid.
func RankingTimeout(seconds int) error {
	if seconds < MinRankingTimeout || seconds > MaxRankingTimeout {
		return ErrRankingTimeout
	}
	return nil
}

// ItemsPerGame checks the game-length bounds.
func ItemsPerGame(n int) error {
	if n < MinItemsPerGame || n > MaxItemsPerGame {
		return ErrItemsPerGame
	}
	return nil
}

// Emoji accepts an input exactly iff it is a single grapheme cluster whose
// every codepoint belongs to a symbol, pictograph, regional-indicator or
// variation-selector class. Anything containing ASCII is rejected, as are
// pathological sequences over MaxEmojiBytes bytes.
func Emoji(s string) error {
	if s == "" || len(s) > MaxEmojiBytes {
		return ErrNotAnEmoji
	}
	if uniseg.GraphemeClusterCount(s) != 1 {
		return ErrNotAnEmoji
	}
	for _, r := range s {
		if !isEmojiRune(r) {
			return ErrNotAnEmoji
		}
	}
	return nil
}

// isEmojiRune reports whether a codepoint may appear inside an emoji
// grapheme cluster. ASCII is excluded wholesale so plain alphanumerics can
// never pass as emoji.
func isEmojiRune(r rune) bool {
	if r < 0x80 {
		return false
	}
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF: // pictographs, emoticons, transport, supplemental
		return true
	case r >= 0x1F1E6 && r <= 0x1F1FF: // regional indicators
		return true
	case r >= 0x2600 && r <= 0x27BF: // miscellaneous symbols, dingbats
		return true
	case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
		return true
	case r == 0x200D: // zero-width joiner
		return true
	case r == 0x20E3: // combining enclosing keycap
		return true
	case r >= 0x2190 && r <= 0x21FF: // arrows
		return true
	case r >= 0x2B00 && r <= 0x2BFF: // misc symbols and arrows (stars, etc.)
		return true
	}
	return unicode.Is(unicode.So, r)
}
