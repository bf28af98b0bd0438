package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNickname(t *testing.T) {
	got, err := Nickname("  Alice  ")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got)

	_, err = Nickname("   ")
	assert.ErrorIs(t, err, ErrNicknameLength)

	_, err = Nickname(strings.Repeat("x", 21))
	assert.ErrorIs(t, err, ErrNicknameLength)

	got, err = Nickname(strings.Repeat("x", 20))
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestNickname_CountsCharactersNotBytes(t *testing.T) {
	// 11 characters but 33 bytes: well within the 20-character bound.
	got, err := Nickname("ラーメン大好き太郎さん")
	require.NoError(t, err)
	assert.Equal(t, 11, len([]rune(got)))

	_, err = Nickname(strings.Repeat("あ", 20))
	assert.NoError(t, err)

	_, err = Nickname(strings.Repeat("あ", 21))
	assert.ErrorIs(t, err, ErrNicknameLength)
}

func TestRoomCode(t *testing.T) {
	assert.NoError(t, RoomCode("ABCD"))
	assert.NoError(t, RoomCode("ZZZZ"))

	for _, bad := range []string{"abcd", "ABC", "ABCDE", "AB1D", "AIBC", "AOBC", ""} {
		assert.ErrorIs(t, RoomCode(bad), ErrRoomCodeFormat, "code %q", bad)
	}
}

func TestItemText(t *testing.T) {
	got, err := ItemText("  Deep dish pizza ")
	require.NoError(t, err)
	assert.Equal(t, "Deep dish pizza", got)

	_, err = ItemText("")
	assert.ErrorIs(t, err, ErrItemTextLength)

	_, err = ItemText(strings.Repeat("x", 101))
	assert.ErrorIs(t, err, ErrItemTextLength)

	// Length is measured in characters, not bytes.
	_, err = ItemText(strings.Repeat("餃", 100))
	assert.NoError(t, err)
	_, err = ItemText(strings.Repeat("餃", 101))
	assert.ErrorIs(t, err, ErrItemTextLength)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "deep dish pizza", NormalizeText("  Deep   DISH\tPizza "))
	assert.Equal(t, NormalizeText("PIZZA"), NormalizeText(" pizza  "))
}

func TestRank(t *testing.T) {
	assert.NoError(t, Rank(1, 10))
	assert.NoError(t, Rank(10, 10))
	assert.ErrorIs(t, Rank(0, 10), ErrRankOutOfRange)
	assert.ErrorIs(t, Rank(11, 10), ErrRankOutOfRange)
}

func TestConfigBounds(t *testing.T) {
	assert.NoError(t, TimerDuration(10))
	assert.NoError(t, TimerDuration(300))
	assert.ErrorIs(t, TimerDuration(9), ErrTimerDuration)
	assert.ErrorIs(t, TimerDuration(301), ErrTimerDuration)

	assert.NoError(t, RankingTimeout(0)) // zero disables the window
	assert.NoError(t, RankingTimeout(300))
	assert.ErrorIs(t, RankingTimeout(-1), ErrRankingTimeout)
	assert.ErrorIs(t, RankingTimeout(301), ErrRankingTimeout)

	assert.NoError(t, ItemsPerGame(2))
	assert.NoError(t, ItemsPerGame(50))
	assert.ErrorIs(t, ItemsPerGame(1), ErrItemsPerGame)
	assert.ErrorIs(t, ItemsPerGame(51), ErrItemsPerGame)
}

func TestEmoji(t *testing.T) {
	valid := []string{
		"🍕",  // plain pictograph
		"⭐",  // misc symbol
		"🇺🇸", // regional indicator pair
		"👍🏽", // skin tone modifier
		"👨‍👩‍👧", // ZWJ family sequence
		"☘️",  // symbol + variation selector
	}
	for _, s := range valid {
		assert.NoError(t, Emoji(s), "emoji %q", s)
	}

	invalid := []string{
		"",
		"a",
		"ab",
		"🍕🍕",          // two clusters
		"pizza",
		"1",
		strings.Repeat("🍕", 20), // over the byte cap
	}
	for _, s := range invalid {
		assert.ErrorIs(t, Emoji(s), ErrNotAnEmoji, "input %q", s)
	}
}
