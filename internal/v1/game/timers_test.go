package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBenchRoom builds a room whose handlers are driven directly, without the
// actor goroutine. Valid because handle is synchronous and the tests are the
// only writer.
func newBenchRoom(t *testing.T, patch *ConfigPatch) (*Room, PlayerID) {
	t.Helper()
	r := NewRoom("ABCD", Options{Emoji: stubEmoji{"⭐"}})
	t.Cleanup(func() {
		r.turnTimer.stop()
		r.rankingTimer.stop()
	})

	rep := r.handle(command{kind: cmdCreate, nickname: "Alice", patch: patch})
	require.NoError(t, rep.err)
	return r, rep.playerID
}

func joinBench(t *testing.T, r *Room, nickname string) *Player {
	t.Helper()
	rep := r.handle(command{kind: cmdJoin, nickname: nickname})
	require.NoError(t, rep.err)
	p, _ := r.findPlayer(rep.playerID)
	require.NotNil(t, p)
	return p
}

func startBench(t *testing.T, r *Room, host PlayerID) {
	t.Helper()
	rep := r.handle(command{kind: cmdStart, playerID: host})
	require.NoError(t, rep.err)
}

// submitBench completes a submission synchronously by feeding the resolution
// back with the current epoch.
func submitBench(t *testing.T, r *Room, by PlayerID, text string) *Item {
	t.Helper()
	rep := r.handle(command{kind: cmdSubmitItem, playerID: by, text: text})
	require.NoError(t, rep.err)
	rep = r.handle(command{kind: cmdEmojiResolved, text: text, emoji: "⭐", epoch: r.epoch})
	require.NoError(t, rep.err)
	return r.items[len(r.items)-1]
}

func TestTurnExpiry_AdvancesTurn(t *testing.T) {
	r, host := newBenchRoom(t, nil)
	bob := joinBench(t, r, "Bob")
	for _, p := range r.players {
		p.Connected = true
	}
	startBench(t, r, host)

	require.Equal(t, 0, r.currentTurnIndex)
	require.False(t, r.turnDeadline.IsZero())

	r.handle(command{kind: cmdTurnExpired, epoch: r.turnTimer.epoch})
	assert.Equal(t, bob.ID, r.players[r.currentTurnIndex].ID)
	assert.False(t, r.turnDeadline.IsZero())
}

func TestTurnExpiry_StaleEpochIgnored(t *testing.T) {
	r, host := newBenchRoom(t, nil)
	joinBench(t, r, "Bob")
	for _, p := range r.players {
		p.Connected = true
	}
	startBench(t, r, host)

	stale := r.turnTimer.epoch - 1
	r.handle(command{kind: cmdTurnExpired, epoch: stale})
	assert.Equal(t, 0, r.currentTurnIndex)
}

func TestTurnTimer_DisabledConfig(t *testing.T) {
	r, host := newBenchRoom(t, &ConfigPatch{TimerEnabled: boolPtr(false)})
	startBench(t, r, host)
	assert.True(t, r.turnDeadline.IsZero())
}

func TestEnsureTurnTimer_StopsWhenNobodyConnected(t *testing.T) {
	r, host := newBenchRoom(t, nil)
	p, _ := r.findPlayer(host)
	p.Connected = true
	startBench(t, r, host)
	require.False(t, r.turnDeadline.IsZero())

	p.Connected = false
	r.ensureTurnTimer()
	assert.True(t, r.turnDeadline.IsZero())

	p.Connected = true
	r.ensureTurnTimer()
	assert.False(t, r.turnDeadline.IsZero())
}

func TestRankingExpiry_AutoAssignsLowestFreeRanks(t *testing.T) {
	r, host := newBenchRoom(t, &ConfigPatch{ItemsPerGame: intPtr(4)})
	bob := joinBench(t, r, "Bob")
	startBench(t, r, host)

	first := submitBench(t, r, host, "Pizza")
	second := submitBench(t, r, host, "Tacos")

	// Bob already used rank 1 on the first item; the open window is for the
	// second.
	bob.Rankings[first.ID] = 1
	require.Equal(t, second.ID, r.rankingItemID)

	r.handle(command{kind: cmdRankingExpired, epoch: r.rankingTimer.epoch})

	hostPlayer, _ := r.findPlayer(host)
	assert.Equal(t, 1, hostPlayer.Rankings[second.ID])
	assert.Equal(t, 2, bob.Rankings[second.ID]) // 1 is taken, lowest free is 2
	assert.Empty(t, r.rankingItemID)
	assert.True(t, r.rankingDeadline.IsZero())
}

func TestRankingExpiry_StaleEpochIgnored(t *testing.T) {
	r, host := newBenchRoom(t, &ConfigPatch{ItemsPerGame: intPtr(4)})
	startBench(t, r, host)
	item := submitBench(t, r, host, "Pizza")

	r.handle(command{kind: cmdRankingExpired, epoch: r.rankingTimer.epoch - 1})

	hostPlayer, _ := r.findPlayer(host)
	_, ranked := hostPlayer.Rankings[item.ID]
	assert.False(t, ranked)
	assert.Equal(t, item.ID, r.rankingItemID)
}

func TestRankingWindow_DisabledTimeoutStaysOpen(t *testing.T) {
	r, host := newBenchRoom(t, &ConfigPatch{
		ItemsPerGame:          intPtr(4),
		RankingTimeoutSeconds: intPtr(0),
	})
	startBench(t, r, host)
	item := submitBench(t, r, host, "Pizza")

	assert.Equal(t, item.ID, r.rankingItemID)
	assert.True(t, r.rankingDeadline.IsZero())
}

func TestRankingWindow_ClosesWhenAllConnectedRanked(t *testing.T) {
	r, host := newBenchRoom(t, &ConfigPatch{ItemsPerGame: intPtr(4)})
	bob := joinBench(t, r, "Bob")
	hostPlayer, _ := r.findPlayer(host)
	hostPlayer.Connected = true
	// Bob stays disconnected and is not waited on.
	_ = bob
	startBench(t, r, host)
	item := submitBench(t, r, host, "Pizza")

	rep := r.handle(command{kind: cmdRankItem, playerID: host, itemID: item.ID, rank: 1})
	require.NoError(t, rep.err)

	assert.Empty(t, r.rankingItemID)
	assert.True(t, r.rankingDeadline.IsZero())
}

func TestEmojiResolved_StaleAfterReset(t *testing.T) {
	r, host := newBenchRoom(t, &ConfigPatch{ItemsPerGame: intPtr(4)})
	startBench(t, r, host)

	rep := r.handle(command{kind: cmdSubmitItem, playerID: host, text: "Pizza"})
	require.NoError(t, rep.err)
	require.NotNil(t, r.pending)

	// A reset bumps the epoch before the provider answers.
	staleEpoch := r.pending.roomEpoch
	r.epoch++
	r.pending = nil

	r.handle(command{kind: cmdEmojiResolved, text: "Pizza", emoji: "🍕", epoch: staleEpoch})
	assert.Empty(t, r.items)
}

func TestEmojiResolved_InvalidEmojiFallsBack(t *testing.T) {
	r, host := newBenchRoom(t, &ConfigPatch{ItemsPerGame: intPtr(4)})
	startBench(t, r, host)

	rep := r.handle(command{kind: cmdSubmitItem, playerID: host, text: "Pizza"})
	require.NoError(t, rep.err)
	r.handle(command{kind: cmdEmojiResolved, text: "Pizza", emoji: "not an emoji", epoch: r.epoch})

	require.Len(t, r.items, 1)
	assert.NotEqual(t, "not an emoji", r.items[0].Emoji)
	assert.NotEmpty(t, r.items[0].Emoji)
}

func TestRequireHost_NoHostAvailable(t *testing.T) {
	r, host := newBenchRoom(t, nil)
	bob := joinBench(t, r, "Bob")

	// Nobody is connected, so host authority cannot be claimed by anyone
	// but the host record itself.
	hostPlayer, _ := r.findPlayer(host)
	require.False(t, hostPlayer.Connected)

	err := r.requireHost(bob)
	assertCode(t, err, CodeNoHostAvailable)

	// Once Bob is connected, the role would migrate to him, so the failure
	// is an ordinary NOT_HOST until recomputeHost runs.
	bob.Connected = true
	err = r.requireHost(bob)
	assertCode(t, err, CodeNotHost)
}
