package game

import (
	"time"
)

const (
	// emojiResolveTimeout caps how long a submission may wait on the
	// emoji provider before the fallback pool takes over.
	emojiResolveTimeout = 10 * time.Second
	// recorderTimeout caps one write to the global item store.
	recorderTimeout = 5 * time.Second
)

// zeroTime marks an inactive deadline.
var zeroTime time.Time

// gameTimer wraps a time.AfterFunc with an epoch counter. Every arm bumps
// the epoch, and the expiry command carries the epoch it was armed with; the
// handler drops any fire whose epoch no longer matches. This makes stop
// races harmless: a timer that fires between Stop and rearm is simply stale.
type gameTimer struct {
	epoch uint64
	timer *time.Timer
}

func (t *gameTimer) stop() {
	t.epoch++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *gameTimer) arm(d time.Duration, fire func(epoch uint64)) {
	t.stop()
	epoch := t.epoch
	t.timer = time.AfterFunc(d, func() { fire(epoch) })
}

// resetTurnDeadline restarts the turn timer for the current submitter, or
// clears it when the timer is disabled.
func (r *Room) resetTurnDeadline() {
	if r.status != StatusInProgress || !r.cfg.TimerEnabled {
		r.turnTimer.stop()
		r.turnDeadline = zeroTime
		return
	}
	d := time.Duration(r.cfg.TimerDurationSeconds) * time.Second
	r.turnDeadline = r.now().Add(d)
	r.turnTimer.arm(d, func(epoch uint64) {
		r.post(command{kind: cmdTurnExpired, epoch: epoch})
	})
}

// ensureTurnTimer keeps invariant between the timer and the game state after
// presence changes: the timer runs exactly when the game is in progress, the
// timer is enabled, and someone could act on an expiry.
func (r *Room) ensureTurnTimer() {
	active := r.status == StatusInProgress && r.cfg.TimerEnabled && r.anyConnected()
	if active && r.turnDeadline.IsZero() {
		r.resetTurnDeadline()
	} else if !active && !r.turnDeadline.IsZero() {
		r.turnTimer.stop()
		r.turnDeadline = zeroTime
	}
}

// openRankingWindow starts the ranking countdown for a freshly submitted
// item. A timeout of zero disables auto-assignment entirely: the window
// stays open until every connected player has ranked the item.
func (r *Room) openRankingWindow(itemID ItemID) {
	r.rankingItemID = itemID
	if r.cfg.RankingTimeoutSeconds <= 0 {
		r.rankingTimer.stop()
		r.rankingDeadline = zeroTime
		return
	}
	d := time.Duration(r.cfg.RankingTimeoutSeconds) * time.Second
	r.rankingDeadline = r.now().Add(d)
	r.rankingTimer.arm(d, func(epoch uint64) {
		r.post(command{kind: cmdRankingExpired, epoch: epoch})
	})
}

// closeRankingWindowIfComplete clears the window once every connected player
// has ranked the open item. Disconnected players are not waited on.
func (r *Room) closeRankingWindowIfComplete() {
	item := r.findItem(r.rankingItemID)
	if item == nil {
		return
	}
	for _, p := range r.players {
		if !p.Connected {
			continue
		}
		if _, ok := p.Rankings[item.ID]; !ok {
			return
		}
	}
	r.rankingTimer.stop()
	r.rankingItemID = ""
	r.rankingDeadline = zeroTime
}
