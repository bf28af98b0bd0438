package game

import (
	"context"

	"github.com/RoseWrightdev/Rank-It/internal/v1/emoji"
	"github.com/RoseWrightdev/Rank-It/internal/v1/ids"
	"github.com/RoseWrightdev/Rank-It/internal/v1/logging"
	"github.com/RoseWrightdev/Rank-It/internal/v1/metrics"
	"github.com/RoseWrightdev/Rank-It/internal/v1/validate"
	"go.uber.org/zap"
	"k8s.io/utils/set"
)

// --- Command handlers. All run on the actor goroutine. ---

func (r *Room) handleCreate(cmd command) cmdReply {
	if len(r.players) > 0 {
		return cmdReply{err: NewError(CodeGameAlreadyStarted, "room %s already exists", r.code)}
	}

	nickname, err := validate.Nickname(cmd.nickname)
	if err != nil {
		return cmdReply{err: NewError(CodeInvalidNickname, "%s", err)}
	}
	cfg, err := r.applyPatch(r.cfg, cmd.patch)
	if err != nil {
		return cmdReply{err: err}
	}
	r.cfg = cfg

	host := &Player{
		ID:       PlayerID(ids.NewPlayerID()),
		Nickname: nickname,
		Rankings: make(map[ItemID]int),
		JoinedAt: r.now(),
	}
	r.players = append(r.players, host)
	r.hostID = host.ID
	r.touch()

	metrics.RoomPlayers.WithLabelValues(string(r.code)).Set(float64(len(r.players)))
	logging.Info(context.Background(), "Room created",
		zap.String("room_code", string(r.code)), zap.String("host_id", string(host.ID)))

	return cmdReply{playerID: host.ID, room: r.snapshot()}
}

func (r *Room) handleJoin(cmd command) cmdReply {
	if r.status == StatusEnded {
		return cmdReply{err: NewError(CodeRoomEnded, "room %s has ended", r.code)}
	}

	nickname, err := validate.Nickname(cmd.nickname)
	if err != nil {
		return cmdReply{err: NewError(CodeInvalidNickname, "%s", err)}
	}
	normalized := validate.NormalizeText(nickname)
	for _, p := range r.players {
		if validate.NormalizeText(p.Nickname) == normalized {
			return cmdReply{err: NewError(CodeNicknameTaken, "nickname %q is taken", nickname)}
		}
	}

	player := &Player{
		ID:       PlayerID(ids.NewPlayerID()),
		Nickname: nickname,
		Rankings: make(map[ItemID]int),
		JoinedAt: r.now(),
		// A late joiner owes a rank for every item that already exists.
		CatchingUp: r.status == StatusInProgress && len(r.items) > 0,
	}
	r.players = append(r.players, player)
	r.touch()

	metrics.RoomPlayers.WithLabelValues(string(r.code)).Set(float64(len(r.players)))

	r.broadcast(mustEncode(playerJoinedEvent{Type: EventPlayerJoined, Player: r.playerSnapshot(player)}))
	r.broadcastRoomUpdated()

	return cmdReply{playerID: player.ID, room: r.snapshot()}
}

func (r *Room) handleStart(cmd command) cmdReply {
	player, err := r.commandPlayer(cmd)
	if err != nil {
		return cmdReply{err: err}
	}
	if err := r.requireHost(player); err != nil {
		return cmdReply{err: err}
	}
	switch r.status {
	case StatusInProgress:
		return cmdReply{err: NewError(CodeGameAlreadyStarted, "game already started")}
	case StatusEnded:
		return cmdReply{err: NewError(CodeRoomEnded, "room %s has ended", r.code)}
	}
	if len(r.players) < 1 {
		return cmdReply{err: NewError(CodeNotEnoughPlayers, "at least one player required")}
	}

	r.status = StatusInProgress
	r.currentTurnIndex = 0
	// The timer only runs while someone is connected to act on an expiry.
	// After an HTTP-only start the first identify arms it.
	r.ensureTurnTimer()
	r.touch()

	logging.Info(context.Background(), "Game started",
		zap.String("room_code", string(r.code)), zap.Int("players", len(r.players)))

	r.broadcast(mustEncode(bareEvent{Type: EventGameStarted}))
	r.broadcastRoomUpdated()

	return cmdReply{room: r.snapshot()}
}

func (r *Room) handleSubmitItem(cmd command) cmdReply {
	player, err := r.commandPlayer(cmd)
	if err != nil {
		return cmdReply{err: err}
	}
	switch r.status {
	case StatusLobby:
		return cmdReply{err: NewError(CodeNotYourTurn, "game has not started")}
	case StatusEnded:
		return cmdReply{err: NewError(CodeRoomEnded, "room %s has ended", r.code)}
	}

	text, err := validate.ItemText(cmd.text)
	if err != nil {
		return cmdReply{err: NewError(CodeInvalidItemText, "%s", err)}
	}
	if r.pending != nil {
		// A submission is already awaiting its emoji; the turn has not
		// advanced yet, so nobody else holds the submit right either.
		return cmdReply{err: NewError(CodeNotYourTurn, "a submission is already in flight")}
	}
	normalized := validate.NormalizeText(text)
	for _, item := range r.items {
		if validate.NormalizeText(item.Text) == normalized {
			return cmdReply{err: NewError(CodeDuplicateItem, "item %q was already submitted", text)}
		}
	}
	if sid := r.submitterID(); sid == "" || player.ID != sid {
		return cmdReply{err: NewError(CodeNotYourTurn, "it is not your turn to submit")}
	}

	// Split pattern: reserve the text, release the actor, and complete in a
	// follow-up emoji_resolved command. The room epoch in the reservation
	// lets a concurrent reset invalidate the in-flight submission.
	r.pending = &pendingSubmission{text: text, by: player.ID, roomEpoch: r.epoch}
	epoch := r.epoch
	go func() {
		emoji := r.resolveEmoji(text)
		r.post(command{kind: cmdEmojiResolved, text: text, emoji: emoji, epoch: epoch})
	}()

	return cmdReply{room: r.snapshot()}
}

// resolveEmoji runs outside the actor goroutine.
func (r *Room) resolveEmoji(text string) string {
	if r.emoji == nil {
		return emoji.Fallback(text)
	}
	ctx, cancel := context.WithTimeout(context.Background(), emojiResolveTimeout)
	defer cancel()
	return r.emoji.EmojiFor(ctx, text)
}

func (r *Room) handleEmojiResolved(cmd command) cmdReply {
	if r.pending == nil || cmd.epoch != r.epoch || r.pending.text != cmd.text {
		// The room was reset (or the reservation replaced) while the
		// provider was running; drop the stale resolution.
		return cmdReply{}
	}

	resolved := cmd.emoji
	if validate.Emoji(resolved) != nil {
		resolved = emoji.Fallback(cmd.text)
	}

	item := &Item{
		ID:          ItemID(ids.NewItemID()),
		Text:        r.pending.text,
		Emoji:       resolved,
		SubmittedBy: r.pending.by,
		SubmittedAt: r.now(),
	}
	r.items = append(r.items, item)
	r.pending = nil
	r.touch()

	r.broadcast(mustEncode(itemSubmittedEvent{Type: EventItemSubmitted, Item: r.itemSnapshot(item)}))

	if len(r.items) >= r.cfg.ItemsPerGame {
		r.endGame()
	} else {
		r.advanceTurn()
		r.broadcastTurnChanged()
	}

	// A fresh item opens a ranking window for everyone present.
	r.openRankingWindow(item.ID)

	r.broadcastRoomUpdated()
	r.recordItem(item)

	return cmdReply{room: r.snapshot()}
}

func (r *Room) handleRankItem(cmd command) cmdReply {
	player, err := r.commandPlayer(cmd)
	if err != nil {
		return cmdReply{err: err}
	}
	item := r.findItem(cmd.itemID)
	if item == nil {
		return cmdReply{err: NewError(CodeItemNotFound, "item %s not found", cmd.itemID)}
	}
	if err := validate.Rank(cmd.rank, r.cfg.ItemsPerGame); err != nil {
		return cmdReply{err: NewError(CodeInvalidRanking, "rank must be between 1 and %d", r.cfg.ItemsPerGame)}
	}
	if _, ranked := player.Rankings[item.ID]; ranked {
		return cmdReply{err: NewError(CodeRankingSlotTaken, "you already ranked this item")}
	}
	used := set.New[int]()
	for _, rank := range player.Rankings {
		used.Insert(rank)
	}
	if used.Has(cmd.rank) {
		return cmdReply{err: NewError(CodeRankingSlotTaken, "you already used rank %d", cmd.rank)}
	}

	player.Rankings[item.ID] = cmd.rank
	r.refreshCatchingUp(player)
	r.touch()

	if item.ID == r.rankingItemID {
		r.closeRankingWindowIfComplete()
	}

	r.broadcastRoomUpdated()
	return cmdReply{room: r.snapshot()}
}

func (r *Room) handleSkipTurn(cmd command) cmdReply {
	player, err := r.commandPlayer(cmd)
	if err != nil {
		return cmdReply{err: err}
	}
	switch r.status {
	case StatusLobby:
		return cmdReply{err: NewError(CodeNotYourTurn, "game has not started")}
	case StatusEnded:
		return cmdReply{err: NewError(CodeRoomEnded, "room %s has ended", r.code)}
	}
	// Skips are restricted to the current submitter and the host.
	if sid := r.submitterID(); player.ID != sid && player.ID != r.hostID {
		return cmdReply{err: NewError(CodeNotYourTurn, "only the current submitter or host may skip")}
	}

	r.advanceTurn()
	r.touch()
	r.broadcastTurnChanged()
	r.broadcastRoomUpdated()

	return cmdReply{room: r.snapshot()}
}

func (r *Room) handleTurnExpired(cmd command) cmdReply {
	if cmd.epoch != r.turnTimer.epoch || r.status != StatusInProgress {
		// Stale epoch: the timer was rearmed or the game moved on.
		return cmdReply{}
	}

	logging.Info(context.Background(), "Turn timer expired",
		zap.String("room_code", string(r.code)), zap.Int("turn_index", r.currentTurnIndex))

	r.advanceTurn()
	r.touch()
	r.broadcastTurnChanged()
	r.broadcastRoomUpdated()
	return cmdReply{}
}

func (r *Room) handleRankingExpired(cmd command) cmdReply {
	if cmd.epoch != r.rankingTimer.epoch || r.rankingItemID == "" {
		return cmdReply{}
	}

	item := r.findItem(r.rankingItemID)
	if item != nil {
		// Deterministic auto-assignment: players in insertion order, each
		// receiving their own lowest still-free rank.
		for _, p := range r.players {
			if _, ranked := p.Rankings[item.ID]; ranked {
				continue
			}
			if free := r.lowestFreeRank(p); free > 0 {
				p.Rankings[item.ID] = free
				r.refreshCatchingUp(p)
			}
		}
	}

	r.rankingItemID = ""
	r.rankingDeadline = zeroTime
	r.touch()
	r.broadcastRoomUpdated()
	return cmdReply{}
}

func (r *Room) handleUpdateConfig(cmd command) cmdReply {
	player, err := r.commandPlayer(cmd)
	if err != nil {
		return cmdReply{err: err}
	}
	if err := r.requireHost(player); err != nil {
		return cmdReply{err: err}
	}
	if r.status != StatusLobby {
		return cmdReply{err: NewError(CodeGameAlreadyStarted, "config can only change in the lobby")}
	}

	cfg, err := r.applyPatch(r.cfg, cmd.patch)
	if err != nil {
		return cmdReply{err: err}
	}
	r.cfg = cfg
	r.touch()

	r.broadcast(mustEncode(configUpdatedEvent{Type: EventConfigUpdated, Config: r.cfg}))
	r.broadcastRoomUpdated()
	return cmdReply{room: r.snapshot()}
}

func (r *Room) handleReset(cmd command) cmdReply {
	player, err := r.commandPlayer(cmd)
	if err != nil {
		return cmdReply{err: err}
	}
	if err := r.requireHost(player); err != nil {
		return cmdReply{err: err}
	}
	if r.status != StatusEnded {
		return cmdReply{err: NewError(CodeGameAlreadyStarted, "room can only be reset after the game ends")}
	}

	// Bump the room epoch so in-flight emoji resolutions and timer fires
	// from the previous game are dropped.
	r.epoch++
	r.pending = nil
	r.turnTimer.stop()
	r.rankingTimer.stop()

	r.status = StatusLobby
	r.items = nil
	r.currentTurnIndex = 0
	r.turnDeadline = zeroTime
	r.rankingDeadline = zeroTime
	r.rankingItemID = ""
	for _, p := range r.players {
		p.Rankings = make(map[ItemID]int)
		p.CatchingUp = false
	}
	r.touch()

	logging.Info(context.Background(), "Room reset", zap.String("room_code", string(r.code)))

	snap := r.snapshot()
	r.broadcast(mustEncode(roomResetEvent{Type: EventRoomReset, Room: snap}))
	r.broadcastRoomUpdated()
	return cmdReply{room: snap}
}

func (r *Room) handleSubscribe(cmd command) cmdReply {
	r.subscribers[cmd.sub.ID()] = &subscription{sub: cmd.sub}
	r.subCount.Store(int32(len(r.subscribers)))
	return cmdReply{}
}

func (r *Room) handleUnsubscribe(cmd command) cmdReply {
	s, ok := r.subscribers[cmd.subID]
	if !ok {
		return cmdReply{}
	}
	delete(r.subscribers, cmd.subID)
	r.subCount.Store(int32(len(r.subscribers)))

	if s.playerID != "" {
		r.handlePlayerDetached(s.playerID)
	}
	if len(r.subscribers) == 0 && r.onIdle != nil {
		go r.onIdle(r.code)
	}
	return cmdReply{}
}

func (r *Room) handleIdentify(cmd command) cmdReply {
	s, ok := r.subscribers[cmd.subID]
	if !ok {
		return cmdReply{err: NewError(CodeRoomClosed, "subscriber is gone")}
	}
	player, _ := r.findPlayer(cmd.playerID)
	if player == nil {
		return cmdReply{err: NewError(CodePlayerNotFound, "player %s not found", cmd.playerID)}
	}

	if s.playerID != "" && s.playerID != player.ID {
		// A subscriber may rebind (e.g. the client re-joined under a new
		// identity after a reset elsewhere); detach the old binding first.
		old := s.playerID
		s.playerID = ""
		r.handlePlayerDetached(old)
	}

	wasConnected := player.Connected
	s.playerID = player.ID
	player.Connected = true
	r.recomputeHost()
	r.ensureTurnTimer()
	r.touch()

	if !wasConnected {
		r.broadcast(mustEncode(playerRefEvent{Type: EventPlayerReconnected, PlayerID: player.ID}))
	}
	// Full state to everyone, newcomer included. Re-identifying is
	// idempotent: the only effect is another room_updated.
	r.broadcastRoomUpdated()

	return cmdReply{playerID: player.ID, room: r.snapshot()}
}

// handlePlayerDetached runs after a subscriber bound to playerID went away.
// Presence only drops when no other subscriber holds the same binding
// (multiple tabs keep the player connected).
func (r *Room) handlePlayerDetached(playerID PlayerID) {
	for _, other := range r.subscribers {
		if other.playerID == playerID {
			return
		}
	}
	player, _ := r.findPlayer(playerID)
	if player == nil || !player.Connected {
		return
	}
	player.Connected = false
	r.recomputeHost()
	r.ensureTurnTimer()
	r.touch()

	r.broadcast(mustEncode(playerRefEvent{Type: EventPlayerLeft, PlayerID: playerID}))
	r.broadcastRoomUpdated()
}

// --- Actor-side helpers ---

// commandPlayer resolves the player issuing a command: HTTP commands carry
// the player id directly, WebSocket commands carry the subscriber whose
// identify binding supplies it. Anonymous subscribers cannot mutate state.
func (r *Room) commandPlayer(cmd command) (*Player, error) {
	pid := cmd.playerID
	if pid == "" && cmd.subID != "" {
		s, ok := r.subscribers[cmd.subID]
		if !ok || s.playerID == "" {
			return nil, NewError(CodePlayerNotFound, "identify before sending commands")
		}
		pid = s.playerID
	}
	player, _ := r.findPlayer(pid)
	if player == nil {
		return nil, NewError(CodePlayerNotFound, "player %s not found", pid)
	}
	return player, nil
}

// requireHost enforces host authority. When the host is disconnected and no
// connected player could claim the role, the failure is NO_HOST_AVAILABLE
// rather than NOT_HOST.
func (r *Room) requireHost(player *Player) error {
	if player.ID == r.hostID {
		return nil
	}
	host, _ := r.findPlayer(r.hostID)
	if host != nil && !host.Connected && !r.anyConnected() {
		return NewError(CodeNoHostAvailable, "no connected player holds host authority")
	}
	return NewError(CodeNotHost, "host authority required")
}

func (r *Room) findPlayer(id PlayerID) (*Player, int) {
	for i, p := range r.players {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

func (r *Room) findItem(id ItemID) *Item {
	for _, item := range r.items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

func (r *Room) anyConnected() bool {
	for _, p := range r.players {
		if p.Connected {
			return true
		}
	}
	return false
}

// submitterID returns who currently holds the submit right, or "" outside of
// an in-progress game.
func (r *Room) submitterID() PlayerID {
	if r.status != StatusInProgress || len(r.players) == 0 {
		return ""
	}
	if r.cfg.SubmissionMode == ModeHostOnly {
		return r.hostID
	}
	return r.players[r.currentTurnIndex].ID
}

// advanceTurn moves the submit right to the next connected player. In
// host_only mode the index never advances. When nobody is connected the
// index stays on the last active seat so the next reconnect resumes there.
func (r *Room) advanceTurn() {
	if !r.anyConnected() {
		// Nobody could act on an expiry; the next identify rearms.
		r.turnTimer.stop()
		r.turnDeadline = zeroTime
		return
	}
	if r.cfg.SubmissionMode == ModeHostOnly {
		r.resetTurnDeadline()
		return
	}
	n := len(r.players)
	if n == 0 {
		return
	}
	for i := 1; i <= n; i++ {
		cand := (r.currentTurnIndex + i) % n
		if r.players[cand].Connected {
			r.currentTurnIndex = cand
			break
		}
	}
	r.resetTurnDeadline()
}

// recomputeHost migrates host authority to the earliest-joined connected
// player whenever the current host is disconnected. If nobody is connected
// the departed host keeps the role so a later reconnect restores them.
func (r *Room) recomputeHost() {
	host, _ := r.findPlayer(r.hostID)
	if host != nil && host.Connected {
		return
	}
	for _, p := range r.players {
		if p.Connected {
			if p.ID != r.hostID {
				logging.Info(context.Background(), "Host migrated",
					zap.String("room_code", string(r.code)),
					zap.String("from", string(r.hostID)),
					zap.String("to", string(p.ID)))
				r.hostID = p.ID
			}
			return
		}
	}
}

func (r *Room) endGame() {
	r.status = StatusEnded
	r.turnTimer.stop()
	r.turnDeadline = zeroTime
	metrics.GamesCompleted.Inc()
	logging.Info(context.Background(), "Game ended",
		zap.String("room_code", string(r.code)), zap.Int("items", len(r.items)))
	r.broadcast(mustEncode(bareEvent{Type: EventGameEnded}))
}

// refreshCatchingUp clears the flag once a catching-up player has ranked
// every item currently in the room. The flag never comes back for items
// submitted afterwards.
func (r *Room) refreshCatchingUp(p *Player) {
	if !p.CatchingUp {
		return
	}
	for _, item := range r.items {
		if _, ok := p.Rankings[item.ID]; !ok {
			return
		}
	}
	p.CatchingUp = false
}

// lowestFreeRank returns the smallest rank in [1, itemsPerGame] the player
// has not used yet, or 0 when none is free.
func (r *Room) lowestFreeRank(p *Player) int {
	used := set.New[int]()
	for _, rank := range p.Rankings {
		used.Insert(rank)
	}
	for rank := 1; rank <= r.cfg.ItemsPerGame; rank++ {
		if !used.Has(rank) {
			return rank
		}
	}
	return 0
}

// applyPatch validates and merges a config patch over base.
func (r *Room) applyPatch(base Config, patch *ConfigPatch) (Config, error) {
	cfg := base
	if patch == nil {
		return cfg, nil
	}
	if patch.SubmissionMode != nil {
		switch *patch.SubmissionMode {
		case ModeRoundRobin, ModeHostOnly:
			cfg.SubmissionMode = *patch.SubmissionMode
		default:
			return base, NewError(CodeInvalidConfig, "unknown submission mode %q", *patch.SubmissionMode)
		}
	}
	if patch.TimerEnabled != nil {
		cfg.TimerEnabled = *patch.TimerEnabled
	}
	if patch.TimerDurationSeconds != nil {
		if err := validate.TimerDuration(*patch.TimerDurationSeconds); err != nil {
			return base, NewError(CodeInvalidConfig, "%s", err)
		}
		cfg.TimerDurationSeconds = *patch.TimerDurationSeconds
	}
	if patch.RankingTimeoutSeconds != nil {
		if err := validate.RankingTimeout(*patch.RankingTimeoutSeconds); err != nil {
			return base, NewError(CodeInvalidConfig, "%s", err)
		}
		cfg.RankingTimeoutSeconds = *patch.RankingTimeoutSeconds
	}
	if patch.ItemsPerGame != nil {
		if err := validate.ItemsPerGame(*patch.ItemsPerGame); err != nil {
			return base, NewError(CodeInvalidConfig, "%s", err)
		}
		cfg.ItemsPerGame = *patch.ItemsPerGame
	}
	return cfg, nil
}

func (r *Room) touch() {
	r.lastActivity.Store(r.now().UnixMilli())
}

// --- Broadcast helpers ---

// broadcast fans raw bytes out to every subscriber. A subscriber whose queue
// is full is closed and detached rather than allowed to slow the actor.
func (r *Room) broadcast(data []byte) {
	var slow []SubscriberID
	for id, s := range r.subscribers {
		if !s.sub.Send(data) {
			slow = append(slow, id)
		}
	}
	for _, id := range slow {
		logging.Warn(context.Background(), "Dropping slow subscriber",
			zap.String("room_code", string(r.code)), zap.String("subscriber_id", string(id)))
		if s, ok := r.subscribers[id]; ok {
			s.sub.Close(CodeRoomClosed)
			delete(r.subscribers, id)
			r.subCount.Store(int32(len(r.subscribers)))
			if s.playerID != "" {
				r.handlePlayerDetached(s.playerID)
			}
		}
	}
}

func (r *Room) broadcastRoomUpdated() {
	r.broadcast(mustEncode(roomUpdatedEvent{Type: EventRoomUpdated, Room: r.snapshot()}))
}

func (r *Room) broadcastTurnChanged() {
	if r.status != StatusInProgress {
		return
	}
	r.broadcast(mustEncode(turnChangedEvent{
		Type:       EventTurnChanged,
		PlayerID:   r.submitterID(),
		TimerEndAt: millisOrNil(r.turnDeadline),
	}))
}

// recordItem persists a completed submission to the global item store on a
// bounded worker, never from the actor goroutine's critical path.
func (r *Room) recordItem(item *Item) {
	if r.recorder == nil {
		return
	}
	select {
	case r.recordQueue <- struct{}{}:
		text, emoji := item.Text, item.Emoji
		go func() {
			defer func() { <-r.recordQueue }()
			ctx, cancel := context.WithTimeout(context.Background(), recorderTimeout)
			defer cancel()
			if err := r.recorder.Add(ctx, text, emoji); err != nil {
				logging.Warn(ctx, "Failed to record item to global store", zap.Error(err))
			}
		}()
	default:
		logging.Warn(context.Background(), "Dropping item record - queue full",
			zap.String("room_code", string(r.code)))
	}
}

// --- Snapshots ---

func (r *Room) playerSnapshot(p *Player) PlayerSnapshot {
	rankings := make(map[ItemID]int, len(p.Rankings))
	for k, v := range p.Rankings {
		rankings[k] = v
	}
	return PlayerSnapshot{
		ID:         p.ID,
		Nickname:   p.Nickname,
		Connected:  p.Connected,
		Rankings:   rankings,
		JoinedAt:   millis(p.JoinedAt),
		CatchingUp: p.CatchingUp,
	}
}

func (r *Room) itemSnapshot(item *Item) ItemSnapshot {
	return ItemSnapshot{
		ID:          item.ID,
		Text:        item.Text,
		Emoji:       item.Emoji,
		SubmittedBy: item.SubmittedBy,
		SubmittedAt: millis(item.SubmittedAt),
	}
}

func (r *Room) snapshot() *RoomSnapshot {
	snap := &RoomSnapshot{
		Code:             r.code,
		HostID:           r.hostID,
		Status:           r.status,
		Config:           r.cfg,
		CurrentTurnIndex: r.currentTurnIndex,
		TurnEndsAt:       millisOrNil(r.turnDeadline),
		RankingEndsAt:    millisOrNil(r.rankingDeadline),
		CreatedAt:        millis(r.createdAt),
		LastActivityAt:   r.lastActivity.Load(),
	}
	for _, p := range r.players {
		snap.Players = append(snap.Players, r.playerSnapshot(p))
	}
	for _, item := range r.items {
		snap.Items = append(snap.Items, r.itemSnapshot(item))
	}
	if r.status == StatusInProgress {
		snap.CurrentTurnPlayerID = r.submitterID()
	}
	if r.status == StatusEnded {
		snap.Results = Aggregate(r.players, r.items, r.cfg.ItemsPerGame)
	}
	return snap
}
