package main

import (
	"time"
)

// pendingRemoval retains a disconnected player's slot for the grace
// window. The timer evicts the player unless a reconnect cancels it.
type pendingRemoval struct {
	name  string
	timer *time.Timer
}

// markDisconnectedLocked parks a player in the disconnected registry
// instead of removing them outright, giving their client time to come
// back with the same identity.
func (l *Lobby) markDisconnectedLocked(playerID string) {
	player, ok := l.players[playerID]
	if !ok {
		return
	}

	if existing, ok := l.disconnected[playerID]; ok {
		existing.timer.Stop()
	}

	l.disconnected[playerID] = &pendingRemoval{
		name: player.Name,
		timer: time.AfterFunc(l.cfg.reconnectTimeout, func() {
			l.evictExpired(playerID)
		}),
	}

	logf(l.cfg, "GAMES: Player %q (%s) disconnected from lobby %s, removal in %s",
		player.Name, playerID, l.id, l.cfg.reconnectTimeout)
}

// evictExpired runs when a grace timer fires. It re-checks registry
// membership under the lock, so a reconnect that raced the timer wins
// and eviction stays idempotent.
func (l *Lobby) evictExpired(playerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.disconnected[playerID]; !ok {
		return
	}
	delete(l.disconnected, playerID)

	l.removePlayerLocked(playerID)
	l.broadcastLobbyStateLocked()
}

// reconnectLocked rebinds a returning client to its pending player. The
// supplied name must match the retained one; the timer is cancelled
// before any state changes hands.
func (l *Lobby) reconnectLocked(c *Client, playerID, playerName string) (*Player, bool) {
	pending, ok := l.disconnected[playerID]
	if !ok || pending.name != playerName {
		return nil, false
	}

	player, ok := l.players[playerID]
	if !ok {
		// Registry out of sync with the roster; drop the stale entry.
		pending.timer.Stop()
		delete(l.disconnected, playerID)
		return nil, false
	}

	pending.timer.Stop()
	delete(l.disconnected, playerID)

	player.client = c
	c.playerID = playerID

	logf(l.cfg, "GAMES: Player %q (%s) reconnected to lobby %s", player.Name, playerID, l.id)

	return player, true
}
