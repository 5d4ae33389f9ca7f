package main

import (
	"math/rand"
)

// sickCountLocked decides how many players fall sick this round: one
// normally, two for parties larger than ten, never more than the
// configured cap or the eligible pool.
func (l *Lobby) sickCountLocked(eligible int) int {
	count := 1
	if len(l.players) > 10 {
		count = 2
	}
	if count > l.cfg.sickCap {
		count = l.cfg.sickCap
	}
	if count > eligible {
		count = eligible
	}
	return count
}

// startRoundLocked begins a new round: the counter advances, the prior
// round's sickness state is cleared, and targets are drawn uniformly
// without replacement from living non-doctor players.
//
// The counter advances even when the eligible pool is empty and the
// start is rejected; long-standing behavior that clients rely on.
func (l *Lobby) startRoundLocked() ([]*Player, error) {
	if !l.inProgress {
		return nil, errGameNotInProgress
	}

	l.round++
	l.sick = make(map[string]bool)
	l.cured = ""

	eligible := make([]*Player, 0, len(l.order))
	for _, p := range l.orderedPlayersLocked() {
		if p.Role != RoleDoctor && p.Status == StatusAlive {
			eligible = append(eligible, p)
		}
	}

	if len(eligible) == 0 {
		return nil, errNoEligible
	}

	count := l.sickCountLocked(len(eligible))

	sickened := make([]*Player, 0, count)
	for _, i := range rand.Perm(len(eligible))[:count] {
		player := eligible[i]
		player.Status = StatusSick
		l.sick[player.ID] = true
		sickened = append(sickened, player)
	}

	logf(l.cfg, "GAMES: Round %d started in lobby %s, %d sickened", l.round, l.id, len(sickened))

	return sickened, nil
}

// curePlayerLocked records the doctor's cure for the active round. Only
// the most recent call counts; an empty target clears the selection.
func (l *Lobby) curePlayerLocked(playerID string) (*Player, error) {
	if !l.inProgress {
		return nil, errGameNotInProgress
	}
	if len(l.sick) == 0 {
		return nil, errNoSickPlayers
	}

	if playerID == "" {
		l.cured = ""
		return nil, nil
	}

	player, ok := l.players[playerID]
	if !ok {
		return nil, errUnknownPlayer
	}
	if player.Status != StatusSick {
		return nil, errNotSick
	}

	l.cured = playerID

	return player, nil
}

// shouldGameEndLocked reports whether enough non-doctor players have
// died: at least half, with an exact half counting as game-ending.
func (l *Lobby) shouldGameEndLocked() bool {
	var total, dead int
	for _, p := range l.players {
		if p.Role == RoleDoctor {
			continue
		}
		total++
		if p.Status == StatusDead {
			dead++
		}
	}
	if total == 0 {
		return false
	}
	return float64(dead) >= float64(total)/2
}

// endRoundLocked resolves the active round: the cured player (if any)
// recovers, every other sick player dies. If that pushes the death toll
// over the threshold the game ends and the winner is returned.
func (l *Lobby) endRoundLocked() (winner Role, ended bool, err error) {
	if !l.inProgress {
		return "", false, errGameNotInProgress
	}

	for id := range l.sick {
		player, ok := l.players[id]
		if !ok {
			continue
		}
		if id == l.cured {
			player.Status = StatusAlive
		} else {
			player.Status = StatusDead
		}
	}

	if l.shouldGameEndLocked() {
		return l.endGameLocked(), true, nil
	}

	l.sick = make(map[string]bool)
	l.cured = ""

	return "", false, nil
}
