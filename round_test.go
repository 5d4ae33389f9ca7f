package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRoundRequiresGame(t *testing.T) {
	l := newTestLobby()
	_, err := l.startRoundLocked()
	assert.ErrorIs(t, err, errGameNotInProgress)
	assert.Zero(t, l.round)
}

func TestStartRoundNeverSickensDoctor(t *testing.T) {
	l := newTestLobby()
	startDirectGame(t, l, "alice", "bob", "carol", "dave")

	for round := 1; round <= 3; round++ {
		sickened, err := l.startRoundLocked()
		require.NoError(t, err)
		require.Len(t, sickened, 1)
		assert.Equal(t, round, l.round)

		for _, p := range sickened {
			assert.NotEqual(t, RoleDoctor, p.Role)
			assert.Equal(t, StatusSick, p.Status)
		}

		// Reset for the next iteration.
		for _, p := range sickened {
			p.Status = StatusAlive
		}
	}
}

func TestStartRoundCounts(t *testing.T) {
	tests := []struct {
		players  int
		sickCap  int
		wantSick int
	}{
		{4, 4, 1},
		{11, 4, 2},  // larger parties sicken two
		{11, 1, 1},  // capped by configuration
		{2, 4, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d players cap %d", tt.players, tt.sickCap), func(t *testing.T) {
			l := newTestLobby()
			l.cfg.sickCap = tt.sickCap

			names := make([]string, tt.players)
			for i := range names {
				names[i] = fmt.Sprintf("player%d", i)
			}
			startDirectGame(t, l, names...)

			sickened, err := l.startRoundLocked()
			require.NoError(t, err)
			assert.Len(t, sickened, tt.wantSick)
			assert.Len(t, l.sick, tt.wantSick)
		})
	}
}

func TestStartRoundEmptyPoolStillIncrementsCounter(t *testing.T) {
	l := newTestLobby()
	startDirectGame(t, l, "alice", "bob")

	for _, p := range l.players {
		if p.Role != RoleDoctor {
			p.Status = StatusDead
		}
	}

	_, err := l.startRoundLocked()
	assert.ErrorIs(t, err, errNoEligible)
	assert.Equal(t, 1, l.round, "the counter advances even when the start is rejected")
}

// sickenDirect forces a specific player sick, for deterministic cure and
// resolution tests.
func sickenDirect(l *Lobby, player *Player) {
	player.Status = StatusSick
	l.sick[player.ID] = true
}

func TestCurePlayerPreconditions(t *testing.T) {
	l := newTestLobby()

	_, err := l.curePlayerLocked("whoever")
	assert.ErrorIs(t, err, errGameNotInProgress)

	startDirectGame(t, l, "alice", "bob", "carol")

	_, err = l.curePlayerLocked("whoever")
	assert.ErrorIs(t, err, errNoSickPlayers)

	doctor := doctorOf(t, l)
	var target *Player
	for _, p := range l.players {
		if p.Role != RoleDoctor {
			target = p
			break
		}
	}
	sickenDirect(l, target)

	_, err = l.curePlayerLocked("nonexistent")
	assert.ErrorIs(t, err, errUnknownPlayer)

	_, err = l.curePlayerLocked(doctor.ID)
	assert.ErrorIs(t, err, errNotSick, "a healthy player cannot be cured")

	cured, err := l.curePlayerLocked(target.ID)
	require.NoError(t, err)
	assert.Equal(t, target, cured)
	assert.Equal(t, target.ID, l.cured)
}

func TestCureLastCallWins(t *testing.T) {
	l := newTestLobby()
	startDirectGame(t, l, "alice", "bob", "carol", "dave")

	var sick []*Player
	for _, p := range l.orderedPlayersLocked() {
		if p.Role != RoleDoctor && len(sick) < 2 {
			sickenDirect(l, p)
			sick = append(sick, p)
		}
	}
	require.Len(t, sick, 2)

	_, err := l.curePlayerLocked(sick[0].ID)
	require.NoError(t, err)
	_, err = l.curePlayerLocked(sick[1].ID)
	require.NoError(t, err)

	assert.Equal(t, sick[1].ID, l.cured, "only the most recent cure counts")
}

func TestCureEmptyTargetClearsSelection(t *testing.T) {
	l := newTestLobby()
	startDirectGame(t, l, "alice", "bob", "carol")

	var target *Player
	for _, p := range l.players {
		if p.Role != RoleDoctor {
			target = p
			break
		}
	}
	sickenDirect(l, target)

	_, err := l.curePlayerLocked(target.ID)
	require.NoError(t, err)

	cured, err := l.curePlayerLocked("")
	require.NoError(t, err)
	assert.Nil(t, cured)
	assert.Empty(t, l.cured)
}

func TestEndRoundResolution(t *testing.T) {
	l := newTestLobby()

	// Hand-built roster so the death threshold is not reached.
	doctor, _ := addPlayerDirect(t, l, "doc")
	doctor.Role, doctor.Status = RoleDoctor, StatusAlive
	var others []*Player
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		p, _ := addPlayerDirect(t, l, name)
		p.Role, p.Status = RoleAlly, StatusAlive
		others = append(others, p)
	}
	l.inProgress = true
	l.round = 1

	sickenDirect(l, others[0])
	sickenDirect(l, others[1])
	l.cured = others[0].ID

	winner, ended, err := l.endRoundLocked()
	require.NoError(t, err)
	assert.False(t, ended)
	assert.Empty(t, winner)

	assert.Equal(t, StatusAlive, others[0].Status, "the cured player recovers")
	assert.Equal(t, StatusDead, others[1].Status, "uncured sick players die")
	assert.Empty(t, l.sick, "round state cleared")
	assert.Empty(t, l.cured)
	assert.True(t, l.inProgress)
}

func TestShouldGameEndThreshold(t *testing.T) {
	tests := []struct {
		nonDoctors int
		dead       int
		want       bool
	}{
		{2, 0, false},
		{2, 1, true}, // exactly half counts as game-ending
		{3, 1, false},
		{3, 2, true},
		{4, 2, true},
		{1, 1, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d dead of %d", tt.dead, tt.nonDoctors), func(t *testing.T) {
			l := newTestLobby()
			doctor, _ := addPlayerDirect(t, l, "doc")
			doctor.Role, doctor.Status = RoleDoctor, StatusAlive

			for i := 0; i < tt.nonDoctors; i++ {
				p, _ := addPlayerDirect(t, l, fmt.Sprintf("p%d", i))
				p.Role = RoleAlly
				if i < tt.dead {
					p.Status = StatusDead
				} else {
					p.Status = StatusAlive
				}
			}

			assert.Equal(t, tt.want, l.shouldGameEndLocked())
		})
	}
}

func TestEndRoundEndsGameAtThreshold(t *testing.T) {
	l := newTestLobby()

	doctor, _ := addPlayerDirect(t, l, "doc")
	doctor.Role, doctor.Status = RoleDoctor, StatusAlive
	ally, _ := addPlayerDirect(t, l, "ally")
	ally.Role, ally.Status = RoleAlly, StatusAlive
	enemy, _ := addPlayerDirect(t, l, "enemy")
	enemy.Role, enemy.Status = RoleEnemy, StatusAlive
	l.inProgress = true
	l.round = 2

	// The ally sickens and nobody is cured: one of two non-doctors dead
	// reaches half, ending the game with the enemy ahead.
	sickenDirect(l, ally)

	winner, ended, err := l.endRoundLocked()
	require.NoError(t, err)
	assert.True(t, ended)
	assert.Equal(t, RoleEnemy, winner)

	assert.False(t, l.inProgress, "end_round delegates to end_game")
	assert.Equal(t, StatusWaiting, enemy.Status)
	assert.Empty(t, enemy.Role)
}
