package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig() *Config {
	return &Config{
		bind:             "127.0.0.1",
		port:             8080,
		reconnectTimeout: 25 * time.Millisecond,
		sessionTimeout:   time.Hour,
		sickCap:          4,
	}
}

func newTestLobby() *Lobby {
	return newLobby(newTestConfig(), "testlobby")
}

func testClient() *Client {
	return &Client{send: make(chan any, 256)}
}

// addPlayerDirect wires up a player without going through the dispatch
// table, for tests exercising the aggregate itself.
func addPlayerDirect(t *testing.T, l *Lobby, name string) (*Player, *Client) {
	t.Helper()

	c := testClient()
	l.clients[c] = true
	player, err := l.addPlayerLocked(name, c)
	require.NoError(t, err)
	return player, c
}

// startDirectGame readies everyone and starts a game outside the
// dispatch table.
func startDirectGame(t *testing.T, l *Lobby, names ...string) {
	t.Helper()

	for _, name := range names {
		player, _ := addPlayerDirect(t, l, name)
		player.Status = StatusReady
	}
	require.NoError(t, l.startGameLocked())
}

func doctorOf(t *testing.T, l *Lobby) *Player {
	t.Helper()

	for _, p := range l.players {
		if p.Role == RoleDoctor {
			return p
		}
	}
	t.Fatal("no doctor in lobby")
	return nil
}

func TestAddPlayerBlockedDuringGame(t *testing.T) {
	l := newTestLobby()
	startDirectGame(t, l, "alice", "bob")

	_, err := l.addPlayerLocked("carol", testClient())
	assert.ErrorIs(t, err, errGameInProgress)
	assert.Len(t, l.players, 2)
}

func TestAllReadyEmptyLobby(t *testing.T) {
	l := newTestLobby()
	assert.False(t, l.allReadyLocked(), "an empty lobby is never all-ready")
}

func TestStartGamePreconditions(t *testing.T) {
	l := newTestLobby()

	alice, _ := addPlayerDirect(t, l, "alice")
	alice.Status = StatusReady
	assert.ErrorIs(t, l.startGameLocked(), errTooFewPlayers)

	bob, _ := addPlayerDirect(t, l, "bob")
	assert.ErrorIs(t, l.startGameLocked(), errNotAllReady)

	bob.Status = StatusReady
	assert.NoError(t, l.startGameLocked())
}

func TestStartGameAssignsRoles(t *testing.T) {
	l := newTestLobby()
	startDirectGame(t, l, "alice", "bob", "carol", "dave")

	assert.True(t, l.inProgress)
	assert.Zero(t, l.round, "round counter stays at zero until the first round starts")

	doctors := 0
	for _, p := range l.players {
		assert.Equal(t, StatusAlive, p.Status)
		require.NotEmpty(t, p.Role)
		if p.Role == RoleDoctor {
			doctors++
		}
	}
	assert.Equal(t, 1, doctors)
}

func TestMarkDeadDoctorGuard(t *testing.T) {
	l := newTestLobby()
	startDirectGame(t, l, "alice", "bob", "carol")

	doctor := doctorOf(t, l)
	assert.ErrorIs(t, l.markDeadLocked(doctor), errDoctorCannotDie)

	// The doctor becomes eligible the instant the last other player dies.
	for _, p := range l.players {
		if p.Role != RoleDoctor {
			require.NoError(t, l.markDeadLocked(p))
		}
	}
	assert.NoError(t, l.markDeadLocked(doctor))
	assert.Equal(t, StatusDead, doctor.Status)
}

func TestMarkDeadRequiresAlive(t *testing.T) {
	l := newTestLobby()
	player, _ := addPlayerDirect(t, l, "alice")

	assert.ErrorIs(t, l.markDeadLocked(player), errNotAlive)
}

func TestCalculateWinnerTieAwardsEnemy(t *testing.T) {
	l := newTestLobby()

	doctor, _ := addPlayerDirect(t, l, "doc")
	ally, _ := addPlayerDirect(t, l, "ally")
	enemy, _ := addPlayerDirect(t, l, "enemy")

	doctor.Role, doctor.Status = RoleDoctor, StatusAlive
	ally.Role, ally.Status = RoleAlly, StatusAlive
	enemy.Role, enemy.Status = RoleEnemy, StatusAlive

	assert.Equal(t, RoleEnemy, l.calculateWinnerLocked(), "equal counts award the enemy team")

	enemy.Status = StatusDead
	assert.Equal(t, RoleAlly, l.calculateWinnerLocked())
}

func TestEndGameResetsLobby(t *testing.T) {
	l := newTestLobby()
	startDirectGame(t, l, "alice", "bob", "carol")

	oldGameID := l.gameID
	l.round = 3
	l.sick[l.order[0]] = true
	l.cured = l.order[0]

	l.endGameLocked()

	assert.NotEqual(t, oldGameID, l.gameID, "session id is regenerated")
	assert.False(t, l.inProgress)
	assert.Zero(t, l.round)
	assert.Empty(t, l.sick)
	assert.Empty(t, l.cured)

	for _, p := range l.players {
		assert.Equal(t, StatusWaiting, p.Status, "players remain registered for a new game")
		assert.Empty(t, p.Role)
	}
}

func TestPublicSummaryRevealsRoleOnDeath(t *testing.T) {
	l := newTestLobby()
	player, _ := addPlayerDirect(t, l, "alice")
	player.Role = RoleEnemy
	player.Status = StatusAlive

	assert.Empty(t, l.publicSummaryLocked(player).Role, "living players keep their role hidden")

	player.Status = StatusDead
	assert.Equal(t, "ENEMY", l.publicSummaryLocked(player).Role)
}

func TestRemovePlayerClearsRoundState(t *testing.T) {
	l := newTestLobby()
	player, _ := addPlayerDirect(t, l, "alice")
	addPlayerDirect(t, l, "bob")

	l.sick[player.ID] = true
	l.cured = player.ID

	l.removePlayerLocked(player.ID)

	assert.NotContains(t, l.players, player.ID)
	assert.NotContains(t, l.sick, player.ID)
	assert.Empty(t, l.cured)
	assert.Equal(t, []string{l.order[0]}, l.order)
	assert.Len(t, l.order, 1)
}
