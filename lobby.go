package main

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PlayerStatus tracks a player through the lobby and game lifecycle.
type PlayerStatus string

const (
	StatusWaiting PlayerStatus = "WAITING"
	StatusReady   PlayerStatus = "READY"
	StatusAlive   PlayerStatus = "ALIVE"
	StatusSick    PlayerStatus = "SICK"
	StatusDead    PlayerStatus = "DEAD"
)

// Precondition violations, reported back to clients verbatim.
var (
	errNotConnected      = errors.New("not connected to a lobby")
	errNameRequired      = errors.New("player name is required")
	errAlreadyJoined     = errors.New("already joined this lobby")
	errGameInProgress    = errors.New("a game is already in progress")
	errGameNotInProgress = errors.New("no game is in progress")
	errNotAllReady       = errors.New("not all players are ready")
	errTooFewPlayers     = errors.New("at least 2 players are required to start")
	errNotAlive          = errors.New("player is not alive")
	errDoctorCannotDie   = errors.New("the doctor cannot die while other players are still alive")
	errNotDoctor         = errors.New("only a living doctor can do that")
	errNoEligible        = errors.New("no players are eligible to fall sick")
	errNoSickPlayers     = errors.New("no players are currently sick")
	errNotSick           = errors.New("that player is not sick")
	errUnknownPlayer     = errors.New("unknown player")
)

// Player is owned exclusively by its lobby: created on join, destroyed on
// removal. The bound client is the player's live connection, if any.
type Player struct {
	ID     string
	Name   string
	Status PlayerStatus
	Role   Role // empty until a game starts
	client *Client
}

// Lobby is the aggregate for one party: its players, their connections,
// and the state of the game currently being played, if any.
//
// All fields behind mu; methods suffixed Locked expect the caller to
// hold it, so each message handler runs atomically end to end.
type Lobby struct {
	id  string
	cfg *Config

	mu           sync.Mutex
	clients      map[*Client]bool
	players      map[string]*Player
	order        []string // join order; roles are handed out positionally
	gameID       string
	inProgress   bool
	round        int
	sick         map[string]bool
	cured        string // at most one cured player per round, last call wins
	disconnected map[string]*pendingRemoval
	createdAt    time.Time
	lastActive   time.Time
}

func newLobby(cfg *Config, id string) *Lobby {
	now := time.Now()
	return &Lobby{
		id:           id,
		cfg:          cfg,
		clients:      make(map[*Client]bool),
		players:      make(map[string]*Player),
		gameID:       uuid.NewString(),
		sick:         make(map[string]bool),
		disconnected: make(map[string]*pendingRemoval),
		createdAt:    now,
		lastActive:   now,
	}
}

func (l *Lobby) touchLocked() {
	l.lastActive = time.Now()
}

// playerOfLocked resolves the player bound to a connection, if any.
func (l *Lobby) playerOfLocked(c *Client) *Player {
	if c.playerID == "" {
		return nil
	}
	return l.players[c.playerID]
}

func (l *Lobby) addPlayerLocked(name string, c *Client) (*Player, error) {
	if l.inProgress {
		return nil, errGameInProgress
	}
	if p := l.playerOfLocked(c); p != nil {
		return nil, errAlreadyJoined
	}

	player := &Player{
		ID:     uuid.NewString(),
		Name:   name,
		Status: StatusWaiting,
		client: c,
	}
	l.players[player.ID] = player
	l.order = append(l.order, player.ID)
	c.playerID = player.ID

	logf(l.cfg, "GAMES: Player %q (%s) joined lobby %s", name, player.ID, l.id)

	return player, nil
}

func (l *Lobby) removePlayerLocked(playerID string) {
	player, ok := l.players[playerID]
	if !ok {
		return
	}

	delete(l.players, playerID)
	delete(l.sick, playerID)
	if l.cured == playerID {
		l.cured = ""
	}

	dst := l.order[:0]
	for _, id := range l.order {
		if id != playerID {
			dst = append(dst, id)
		}
	}
	l.order = dst

	logf(l.cfg, "GAMES: Player %q (%s) left lobby %s", player.Name, playerID, l.id)
}

// orderedPlayersLocked returns players in join order, the stable order
// used for role distribution.
func (l *Lobby) orderedPlayersLocked() []*Player {
	players := make([]*Player, 0, len(l.order))
	for _, id := range l.order {
		players = append(players, l.players[id])
	}
	return players
}

func (l *Lobby) allReadyLocked() bool {
	if len(l.players) == 0 {
		return false
	}
	for _, p := range l.players {
		if p.Status != StatusReady {
			return false
		}
	}
	return true
}

// startGameLocked assigns roles positionally over the join order and
// moves every ready player to alive. The round counter stays at zero
// until the doctor starts the first round.
func (l *Lobby) startGameLocked() error {
	if l.inProgress {
		return errGameInProgress
	}
	if len(l.players) < 2 {
		return errTooFewPlayers
	}
	if !l.allReadyLocked() {
		return errNotAllReady
	}

	roles := assignRoles(len(l.order))
	for i, id := range l.order {
		player := l.players[id]
		player.Role = roles[i]
		player.Status = StatusAlive
	}

	l.inProgress = true

	logf(l.cfg, "GAMES: Game %s started in lobby %s with %d players", l.gameID, l.id, len(l.players))

	return nil
}

// canDoctorDieLocked reports whether the doctor may self-report death:
// only once no non-doctor player is left alive.
func (l *Lobby) canDoctorDieLocked() bool {
	for _, p := range l.players {
		if p.Role != RoleDoctor && p.Status == StatusAlive {
			return false
		}
	}
	return true
}

func (l *Lobby) markDeadLocked(player *Player) error {
	if player.Status != StatusAlive {
		return errNotAlive
	}
	if player.Role == RoleDoctor && !l.canDoctorDieLocked() {
		return errDoctorCannotDie
	}

	player.Status = StatusDead

	return nil
}

func (l *Lobby) allDeadLocked() bool {
	if len(l.players) == 0 {
		return false
	}
	for _, p := range l.players {
		if p.Status != StatusDead {
			return false
		}
	}
	return true
}

// calculateWinnerLocked compares living allies against living enemies.
// Ties award the enemy team; the comparison is strictly allies > enemies.
func (l *Lobby) calculateWinnerLocked() Role {
	allies, enemies := countAliveTeamMembers(l.orderedPlayersLocked())
	if allies > enemies {
		return RoleAlly
	}
	return RoleEnemy
}

// endGameLocked computes the winner, regenerates the session id, and
// resets every player to waiting with their role cleared. Players stay
// registered for the next game.
func (l *Lobby) endGameLocked() Role {
	winner := l.calculateWinnerLocked()

	l.gameID = uuid.NewString()
	l.inProgress = false
	l.round = 0
	l.sick = make(map[string]bool)
	l.cured = ""

	for _, p := range l.players {
		p.Status = StatusWaiting
		p.Role = ""
	}

	logf(l.cfg, "GAMES: Game over in lobby %s, winner %s", l.id, winner)

	return winner
}

// publicSummaryLocked builds the public view of one player. The role
// label is included only once revealed, which happens on death.
func (l *Lobby) publicSummaryLocked(p *Player) PlayerSummary {
	summary := PlayerSummary{
		ID:     p.ID,
		Name:   p.Name,
		Status: string(p.Status),
	}
	if p.Status == StatusDead && p.Role != "" {
		summary.Role = string(p.Role)
	}
	return summary
}

func (l *Lobby) lobbyStateLocked() LobbyStateMessage {
	players := make([]PlayerSummary, 0, len(l.order))
	for _, p := range l.orderedPlayersLocked() {
		players = append(players, l.publicSummaryLocked(p))
	}

	return LobbyStateMessage{
		Type:           "lobby_state",
		Players:        players,
		AllReady:       l.allReadyLocked(),
		GameInProgress: l.inProgress,
		GameID:         l.gameID,
	}
}

// sendLocked delivers one message to one client. A full send buffer is
// logged and skipped; it never aborts delivery to other recipients and
// never removes the player, since removal is reconnection-timer-driven.
func (l *Lobby) sendLocked(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		logf(l.cfg, "ERROR: Dropped message to client %s in lobby %s (send buffer full)", c.playerID, l.id)
	}
}

func (l *Lobby) broadcastLocked(msg any) {
	for client := range l.clients {
		l.sendLocked(client, msg)
	}
}

// broadcastLobbyStateLocked sends the public snapshot to every client,
// followed, while a game is in progress, by each player's private role
// payload. Per-connection write pumps keep the two ordered.
func (l *Lobby) broadcastLobbyStateLocked() {
	state := l.lobbyStateLocked()

	for client := range l.clients {
		l.sendLocked(client, state)

		if !l.inProgress {
			continue
		}
		player := l.playerOfLocked(client)
		if player == nil || player.Role == "" {
			continue
		}
		l.sendLocked(client, PlayerRoleMessage{
			Type:   "player_role",
			Player: roleInfo(player.Role, player.Status == StatusSick),
		})
	}
}
