package main

import (
	"encoding/json"
	"strings"
)

type handlerFunc func(l *Lobby, c *Client, msg ClientMessage)

// messageHandlers routes inbound message types. Anything not listed
// earns an error reply with the connection left open.
var messageHandlers = map[string]handlerFunc{
	"join":        handleJoin,
	"reconnect":   handleReconnect,
	"ready":       handleReady,
	"unready":     handleUnready,
	"start_game":  handleStartGame,
	"mark_dead":   handleMarkDead,
	"end_game":    handleEndGame,
	"start_round": handleStartRound,
	"cure_player": handleCurePlayer,
	"end_round":   handleEndRound,
	"ping":        handlePing,
}

func errorMessage(text string) ErrorMessage {
	return ErrorMessage{
		Type:    "error",
		Message: text,
	}
}

// reply sends one message to one client outside of a handler body.
func (l *Lobby) reply(c *Client, msg any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sendLocked(c, msg)
}

// dispatch decodes one inbound frame and runs its handler. Handler
// panics are contained per message: the client gets a generic error and
// the connection survives.
func (l *Lobby) dispatch(c *Client, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			logf(l.cfg, "ERROR: Recovered handling message in lobby %s: %v", l.id, r)
			l.reply(c, errorMessage("internal server error"))
		}
	}()

	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		l.reply(c, errorMessage("invalid message format"))
		return
	}

	handler, ok := messageHandlers[msg.Type]
	if !ok {
		l.reply(c, errorMessage("unknown message type: "+msg.Type))
		return
	}

	handler(l, c, msg)
}

// requireDoctorLocked gates role-bound actions: the caller must be
// bound, alive, and hold the doctor role.
func (l *Lobby) requireDoctorLocked(c *Client) (*Player, error) {
	player := l.playerOfLocked(c)
	if player == nil {
		return nil, errNotConnected
	}
	if player.Status != StatusAlive {
		return nil, errNotAlive
	}
	if player.Role != RoleDoctor {
		return nil, errNotDoctor
	}
	return player, nil
}

func handleJoin(l *Lobby, c *Client, msg ClientMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touchLocked()

	name := strings.TrimSpace(msg.Name)
	if name == "" {
		l.sendLocked(c, errorMessage(errNameRequired.Error()))
		return
	}

	player, err := l.addPlayerLocked(name, c)
	if err != nil {
		l.sendLocked(c, errorMessage(err.Error()))
		return
	}

	l.sendLocked(c, JoinedMessage{
		Type:     "joined",
		PlayerID: player.ID,
	})
	l.broadcastLobbyStateLocked()
}

func handleReconnect(l *Lobby, c *Client, msg ClientMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touchLocked()

	// A stale session id means the client remembers a different game;
	// tell it which one is live instead of silently joining.
	if msg.GameID != "" && msg.GameID != l.gameID {
		l.sendLocked(c, GameIDMismatchMessage{
			Type:          "game_id_mismatch",
			CurrentGameID: l.gameID,
		})
		return
	}

	if _, ok := l.reconnectLocked(c, msg.PlayerID, msg.PlayerName); ok {
		l.sendLocked(c, ReconnectedMessage{Type: "reconnected"})
		l.broadcastLobbyStateLocked()
		return
	}

	// No pending disconnection matches: treat as a fresh join.
	name := strings.TrimSpace(msg.PlayerName)
	if name == "" {
		l.sendLocked(c, errorMessage(errNameRequired.Error()))
		return
	}

	player, err := l.addPlayerLocked(name, c)
	if err != nil {
		l.sendLocked(c, errorMessage(err.Error()))
		return
	}

	l.sendLocked(c, JoinedMessage{
		Type:     "joined",
		PlayerID: player.ID,
	})
	l.broadcastLobbyStateLocked()
}

func handleReady(l *Lobby, c *Client, msg ClientMessage) {
	setReadyState(l, c, StatusReady)
}

func handleUnready(l *Lobby, c *Client, msg ClientMessage) {
	setReadyState(l, c, StatusWaiting)
}

// setReadyState toggles waiting/ready, which is only legal between games.
func setReadyState(l *Lobby, c *Client, status PlayerStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touchLocked()

	player := l.playerOfLocked(c)
	if player == nil {
		l.sendLocked(c, errorMessage(errNotConnected.Error()))
		return
	}
	if l.inProgress {
		l.sendLocked(c, errorMessage(errGameInProgress.Error()))
		return
	}

	player.Status = status
	l.broadcastLobbyStateLocked()
}

func handleStartGame(l *Lobby, c *Client, msg ClientMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touchLocked()

	if l.playerOfLocked(c) == nil {
		l.sendLocked(c, errorMessage(errNotConnected.Error()))
		return
	}

	if err := l.startGameLocked(); err != nil {
		l.sendLocked(c, errorMessage(err.Error()))
		return
	}

	l.sendLocked(c, GameStartedMessage{Type: "game_started"})
	l.broadcastLobbyStateLocked()
}

func handleMarkDead(l *Lobby, c *Client, msg ClientMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touchLocked()

	player := l.playerOfLocked(c)
	if player == nil {
		l.sendLocked(c, errorMessage(errNotConnected.Error()))
		return
	}

	if err := l.markDeadLocked(player); err != nil {
		l.sendLocked(c, errorMessage(err.Error()))
		return
	}

	l.broadcastLobbyStateLocked()

	switch {
	case l.inProgress && l.shouldGameEndLocked():
		winner := l.endGameLocked()
		l.broadcastLocked(GameOverMessage{
			Type:   "game_over",
			Winner: string(winner),
		})
		l.broadcastLobbyStateLocked()
	case l.allDeadLocked():
		// Degenerate ending: everyone self-reported dead without round
		// mechanics, so there is no winner to compute.
		l.broadcastLocked(GameOverMessage{Type: "game_over"})
	}
}

func handleEndGame(l *Lobby, c *Client, msg ClientMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touchLocked()

	if _, err := l.requireDoctorLocked(c); err != nil {
		l.sendLocked(c, errorMessage(err.Error()))
		return
	}
	if !l.inProgress {
		l.sendLocked(c, errorMessage(errGameNotInProgress.Error()))
		return
	}

	winner := l.endGameLocked()
	l.broadcastLocked(GameOverMessage{
		Type:          "game_over",
		Winner:        string(winner),
		EndedByDoctor: true,
	})
	l.broadcastLobbyStateLocked()
}

func handleStartRound(l *Lobby, c *Client, msg ClientMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touchLocked()

	if _, err := l.requireDoctorLocked(c); err != nil {
		l.sendLocked(c, errorMessage(err.Error()))
		return
	}

	sickened, err := l.startRoundLocked()
	if err != nil {
		l.sendLocked(c, errorMessage(err.Error()))
		return
	}

	// Only the doctor learns who fell sick.
	players := make([]PlayerSummary, 0, len(sickened))
	for _, p := range sickened {
		players = append(players, l.publicSummaryLocked(p))
	}
	l.sendLocked(c, SickPlayersMessage{
		Type:    "sick_players",
		Players: players,
	})

	l.broadcastLocked(RoundStartedMessage{
		Type:        "round_started",
		RoundNumber: l.round,
	})
	l.broadcastLobbyStateLocked()
}

func handleCurePlayer(l *Lobby, c *Client, msg ClientMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touchLocked()

	if _, err := l.requireDoctorLocked(c); err != nil {
		l.sendLocked(c, errorMessage(err.Error()))
		return
	}

	player, err := l.curePlayerLocked(msg.PlayerID)
	if err != nil {
		l.sendLocked(c, errorMessage(err.Error()))
		return
	}

	if player == nil {
		l.sendLocked(c, NoPlayerCuredMessage{Type: "no_player_cured"})
		return
	}

	l.sendLocked(c, PlayerCuredMessage{
		Type:       "player_cured",
		PlayerID:   player.ID,
		PlayerName: player.Name,
	})
}

func handleEndRound(l *Lobby, c *Client, msg ClientMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touchLocked()

	if _, err := l.requireDoctorLocked(c); err != nil {
		l.sendLocked(c, errorMessage(err.Error()))
		return
	}

	roundNumber := l.round

	winner, ended, err := l.endRoundLocked()
	if err != nil {
		l.sendLocked(c, errorMessage(err.Error()))
		return
	}

	l.broadcastLocked(RoundEndedMessage{
		Type:        "round_ended",
		RoundNumber: roundNumber,
	})

	if ended {
		l.broadcastLocked(GameOverMessage{
			Type:   "game_over",
			Winner: string(winner),
		})
	}

	l.broadcastLobbyStateLocked()
}

func handlePing(l *Lobby, c *Client, msg ClientMessage) {
	l.reply(c, PongMessage{Type: "pong"})
}
