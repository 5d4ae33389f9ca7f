package main

// ClientMessage is the envelope for everything coming from clients.
type ClientMessage struct {
	Type       string `json:"type"`                 // "join", "reconnect", "ready", "unready", "start_game", "mark_dead", "end_game", "start_round", "cure_player", "end_round", "ping"
	Name       string `json:"name,omitempty"`       // join
	PlayerID   string `json:"playerId,omitempty"`   // reconnect / cure_player
	PlayerName string `json:"playerName,omitempty"` // reconnect
	GameID     string `json:"gameId,omitempty"`     // reconnect
}

// ErrorMessage is sent to a single client when a request is rejected.
type ErrorMessage struct {
	Type    string `json:"type"`    // "error"
	Message string `json:"message"` // user-facing text
}

// JoinedMessage confirms a join and hands out the player's identifier.
type JoinedMessage struct {
	Type     string `json:"type"` // "joined"
	PlayerID string `json:"playerId"`
}

// ReconnectedMessage confirms a successful reconnect.
type ReconnectedMessage struct {
	Type string `json:"type"` // "reconnected"
}

// GameIDMismatchMessage rejects a reconnect against a stale game session.
type GameIDMismatchMessage struct {
	Type          string `json:"type"` // "game_id_mismatch"
	CurrentGameID string `json:"currentGameId"`
}

// PlayerSummary is the public view of a player. Role is only populated
// once that player's role has been revealed.
type PlayerSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Role   string `json:"role,omitempty"`
}

// LobbyStateMessage is the public snapshot broadcast to every client.
type LobbyStateMessage struct {
	Type           string          `json:"type"` // "lobby_state"
	Players        []PlayerSummary `json:"players"`
	AllReady       bool            `json:"allReady"`
	GameInProgress bool            `json:"gameInProgress"`
	GameID         string          `json:"gameId"`
}

// RoleInfo is the private per-player role payload.
type RoleInfo struct {
	Role          string `json:"role"`
	BaseRole      string `json:"baseRole"`
	IsHeartbroken bool   `json:"isHeartbroken"`
	Color         string `json:"color"`
	StatusColor   string `json:"statusColor,omitempty"` // set while the player is sick
}

// PlayerRoleMessage carries a player's own role detail, sent only to them.
type PlayerRoleMessage struct {
	Type   string   `json:"type"` // "player_role"
	Player RoleInfo `json:"player"`
}

// GameStartedMessage confirms a game start to its initiator.
type GameStartedMessage struct {
	Type string `json:"type"` // "game_started"
}

// RoundStartedMessage announces a new round to every client.
type RoundStartedMessage struct {
	Type        string `json:"type"` // "round_started"
	RoundNumber int    `json:"roundNumber"`
}

// SickPlayersMessage tells the doctor who fell sick this round.
type SickPlayersMessage struct {
	Type    string          `json:"type"` // "sick_players"
	Players []PlayerSummary `json:"players"`
}

// PlayerCuredMessage confirms a cure selection to the doctor.
type PlayerCuredMessage struct {
	Type       string `json:"type"` // "player_cured"
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// NoPlayerCuredMessage confirms that no cure is pending for this round.
type NoPlayerCuredMessage struct {
	Type string `json:"type"` // "no_player_cured"
}

// RoundEndedMessage announces the end of a round to every client.
type RoundEndedMessage struct {
	Type        string `json:"type"` // "round_ended"
	RoundNumber int    `json:"roundNumber"`
}

// GameOverMessage announces the end of a game. Winner is empty for the
// degenerate everyone-is-dead ending.
type GameOverMessage struct {
	Type          string `json:"type"` // "game_over"
	Winner        string `json:"winner,omitempty"`
	EndedByDoctor bool   `json:"endedByDoctor,omitempty"`
}

// PongMessage answers a keepalive ping.
type PongMessage struct {
	Type string `json:"type"` // "pong"
}
