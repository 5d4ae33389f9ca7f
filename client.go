package main

import (
	"crypto/rand"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// Client is one websocket connection. Outbound messages go through the
// buffered send channel drained by writePump, so delivery to one client
// never blocks a handler.
type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string // bound by join/reconnect, empty until then
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// register adds a connection to the lobby and immediately sends it the
// current public snapshot.
func (l *Lobby) register(c *Client) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touchLocked()

	l.clients[c] = true
	l.sendLocked(c, l.lobbyStateLocked())
}

// unregister drops a connection. A player bound to it keeps their slot
// for the reconnect grace window rather than being removed outright.
func (l *Lobby) unregister(c *Client) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touchLocked()

	if _, ok := l.clients[c]; ok {
		delete(l.clients, c)
		close(c.send)
	}

	if c.playerID == "" {
		return
	}
	if player, ok := l.players[c.playerID]; ok && player.client == c {
		player.client = nil
		l.markDisconnectedLocked(c.playerID)
	}
}

// closeAllClients disconnects every client of this lobby (used by the reaper).
func (l *Lobby) closeAllClients() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for c := range l.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(l.clients, c)
	}
}

func (c *Client) readPump(l *Lobby) {
	defer func() {
		l.unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		l.dispatch(c, raw)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// LobbyManager holds the set of lobbies keyed by lobby id, so each
// $path/$lobbyid is its own isolated party.
type LobbyManager struct {
	cfg         *Config
	mu          sync.Mutex
	lobbies     map[string]*Lobby
	idleTimeout time.Duration
}

func newLobbyManager(cfg *Config) *LobbyManager {
	lm := &LobbyManager{
		cfg:         cfg,
		lobbies:     make(map[string]*Lobby),
		idleTimeout: cfg.sessionTimeout,
	}
	if lm.idleTimeout > 0 {
		go lm.reaperLoop()
	}
	return lm
}

func (lm *LobbyManager) getLobby(lobbyID string) *Lobby {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if lobby, ok := lm.lobbies[lobbyID]; ok {
		return lobby
	}

	lobby := newLobby(lm.cfg, lobbyID)
	lm.lobbies[lobbyID] = lobby
	return lobby
}

// newLobbyID generates a crypto-random lobby id and ensures it doesn't
// collide with existing lobbies.
func (lm *LobbyManager) newLobbyID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		lm.mu.Lock()
		_, exists := lm.lobbies[id]
		lm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes lobbies that have been idle longer
// than idleTimeout.
func (lm *LobbyManager) reaperLoop() {
	ticker := time.NewTicker(lm.idleTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-lm.idleTimeout)

		lm.mu.Lock()
		for id, lobby := range lm.lobbies {
			lobby.mu.Lock()
			last := lobby.lastActive
			lobby.mu.Unlock()

			if last.Before(cutoff) {
				delete(lm.lobbies, id)
				logf(lm.cfg, "GAMES: Reaped idle lobby %s", id)
				go lobby.closeAllClients()
			}
		}
		lm.mu.Unlock()
	}
}

// serveWSForManager upgrades the connection and attaches it to the
// lobby named by :lobbyid.
func serveWSForManager(cfg *Config, lm *LobbyManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		lobbyID := ps.ByName("lobbyid")
		if lobbyID == "" {
			http.Error(w, "missing lobby id", http.StatusBadRequest)
			return
		}

		lobby := lm.getLobby(lobbyID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 32),
		}

		lobby.register(client)

		go client.writePump()
		client.readPump(lobby)
	}
}

// redirectNewLobby handles GET $path by generating a new random lobby id
// and redirecting to $path/:lobbyid.
func redirectNewLobby(cfg *Config, path string, lm *LobbyManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		lobbyID := lm.newLobbyID()
		logf(cfg, "GAMES: Created lobby %s/%s", path, lobbyID)
		http.Redirect(w, r, path+"/"+lobbyID, http.StatusTemporaryRedirect)
	}
}

func redirectToPath(path string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		http.Redirect(w, r, path, http.StatusTemporaryRedirect)
	}
}

// registerPartyGame sets up routes so that:
//   - $path             → redirects to a new random lobby (8-char id)
//   - $path/:lobbyid    → HTML client
//   - $path/:lobbyid/ws → WebSocket for that lobby
//   - $path/:lobbyid/qr → PNG QR code for that lobby URL
func registerPartyGame(cfg *Config, path string, mux *httprouter.Router) {
	lm := newLobbyManager(cfg)

	mux.GET(cfg.prefix+path, redirectNewLobby(cfg, cfg.prefix+path, lm))

	mux.GET(cfg.prefix+path+"/:lobbyid", serveLobbyPage(cfg))

	mux.GET(cfg.prefix+path+"/:lobbyid/ws", serveWSForManager(cfg, lm))

	mux.GET(cfg.prefix+path+"/:lobbyid/qr", qrHandler)
}
