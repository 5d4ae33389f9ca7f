package main

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

func getFavicon() string {
	return `<link rel="icon" href="data:image/svg+xml,<svg xmlns=%22http://www.w3.org/2000/svg%22 viewBox=%220 0 100 100%22><text y=%22.9em%22 font-size=%2290%22>🦠</text></svg>">
	<meta name="theme-color" content="#ffffff">`
}

// Minimal built-in client for quick testing; real deployments are expected
// to sit a proper frontend bundle behind a reverse proxy instead.
const indexHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Plaguebox</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 2rem; max-width: 40rem; }
  h1 { margin-bottom: 0.5rem; }
  #status { margin-bottom: 1rem; font-size: 0.9rem; }
  #players { padding: 0; list-style: none; }
  #players li { padding: 0.25rem 0; border-bottom: 1px solid #ddd; }
  #role { margin: 1rem 0; font-weight: bold; }
  button { margin-right: 0.5rem; margin-bottom: 0.5rem; }
</style>
</head>
<body>
<h1>Plaguebox</h1>
<div id="status">Connecting…</div>
<div id="role"></div>
<ul id="players"></ul>
<div>
  <button onclick="send({type:'ready'})">Ready</button>
  <button onclick="send({type:'unready'})">Unready</button>
  <button onclick="send({type:'start_game'})">Start game</button>
  <button onclick="send({type:'mark_dead'})">I died</button>
</div>
<div>
  <button onclick="send({type:'start_round'})">Start round</button>
  <button onclick="send({type:'cure_player',playerId:prompt('Cure which player id?')||''})">Cure</button>
  <button onclick="send({type:'end_round'})">End round</button>
  <button onclick="send({type:'end_game'})">End game</button>
</div>

<script>
(function() {
  const statusEl = document.getElementById('status');
  const playersEl = document.getElementById('players');
  const roleEl = document.getElementById('role');

  const proto = (location.protocol === 'https:') ? 'wss://' : 'ws://';
  const wsPath = location.pathname.replace(/\/$/, '') + '/ws';
  const ws = new WebSocket(proto + location.host + wsPath);

  window.send = function(msg) { ws.send(JSON.stringify(msg)); };

  ws.onopen = function() {
    statusEl.textContent = 'Connected.';

    const playerId = localStorage.getItem('playerId');
    const playerName = localStorage.getItem('playerName');
    if (playerId && playerName) {
      send({
        type: 'reconnect',
        playerId: playerId,
        playerName: playerName,
        gameId: localStorage.getItem('gameId') || ''
      });
      return;
    }

    const name = prompt('Enter your name:') || '';
    if (name) {
      localStorage.setItem('playerName', name);
      send({ type: 'join', name: name });
    }
  };

  ws.onmessage = function(event) {
    const msg = JSON.parse(event.data);

    switch (msg.type) {
    case 'joined':
      localStorage.setItem('playerId', msg.playerId);
      break;
    case 'game_id_mismatch':
      localStorage.removeItem('playerId');
      localStorage.setItem('gameId', msg.currentGameId);
      location.reload();
      break;
    case 'lobby_state':
      localStorage.setItem('gameId', msg.gameId);
      playersEl.innerHTML = '';
      msg.players.forEach(function(p) {
        const li = document.createElement('li');
        li.textContent = p.name + ' — ' + p.status + (p.role ? ' (' + p.role + ')' : '');
        playersEl.appendChild(li);
      });
      break;
    case 'player_role':
      roleEl.textContent = 'Your role: ' + msg.player.role;
      roleEl.style.color = msg.player.color;
      break;
    case 'game_over':
      roleEl.textContent = msg.winner ? ('Game over, winner: ' + msg.winner) : 'Game over';
      roleEl.style.color = '';
      break;
    case 'error':
      statusEl.textContent = msg.message;
      break;
    }
  };

  ws.onclose = function() { statusEl.textContent = 'Disconnected.'; };

  setInterval(function() {
    if (ws.readyState === WebSocket.OPEN) send({ type: 'ping' });
  }, 30000);
})();
</script>
</body>
</html>
`

func serveLobbyPage(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write([]byte(indexHTML))
	}
}
