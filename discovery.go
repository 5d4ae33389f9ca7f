package main

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// localIP derives the LAN-facing address of this host, so that a lobby URL
// can be shared with phones on the same network. The dial never actually
// sends a packet.
func localIP() string {
	conn, err := net.Dial("udp", "192.0.2.1:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()

	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

func logShareableURL(cfg *Config) {
	host := cfg.bind
	if host == "0.0.0.0" || host == "::" {
		host = localIP()
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	logf(cfg, "SHARE: Point phones at %s://%s%s/party",
		cfg.scheme(),
		net.JoinHostPort(host, strconv.Itoa(cfg.port)),
		cfg.prefix,
	)
}

// qrHandler generates a PNG QR code for the current lobby URL.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	lobbyID := ps.ByName("lobbyid")
	if lobbyID == "" {
		http.Error(w, "missing lobby id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:lobbyid/qr; strip trailing "/qr" to get the lobby URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}
