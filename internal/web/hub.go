// Package web streams simulation snapshots to browsers over websockets.
package web

import (
	"context"
	_ "embed"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"

	"github.com/tomz197/seaspot/internal/config"
	"github.com/tomz197/seaspot/internal/sim"
	"github.com/tomz197/seaspot/internal/wire"
)

//go:embed index.html
var htmlPage string

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// Hub fans the latest snapshot out to every connected websocket.
type Hub struct {
	server     sim.SeaServer
	logger     *log.Logger
	sshCommand string
	frameTime  time.Duration
	maxClients int

	mu      sync.Mutex
	clients map[*client]struct{}
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(logger *log.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithSSHCommand sets the command shown on the page and encoded in the QR code.
func WithSSHCommand(cmd string) Option {
	return func(h *Hub) {
		h.sshCommand = cmd
	}
}

// WithFrameTime sets the broadcast interval.
func WithFrameTime(d time.Duration) Option {
	return func(h *Hub) {
		h.frameTime = d
	}
}

// WithMaxClients caps concurrent websocket connections.
func WithMaxClients(n int) Option {
	return func(h *Hub) {
		h.maxClients = n
	}
}

// NewHub creates a hub streaming snapshots from server.
func NewHub(server sim.SeaServer, opts ...Option) *Hub {
	h := &Hub{
		server:     server,
		logger:     log.Default(),
		frameTime:  config.WebFrameTime,
		maxClients: config.WebMaxConnections,
		clients:    make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ClientCount returns the number of connected websockets.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Routes returns the HTTP handlers: the page at /, the stream at /ws and the QR code at /qr.png.
func (h *Hub) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		page := strings.ReplaceAll(htmlPage, "{{.SSHCommand}}", h.sshCommand)
		fmt.Fprint(w, page)
	})

	mux.HandleFunc("/qr.png", func(w http.ResponseWriter, r *http.Request) {
		if h.sshCommand == "" {
			http.NotFound(w, r)
			return
		}
		png, err := qrcode.Encode(h.sshCommand, qrcode.Medium, 256)
		if err != nil {
			h.logger.Error("qr encode failed", "err", err)
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	mux.HandleFunc("/ws", h.serveWS)

	return mux
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	if h.ClientCount() >= h.maxClients {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "err", err)
		return
	}

	ip := extractIP(r)
	c := &client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: ip,
		withGrid:   r.URL.Query().Get("grid") == "1",
		viewer:     h.server.RegisterViewer("web " + ip),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("web viewer connected", "addr", ip, "grid", c.withGrid)

	go c.writePump()
	go c.readPump()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()

	h.server.UnregisterViewer(c.viewer.ID)
	h.logger.Info("web viewer disconnected", "addr", c.remoteAddr)
}

// Run broadcasts a frame every frame interval until the context is cancelled.
// Frames are only encoded when the snapshot changed.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.frameTime)
	defer ticker.Stop()

	var lastTick uint64
	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		snap := h.server.GetSnapshot()
		if !first && snap.Tick == lastTick {
			continue
		}
		first = false
		lastTick = snap.Tick

		h.broadcast(snap)
	}
}

func (h *Hub) broadcast(snap *sim.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		return
	}

	// Lazily encode each variant once per frame
	var frames [2][]byte
	for c := range h.clients {
		v := 0
		if c.withGrid {
			v = 1
		}
		if frames[v] == nil {
			data, err := wire.Encode(snap, c.withGrid)
			if err != nil {
				h.logger.Error("frame encode failed", "err", err)
				return
			}
			frames[v] = data
		}
		c.trySend(frames[v])
	}
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
