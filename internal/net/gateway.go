package net

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/rotclick/server/internal/config"
	"go.uber.org/zap"
)

// Gateway accepts WebSocket connections and shuttles parsed envelopes
// between connection goroutines and the game loop. New/dead clients and
// inbound messages are communicated via channels; the client registries are
// touched only by the game loop, which also implements all sends through
// the notify.Notifier methods below.
type Gateway struct {
	cfg      config.NetworkConfig
	log      *zap.Logger
	listener net.Listener
	httpSrv  *http.Server
	upgrader websocket.Upgrader

	nextID   atomic.Uint64
	connects chan *Client
	dead     chan uint64
	inbound  chan Inbound

	// Game loop only.
	clients  map[uint64]*Client
	byPlayer map[int64]*Client
}

func NewGateway(cfg config.NetworkConfig, log *zap.Logger) (*Gateway, error) {
	ln, err := net.Listen("tcp", cfg.BindAddress)
	if err != nil {
		return nil, err
	}

	gw := &Gateway{
		cfg:      cfg,
		log:      log,
		listener: ln,
		connects: make(chan *Client, 64),
		dead:     make(chan uint64, 64),
		inbound:  make(chan Inbound, cfg.InboundQueueSize),
		clients:  make(map[uint64]*Client),
		byPlayer: make(map[int64]*Client),
	}
	gw.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true // non-browser clients don't send Origin
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			return u.Host == r.Host
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.serveWS)
	gw.httpSrv = &http.Server{Handler: mux}

	return gw, nil
}

// Start serves the listener in its own goroutine.
func (gw *Gateway) Start() {
	go func() {
		if err := gw.httpSrv.Serve(gw.listener); err != nil && err != http.ErrServerClosed {
			gw.log.Error("gateway serve failed", zap.Error(err))
		}
	}()
}

// Addr returns the bound listen address.
func (gw *Gateway) Addr() net.Addr {
	return gw.listener.Addr()
}

// Shutdown stops accepting connections and closes every client.
func (gw *Gateway) Shutdown(ctx context.Context) {
	gw.httpSrv.Shutdown(ctx)
	for _, c := range gw.clients {
		c.Close()
	}
}

func (gw *Gateway) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := gw.upgrader.Upgrade(w, r, nil)
	if err != nil {
		gw.log.Debug("upgrade failed", zap.Error(err))
		return
	}

	id := gw.nextID.Add(1)
	c := newClient(gw, conn, id, extractIP(r))
	go c.readPump()
	go c.writePump()

	gw.log.Info("client connected", zap.Uint64("client", id), zap.String("ip", c.IP))

	select {
	case gw.connects <- c:
	default:
		gw.log.Warn("connect queue full, rejecting client", zap.Uint64("client", id))
		c.Close()
	}
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (gw *Gateway) notifyDead(clientID uint64) {
	select {
	case gw.dead <- clientID:
	default:
	}
}

// Connects returns the channel of newly connected clients.
func (gw *Gateway) Connects() <-chan *Client { return gw.connects }

// Dead returns the channel of closed client IDs.
func (gw *Gateway) Dead() <-chan uint64 { return gw.dead }

// Inbound returns the channel of parsed client messages.
func (gw *Gateway) Inbound() <-chan Inbound { return gw.inbound }

// ==================== Game-loop registry ====================

// Register tracks a connected client. Game loop only.
func (gw *Gateway) Register(c *Client) {
	gw.clients[c.ID] = c
}

// Drop forgets a client and returns it, or nil when unknown. Game loop only.
func (gw *Gateway) Drop(clientID uint64) *Client {
	c, ok := gw.clients[clientID]
	if !ok {
		return nil
	}
	delete(gw.clients, clientID)
	if c.PlayerID != 0 {
		delete(gw.byPlayer, c.PlayerID)
	}
	return c
}

// BindPlayer attaches a player identity to a client after a successful
// join. Game loop only.
func (gw *Gateway) BindPlayer(c *Client, playerID int64, name string) {
	c.PlayerID = playerID
	c.Name = name
	gw.byPlayer[playerID] = c
}

// ClientCount returns the number of tracked connections. Game loop only.
func (gw *Gateway) ClientCount() int { return len(gw.clients) }

// Clients snapshots the tracked connections so callers may drop entries
// while iterating. Game loop only.
func (gw *Gateway) Clients() []*Client {
	out := make([]*Client, 0, len(gw.clients))
	for _, c := range gw.clients {
		out = append(out, c)
	}
	return out
}

// ==================== notify.Notifier ====================

// SendTo buffers a notification for one player. Unknown players (already
// disconnected) are dropped silently — delivery is best-effort.
func (gw *Gateway) SendTo(playerID int64, kind string, data any) {
	c, ok := gw.byPlayer[playerID]
	if !ok {
		return
	}
	c.SendEnvelope(kind, data)
}

// Broadcast buffers a notification for every bound player.
func (gw *Gateway) Broadcast(kind string, data any) {
	if len(gw.byPlayer) == 0 {
		return
	}
	raw, err := json.Marshal(Envelope{T: kind, Data: data})
	if err != nil {
		gw.log.Error("broadcast marshal failed", zap.String("kind", kind), zap.Error(err))
		return
	}
	for _, c := range gw.byPlayer {
		c.Send(raw)
	}
}

// FlushAll drains every client's output buffer. Called once per tick at the
// end of the Output phase. Game loop only.
func (gw *Gateway) FlushAll() {
	for _, c := range gw.clients {
		c.FlushOutput()
	}
}
