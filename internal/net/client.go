package net

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// pingPeriod must be shorter than the pong timeout so the peer always has a
// ping in flight before its read deadline expires.
func pingPeriod(pongTimeout time.Duration) time.Duration {
	return pongTimeout * 9 / 10
}

// Client is a single WebSocket connection. The read/write pumps run in their
// own goroutines; PlayerID, Name and the output buffer are touched only by
// the game loop.
type Client struct {
	ID   uint64
	IP   string
	conn *websocket.Conn
	gw   *Gateway

	// Bound player identity; zero until a join is accepted. Game loop only.
	PlayerID int64
	Name     string

	send   chan []byte
	outBuf [][]byte // buffered envelopes, flushed once per tick (game loop only)

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	// Per-second message rate limiter (readPump goroutine only).
	msgCount   int
	msgResetAt time.Time

	log *zap.Logger
}

func newClient(gw *Gateway, conn *websocket.Conn, id uint64, ip string) *Client {
	return &Client{
		ID:      id,
		IP:      ip,
		conn:    conn,
		gw:      gw,
		send:    make(chan []byte, gw.cfg.SendQueueSize),
		closeCh: make(chan struct{}),
		log:     gw.log.With(zap.Uint64("client", id)),
	}
}

// Send buffers an envelope for this client. Not written to the socket until
// FlushOutput runs at the end of the tick. Game loop only.
func (c *Client) Send(data []byte) {
	if c.closed.Load() {
		return
	}
	c.outBuf = append(c.outBuf, data)
}

// SendEnvelope marshals and buffers a typed envelope. Game loop only.
func (c *Client) SendEnvelope(kind string, payload any) {
	data, err := json.Marshal(Envelope{T: kind, Data: payload})
	if err != nil {
		c.log.Error("envelope marshal failed", zap.String("kind", kind), zap.Error(err))
		return
	}
	c.Send(data)
}

// FlushOutput drains the output buffer into the send channel for writePump.
// Notifications are fire-and-forget: when a slow client's queue is full the
// remaining messages this tick are dropped, and the broadcast sweep re-syncs
// its view later. Game loop only.
func (c *Client) FlushOutput() {
	dropped := 0
	for _, data := range c.outBuf {
		select {
		case c.send <- data:
		default:
			dropped++
		}
	}
	c.outBuf = c.outBuf[:0]
	if dropped > 0 {
		c.log.Debug("slow client, messages dropped", zap.Int("dropped", dropped))
	}
}

// Close signals the connection to shut down. The write pump delivers
// envelopes already queued, sends a close frame and tears the socket down.
// Idempotent, safe from any goroutine.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.closeCh)
	})
}

func (c *Client) IsClosed() bool {
	return c.closed.Load()
}

// readPump reads envelopes from the socket and hands them to the game loop.
// Pushing onto the shared inbound queue blocks only this client's goroutine.
func (c *Client) readPump() {
	defer func() {
		c.Close()
		c.conn.Close()
		c.gw.notifyDead(c.ID)
	}()

	c.conn.SetReadLimit(c.gw.cfg.MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(c.gw.cfg.PongTimeout.Std()))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.gw.cfg.PongTimeout.Std()))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("read error", zap.Error(err))
			}
			return
		}

		// Per-second message cap — the basic rate limit against click spam
		// reaching the loop at all.
		if max := c.gw.cfg.MessagesPerSecond; max > 0 {
			now := time.Now()
			if now.After(c.msgResetAt) {
				c.msgCount = 0
				c.msgResetAt = now.Add(time.Second)
			}
			c.msgCount++
			if c.msgCount > max {
				c.log.Warn("message rate exceeded, disconnecting", zap.Int("mps", c.msgCount))
				return
			}
		}

		var env InEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.log.Debug("malformed envelope", zap.Error(err))
			continue
		}

		select {
		case c.gw.inbound <- Inbound{Client: c, T: env.T, D: env.D}:
		case <-c.closeCh:
			return
		}
	}
}

// writePump drains the send channel to the socket and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod(c.gw.cfg.PongTimeout.Std()))
	defer func() {
		ticker.Stop()
		c.Close()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.gw.cfg.WriteTimeout.Std()))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.gw.cfg.WriteTimeout.Std()))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closeCh:
			// Deliver what was queued before shutdown so a final error or
			// kick envelope still reaches the peer.
			c.drainSend()
			c.conn.SetWriteDeadline(time.Now().Add(c.gw.cfg.WriteTimeout.Std()))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) drainSend() {
	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.gw.cfg.WriteTimeout.Std()))
			if c.conn.WriteMessage(websocket.TextMessage, data) != nil {
				return
			}
		default:
			return
		}
	}
}
