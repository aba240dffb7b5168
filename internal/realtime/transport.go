package realtime

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/futig/docgen-gateway/internal/config"
	"github.com/gorilla/websocket"
)

// Conn is one open transport to a generation job
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer opens transports
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials generation jobs over gorilla/websocket
type WebsocketDialer struct {
	dialer   *websocket.Dialer
	readLim  int64
	pongWait time.Duration
}

func NewWebsocketDialer(cfg config.RealtimeConfig) *WebsocketDialer {
	return &WebsocketDialer{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		readLim:  cfg.ReadLimit,
		pongWait: cfg.PongWait,
	}
}

func (d *WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: handshake status %d: %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	if d.readLim > 0 {
		conn.SetReadLimit(d.readLim)
	}

	// Jobs may stay silent for a long time. The client owns the keepalive: it pings every
	// pingPeriod and any pong, ping or frame from the server moves the read deadline.
	if d.pongWait > 0 {
		return newKeepaliveConn(conn, d.pongWait), nil
	}

	return conn, nil
}

const controlWriteWait = 5 * time.Second

// keepaliveConn pings the server and extends the read deadline on every sign of life
type keepaliveConn struct {
	*websocket.Conn
	pongWait time.Duration

	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func newKeepaliveConn(conn *websocket.Conn, pongWait time.Duration) *keepaliveConn {
	c := &keepaliveConn{
		Conn:     conn,
		pongWait: pongWait,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(controlWriteWait))
	})

	go c.pingLoop(max(pongWait/2, time.Millisecond))
	return c
}

func (c *keepaliveConn) pingLoop(period time.Duration) {
	defer close(c.stopped)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			// A failed ping means the socket is gone; the reader sees that on its next read.
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(controlWriteWait)); err != nil {
				return
			}
		}
	}
}

func (c *keepaliveConn) ReadMessage() (int, []byte, error) {
	messageType, p, err := c.Conn.ReadMessage()
	if err == nil {
		c.Conn.SetReadDeadline(time.Now().Add(c.pongWait))
	}
	return messageType, p, err
}

// Close stops the ping loop before closing the socket
func (c *keepaliveConn) Close() error {
	c.stopOnce.Do(func() { close(c.done) })
	<-c.stopped
	return c.Conn.Close()
}

// isCleanClose reports whether err is a normal websocket close rather than a transport failure
func isCleanClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
