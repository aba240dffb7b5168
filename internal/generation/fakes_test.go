package generation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/futig/docgen-gateway/internal/config"
	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/futig/docgen-gateway/internal/realtime"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// transportLog records dials and closes in the order they happen
type transportLog struct {
	mu     sync.Mutex
	events []string
}

func (l *transportLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *transportLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeConn struct {
	url    string
	log    *transportLog
	frames chan []byte
	errs   chan error
	closed chan struct{}
	once   sync.Once
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case <-c.closed:
		return 0, nil, errors.New("use of closed network connection")
	default:
	}

	select {
	case f := <-c.frames:
		return websocket.TextMessage, f, nil
	case err := <-c.errs:
		return 0, nil, err
	case <-c.closed:
		return 0, nil, errors.New("use of closed network connection")
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() {
		c.log.add("close " + c.url)
		close(c.closed)
	})
	return nil
}

func (c *fakeConn) send(frame string) {
	c.frames <- []byte(frame)
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type fakeDialer struct {
	log   transportLog
	mu    sync.Mutex
	conns map[string][]*fakeConn
	fail  bool
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{conns: make(map[string][]*fakeConn)}
}

func (d *fakeDialer) Dial(_ context.Context, url string) (realtime.Conn, error) {
	d.log.add("dial " + url)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return nil, fmt.Errorf("dial %s: connection refused", url)
	}

	conn := &fakeConn{
		url:    url,
		log:    &d.log,
		frames: make(chan []byte, 16),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}
	d.conns[url] = append(d.conns[url], conn)
	return conn, nil
}

// latest returns the most recent transport dialed for url
func (d *fakeDialer) latest(t *testing.T, url string) *fakeConn {
	t.Helper()

	d.mu.Lock()
	defer d.mu.Unlock()
	conns := d.conns[url]
	require.NotEmpty(t, conns, "no transport dialed for %s", url)
	return conns[len(conns)-1]
}

func (d *fakeDialer) setFail(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = fail
}

type recordingSink struct {
	mu     sync.Mutex
	events []entity.GenerationEvent
}

func (s *recordingSink) Publish(_ context.Context, event entity.GenerationEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) list() []entity.GenerationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.GenerationEvent(nil), s.events...)
}

// noTimers never fires reconnects
func noTimers(time.Duration, func()) func() bool {
	return func() bool { return true }
}

func newTestSession(t *testing.T, spec DocumentSpec, maxAttempts int) (*Session, *fakeDialer, *recordingSink) {
	t.Helper()

	dialer := newFakeDialer()
	sink := &recordingSink{}
	cfg := config.RealtimeConfig{MaxReconnectAttempts: maxAttempts, ReconnectBaseDelay: 2 * time.Second}

	session, err := NewSession(spec, cfg, dialer, sink, "user-1", zap.NewNop(), realtime.WithScheduler(noTimers))
	require.NoError(t, err)
	t.Cleanup(session.Close)

	return session, dialer, sink
}
