package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/futig/docgen-gateway/internal/config"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errConnClosed = errors.New("use of closed network connection")

type fakeConn struct {
	frames chan []byte
	errs   chan error
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 16),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case <-c.closed:
		return 0, nil, errConnClosed
	default:
	}

	select {
	case f := <-c.frames:
		return websocket.TextMessage, f, nil
	case err := <-c.errs:
		return 0, nil, err
	case <-c.closed:
		return 0, nil, errConnClosed
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) send(frame string) {
	c.frames <- []byte(frame)
}

func (c *fakeConn) drop() {
	c.errs <- errors.New("connection reset by peer")
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
	mu    sync.Mutex
	urls  []string
	conns []*fakeConn
	fail  int
}

func (d *fakeDialer) Dial(_ context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.urls = append(d.urls, url)
	if d.fail > 0 {
		d.fail--
		return nil, fmt.Errorf("dial %s: connection refused", url)
	}

	conn := newFakeConn()
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) failNext(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = n
}

func (d *fakeDialer) dials() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[i]
}

// manualScheduler records reconnect delays and fires them on demand
type manualScheduler struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []func()
	stopped int
}

func (s *manualScheduler) schedule(d time.Duration, f func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.delays = append(s.delays, d)
	idx := len(s.pending)
	s.pending = append(s.pending, f)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.pending[idx] == nil {
			return false
		}
		s.pending[idx] = nil
		s.stopped++
		return true
	}
}

func (s *manualScheduler) scheduled() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func (s *manualScheduler) waitScheduled(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(s.scheduled()) >= n }, time.Second, 5*time.Millisecond)
}

// fire runs the i-th scheduled callback on the calling goroutine
func (s *manualScheduler) fire(i int) {
	s.mu.Lock()
	f := s.pending[i]
	s.pending[i] = nil
	s.mu.Unlock()

	if f != nil {
		f()
	}
}

func testRealtimeConfig() config.RealtimeConfig {
	return config.RealtimeConfig{
		MaxReconnectAttempts: 3,
		ReconnectBaseDelay:   2 * time.Second,
	}
}

func newTestManager(t *testing.T) (*Manager, *fakeDialer, *manualScheduler) {
	t.Helper()

	dialer := &fakeDialer{}
	sched := &manualScheduler{}
	m := NewManager(testRealtimeConfig(), dialer, zap.NewNop(), WithScheduler(sched.schedule))
	t.Cleanup(m.Disconnect)

	return m, dialer, sched
}
