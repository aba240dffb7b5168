package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu       sync.Mutex
	messages []entity.InboundMessage
	errors   []error
	closes   []error
	failures []error
}

func (r *recorder) register(m *Manager) {
	m.OnMessage(func(msg *entity.InboundMessage) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.messages = append(r.messages, *msg)
	})
	m.OnError(func(err error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.errors = append(r.errors, err)
	})
	m.OnClose(func(err error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.closes = append(r.closes, err)
	})
	m.OnFailure(func(err error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.failures = append(r.failures, err)
	})
}

func (r *recorder) messageCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func (r *recorder) failureCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures)
}

func (r *recorder) closeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.closes)
}

func TestConnectIsIdempotentForSameURL(t *testing.T) {
	m, dialer, _ := newTestManager(t)
	rec := &recorder{}
	rec.register(m)

	require.NoError(t, m.Connect(context.Background(), "wss://host/job1"))
	require.NoError(t, m.Connect(context.Background(), "wss://host/job1"))

	assert.Equal(t, []string{"wss://host/job1"}, dialer.dials())
	assert.True(t, m.IsConnected())

	dialer.conn(0).send(`{"action":"sendMessage","body":1}`)
	require.Eventually(t, func() bool { return rec.messageCount() == 1 }, time.Second, 5*time.Millisecond)

	// no duplicate delivery
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, rec.messageCount())
}

func TestConnectToOtherURLTearsDownFirst(t *testing.T) {
	m, dialer, _ := newTestManager(t)
	rec := &recorder{}
	rec.register(m)

	require.NoError(t, m.Connect(context.Background(), "wss://host/a"))
	require.NoError(t, m.Connect(context.Background(), "wss://host/b"))

	assert.Equal(t, []string{"wss://host/a", "wss://host/b"}, dialer.dials())
	assert.True(t, dialer.conn(0).isClosed())
	assert.False(t, dialer.conn(1).isClosed())
	assert.Equal(t, "wss://host/b", m.URL())

	// closing the old transport is not an unintentional close of the new one
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, rec.closeCount())

	dialer.conn(1).send(`{"status":"complete"}`)
	require.Eventually(t, func() bool { return rec.messageCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestDisconnectClearsHandlers(t *testing.T) {
	m, dialer, sched := newTestManager(t)
	rec := &recorder{}
	rec.register(m)

	require.NoError(t, m.Connect(context.Background(), "wss://host/job1"))
	conn := dialer.conn(0)

	m.Disconnect()

	assert.False(t, m.IsConnected())
	assert.Empty(t, m.URL())
	assert.True(t, conn.isClosed())

	conn.send(`{"action":"sendMessage","body":50}`)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 0, rec.messageCount())
	assert.Equal(t, 0, rec.closeCount())
	assert.Empty(t, sched.scheduled())
}

func TestHandlersAreNotRestoredAfterReconnect(t *testing.T) {
	m, dialer, _ := newTestManager(t)
	rec := &recorder{}
	rec.register(m)

	require.NoError(t, m.Connect(context.Background(), "wss://host/job1"))
	m.Disconnect()
	require.NoError(t, m.Connect(context.Background(), "wss://host/job1"))

	dialer.conn(1).send(`{"action":"sendMessage","body":5}`)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, rec.messageCount())
}

func TestUnsubscribe(t *testing.T) {
	m, dialer, _ := newTestManager(t)

	var mu sync.Mutex
	var first, second int
	unsubscribe := m.OnMessage(func(*entity.InboundMessage) { mu.Lock(); first++; mu.Unlock() })
	m.OnMessage(func(*entity.InboundMessage) { mu.Lock(); second++; mu.Unlock() })

	require.NoError(t, m.Connect(context.Background(), "wss://host/job1"))
	unsubscribe()
	unsubscribe()

	dialer.conn(0).send(`{"status":"x"}`)
	require.Eventually(t, func() bool { mu.Lock(); defer mu.Unlock(); return second == 1 }, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, first)
}

func TestMessagesAreDeliveredInOrder(t *testing.T) {
	m, dialer, _ := newTestManager(t)
	rec := &recorder{}
	rec.register(m)

	require.NoError(t, m.Connect(context.Background(), "wss://host/job1"))
	conn := dialer.conn(0)
	for _, frame := range []string{`{"body":1}`, `{"body":2}`, `{"body":3}`} {
		conn.send(frame)
	}

	require.Eventually(t, func() bool { return rec.messageCount() == 3 }, time.Second, 5*time.Millisecond)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i, msg := range rec.messages {
		assert.JSONEq(t, []string{"1", "2", "3"}[i], string(msg.Body))
	}
}

func TestUnparsableFrameIsDropped(t *testing.T) {
	m, dialer, sched := newTestManager(t)
	rec := &recorder{}
	rec.register(m)

	require.NoError(t, m.Connect(context.Background(), "wss://host/job1"))
	conn := dialer.conn(0)
	conn.send(`not json`)
	conn.send(`{"action":"sendMessage","body":10}`)

	require.Eventually(t, func() bool { return rec.messageCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, m.IsConnected())
	assert.Empty(t, rec.errors)
	assert.Empty(t, sched.scheduled())
}

func TestReconnectBackoffAfterConsecutiveCloses(t *testing.T) {
	m, dialer, sched := newTestManager(t)
	rec := &recorder{}
	rec.register(m)

	require.NoError(t, m.Connect(context.Background(), "wss://host/job1"))

	for i := 0; i < 3; i++ {
		dialer.conn(i).drop()
		sched.waitScheduled(t, i+1)
		sched.fire(i)
		require.Eventually(t, m.IsConnected, time.Second, 5*time.Millisecond)
	}

	// the fourth close exceeds the budget
	dialer.conn(3).drop()
	require.Eventually(t, func() bool { return rec.failureCount() == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second}, sched.scheduled())
	assert.Len(t, dialer.dials(), 4)
	assert.False(t, m.IsConnected())
	assert.Equal(t, 4, rec.closeCount())
	assert.ErrorIs(t, rec.failures[0], ErrReconnectExhausted)
}

func TestReconnectBackoffWhenDialsFail(t *testing.T) {
	m, dialer, sched := newTestManager(t)
	rec := &recorder{}
	rec.register(m)

	require.NoError(t, m.Connect(context.Background(), "wss://host/job1"))
	dialer.failNext(3)
	dialer.conn(0).drop()

	for i := 0; i < 3; i++ {
		sched.waitScheduled(t, i+1)
		sched.fire(i)
	}

	require.Eventually(t, func() bool { return rec.failureCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second}, sched.scheduled())
	assert.Len(t, dialer.dials(), 4)
}

func TestFailedConnectEntersReconnectPolicy(t *testing.T) {
	m, dialer, sched := newTestManager(t)
	rec := &recorder{}
	rec.register(m)

	dialer.failNext(1)
	err := m.Connect(context.Background(), "wss://host/job1")
	require.Error(t, err)

	sched.waitScheduled(t, 1)
	sched.fire(0)

	require.Eventually(t, m.IsConnected, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, rec.closeCount())
}

func TestDisconnectCancelsPendingReconnect(t *testing.T) {
	m, dialer, sched := newTestManager(t)

	require.NoError(t, m.Connect(context.Background(), "wss://host/job1"))
	dialer.conn(0).drop()
	sched.waitScheduled(t, 1)

	m.Disconnect()
	sched.fire(0)

	assert.Len(t, dialer.dials(), 1)
	assert.False(t, m.IsConnected())
	sched.mu.Lock()
	defer sched.mu.Unlock()
	assert.Equal(t, 1, sched.stopped)
}

func TestConnectResetsAttemptCounter(t *testing.T) {
	m, dialer, sched := newTestManager(t)

	require.NoError(t, m.Connect(context.Background(), "wss://host/a"))
	dialer.conn(0).drop()
	sched.waitScheduled(t, 1)
	sched.fire(0)
	require.Eventually(t, m.IsConnected, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Connect(context.Background(), "wss://host/b"))
	dialer.conn(2).drop()
	sched.waitScheduled(t, 2)

	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, sched.scheduled())
}

func TestHandlerMayDisconnect(t *testing.T) {
	m, dialer, _ := newTestManager(t)

	var mu sync.Mutex
	var seen []string
	m.OnMessage(func(msg *entity.InboundMessage) {
		mu.Lock()
		seen = append(seen, msg.Status)
		mu.Unlock()
		if msg.Status == "completed" {
			m.Disconnect()
		}
	})

	require.NoError(t, m.Connect(context.Background(), "wss://host/job1"))
	conn := dialer.conn(0)
	conn.send(`{"status":"completed"}`)
	conn.send(`{"status":"late"}`)

	require.Eventually(t, conn.isClosed, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"completed"}, seen)
}
