package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/futig/docgen-gateway/internal/config"
	"github.com/futig/docgen-gateway/internal/entity"
	pkgRetry "github.com/futig/docgen-gateway/internal/pkg/retry"
	"go.uber.org/zap"
)

// ErrReconnectExhausted is passed to failure handlers once the reconnect budget is spent
var ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

type (
	MessageHandler func(msg *entity.InboundMessage)
	ErrorHandler   func(err error)
	CloseHandler   func(err error)
	FailureHandler func(err error)
)

// Scheduler runs f after d and returns a function that cancels it
type Scheduler func(d time.Duration, f func()) (stop func() bool)

func timeScheduler(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

type Option func(*Manager)

// WithScheduler replaces the timer used for reconnect delays
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) {
		m.schedule = s
	}
}

// Manager owns a single logical real-time connection and hides reconnects from its callers.
//
// Handlers run one at a time on the connection's read goroutine, in delivery order.
// Disconnect clears every handler before the transport is closed, so a frame that
// arrives during the close is never dispatched.
type Manager struct {
	dialer      Dialer
	schedule    Scheduler
	delay       retry.DelayTypeFunc
	maxAttempts int
	logger      *zap.Logger

	mu          sync.Mutex
	url         string
	conn        Conn
	dialing     bool
	epoch       uint64
	intentional bool
	attempts    int
	stopTimer   func() bool

	nextID    uint64
	onMessage map[uint64]MessageHandler
	onError   map[uint64]ErrorHandler
	onClose   map[uint64]CloseHandler
	onFailure map[uint64]FailureHandler
}

func NewManager(cfg config.RealtimeConfig, dialer Dialer, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		dialer:      dialer,
		schedule:    timeScheduler,
		delay:       pkgRetry.LinearDelay(cfg.ReconnectBaseDelay),
		maxAttempts: cfg.MaxReconnectAttempts,
		logger:      logger,
	}
	m.clearHandlersLocked()

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Connect opens a connection to url. It is a no-op when the manager is already
// connected (or connecting) to the same url; a connection to another url is torn down first.
// A failed dial is treated like an unintentional close and enters the reconnect policy.
func (m *Manager) Connect(ctx context.Context, url string) error {
	m.mu.Lock()
	if m.url == url && (m.conn != nil || m.dialing) {
		m.mu.Unlock()
		return nil
	}

	old := m.teardownLocked()
	m.url = url
	m.intentional = false
	m.attempts = 0
	m.dialing = true
	epoch := m.epoch
	m.mu.Unlock()

	if old != nil {
		m.logger.Debug("closing previous connection before connecting", zap.String("url", url))
		old.Close()
	}

	m.logger.Info("connecting to generation job", zap.String("url", url))

	conn, err := m.dialer.Dial(ctx, url)
	if err != nil {
		m.mu.Lock()
		current := m.epoch == epoch
		if current {
			m.dialing = false
		}
		m.mu.Unlock()

		if current {
			m.logger.Warn("failed to connect to generation job", zap.String("url", url), zap.Error(err))
			go m.handleClosed(epoch, err)
		}
		return fmt.Errorf("connect %s: %w", url, err)
	}

	if !m.attach(epoch, conn) {
		conn.Close()
		return nil
	}

	return nil
}

// Disconnect closes the connection on purpose: pending reconnects are cancelled
// and every registered handler is dropped. Callers must register handlers again
// before the next Connect.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.intentional = true
	conn := m.teardownLocked()
	m.url = ""
	m.clearHandlersLocked()
	m.mu.Unlock()

	if conn != nil {
		m.logger.Info("disconnecting from generation job")
		if err := conn.Close(); err != nil {
			m.logger.Debug("close transport", zap.Error(err))
		}
	}
}

// IsConnected reports whether the transport is open
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.conn != nil
}

// URL returns the url of the current logical connection, empty when there is none
func (m *Manager) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.url
}

func (m *Manager) OnMessage(h MessageHandler) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextHandlerIDLocked()
	m.onMessage[id] = h
	return func() { m.remove(func() { delete(m.onMessage, id) }) }
}

func (m *Manager) OnError(h ErrorHandler) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextHandlerIDLocked()
	m.onError[id] = h
	return func() { m.remove(func() { delete(m.onError, id) }) }
}

func (m *Manager) OnClose(h CloseHandler) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextHandlerIDLocked()
	m.onClose[id] = h
	return func() { m.remove(func() { delete(m.onClose, id) }) }
}

// OnFailure registers a handler fired once the reconnect budget is exhausted
func (m *Manager) OnFailure(h FailureHandler) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextHandlerIDLocked()
	m.onFailure[id] = h
	return func() { m.remove(func() { delete(m.onFailure, id) }) }
}

func (m *Manager) remove(del func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	del()
}

func (m *Manager) nextHandlerIDLocked() uint64 {
	m.nextID++
	return m.nextID
}

func (m *Manager) clearHandlersLocked() {
	m.onMessage = make(map[uint64]MessageHandler)
	m.onError = make(map[uint64]ErrorHandler)
	m.onClose = make(map[uint64]CloseHandler)
	m.onFailure = make(map[uint64]FailureHandler)
}

// teardownLocked invalidates the current transport and any pending reconnect.
// The returned conn, if any, must be closed outside the lock.
func (m *Manager) teardownLocked() Conn {
	m.epoch++
	m.dialing = false
	if m.stopTimer != nil {
		m.stopTimer()
		m.stopTimer = nil
	}

	conn := m.conn
	m.conn = nil
	return conn
}

// attach makes conn the live transport if no Connect/Disconnect happened since epoch was taken
func (m *Manager) attach(epoch uint64, conn Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch || m.intentional {
		return false
	}

	m.dialing = false
	m.conn = conn
	go m.readLoop(epoch, conn)
	return true
}

func (m *Manager) isCurrent(epoch uint64, conn Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.epoch == epoch && m.conn == conn
}

func (m *Manager) readLoop(epoch uint64, conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.mu.Lock()
			current := m.epoch == epoch && m.conn == conn
			if current {
				m.conn = nil
			}
			m.mu.Unlock()

			if current {
				conn.Close()
				m.handleClosed(epoch, err)
			}
			return
		}

		var msg entity.InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			m.logger.Warn("dropping unparsable frame", zap.Error(err), zap.Int("size", len(data)))
			continue
		}

		m.dispatch(epoch, conn, &msg)
	}
}

func (m *Manager) dispatch(epoch uint64, conn Conn, msg *entity.InboundMessage) {
	m.mu.Lock()
	if m.epoch != epoch || m.conn != conn {
		m.mu.Unlock()
		return
	}
	handlers := make([]MessageHandler, 0, len(m.onMessage))
	for _, h := range m.onMessage {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	for _, h := range handlers {
		// A handler may disconnect; the rest of this frame is then dropped too.
		if !m.isCurrent(epoch, conn) {
			return
		}
		h(msg)
	}
}

// handleClosed notifies handlers about an unintentional close or failed dial and
// schedules the next reconnect attempt.
func (m *Manager) handleClosed(epoch uint64, cause error) {
	m.mu.Lock()
	if m.epoch != epoch || m.intentional {
		m.mu.Unlock()
		return
	}
	errHandlers := make([]ErrorHandler, 0, len(m.onError))
	if !isCleanClose(cause) {
		for _, h := range m.onError {
			errHandlers = append(errHandlers, h)
		}
	}
	closeHandlers := make([]CloseHandler, 0, len(m.onClose))
	for _, h := range m.onClose {
		closeHandlers = append(closeHandlers, h)
	}
	m.mu.Unlock()

	for _, h := range errHandlers {
		h(cause)
	}
	for _, h := range closeHandlers {
		h(cause)
	}

	m.scheduleReconnect(epoch, cause)
}

func (m *Manager) scheduleReconnect(epoch uint64, cause error) {
	m.mu.Lock()
	if m.epoch != epoch || m.intentional {
		m.mu.Unlock()
		return
	}

	if m.attempts >= m.maxAttempts {
		url := m.url
		handlers := make([]FailureHandler, 0, len(m.onFailure))
		for _, h := range m.onFailure {
			handlers = append(handlers, h)
		}
		m.mu.Unlock()

		m.logger.Error("giving up on generation job connection",
			zap.String("url", url),
			zap.Int("attempts", m.maxAttempts),
			zap.Error(cause),
		)
		failure := fmt.Errorf("%w: %v", ErrReconnectExhausted, cause)
		for _, h := range handlers {
			h(failure)
		}
		return
	}

	m.attempts++
	attempt := m.attempts
	wait := m.delay(uint(attempt-1), cause, nil)
	m.stopTimer = m.schedule(wait, func() { m.reconnect(epoch) })
	url := m.url
	m.mu.Unlock()

	m.logger.Warn("generation job connection closed, reconnecting",
		zap.String("url", url),
		zap.Int("attempt", attempt),
		zap.Int("max_attempts", m.maxAttempts),
		zap.Duration("retry_in", wait),
		zap.Error(cause),
	)
}

func (m *Manager) reconnect(epoch uint64) {
	m.mu.Lock()
	if m.epoch != epoch || m.intentional {
		m.mu.Unlock()
		return
	}
	m.stopTimer = nil
	m.dialing = true
	url := m.url
	m.mu.Unlock()

	conn, err := m.dialer.Dial(context.Background(), url)
	if err != nil {
		m.mu.Lock()
		current := m.epoch == epoch
		if current {
			m.dialing = false
		}
		m.mu.Unlock()

		if current {
			m.handleClosed(epoch, err)
		}
		return
	}

	if !m.attach(epoch, conn) {
		conn.Close()
		return
	}

	m.logger.Info("reconnected to generation job", zap.String("url", url))
}
