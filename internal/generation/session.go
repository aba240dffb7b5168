package generation

import (
	"sync"

	"github.com/futig/docgen-gateway/internal/config"
	"github.com/futig/docgen-gateway/internal/realtime"
	"go.uber.org/zap"
)

// Session wires one document type's store, connection and bridge together
type Session struct {
	Spec   DocumentSpec
	Store  *Store
	Conn   *realtime.Manager
	Bridge *Bridge

	mu       sync.Mutex
	starting bool
}

// NewSession builds a started session with its own connection manager
func NewSession(
	spec DocumentSpec,
	cfg config.RealtimeConfig,
	dialer realtime.Dialer,
	sink EventSink,
	userID string,
	logger *zap.Logger,
	opts ...realtime.Option,
) (*Session, error) {
	store := NewStore(spec)
	conn := realtime.NewManager(cfg, dialer, logger.With(zap.String("document_type", string(spec.Type))), opts...)

	bridge, err := NewBridge(spec, store, conn, sink, userID, logger)
	if err != nil {
		return nil, err
	}
	bridge.Start()

	return &Session{
		Spec:   spec,
		Store:  store,
		Conn:   conn,
		Bridge: bridge,
	}, nil
}

// Close stops the bridge and closes the connection
func (s *Session) Close() {
	s.Bridge.Stop()
}

// BeginStart claims the session for one job start. It returns false while another start is in
// flight; the caller that got true must call EndStart.
func (s *Session) BeginStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.starting {
		return false
	}
	s.starting = true
	return true
}

func (s *Session) EndStart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.starting = false
}
