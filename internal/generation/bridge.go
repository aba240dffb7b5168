package generation

import (
	"context"
	"regexp"
	"sync"

	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/futig/docgen-gateway/internal/realtime"
	"go.uber.org/zap"
)

// Connection is the part of realtime.Manager a bridge drives
type Connection interface {
	Connect(ctx context.Context, url string) error
	Disconnect()
	URL() string
	OnMessage(h realtime.MessageHandler) (unsubscribe func())
	OnError(h realtime.ErrorHandler) (unsubscribe func())
	OnClose(h realtime.CloseHandler) (unsubscribe func())
	OnFailure(h realtime.FailureHandler) (unsubscribe func())
}

// EventSink receives generation lifecycle events
type EventSink interface {
	Publish(ctx context.Context, event entity.GenerationEvent)
}

// Bridge keeps the connection of one document type in line with its store:
// it connects while the session is generating on a URL it accepts and feeds
// classified frames back into the store.
type Bridge struct {
	spec    DocumentSpec
	pattern *regexp.Regexp
	store   *Store
	conn    Connection
	sink    EventSink
	userID  string
	logger  *zap.Logger

	mu               sync.Mutex
	lastURL          string
	lastGenerating   bool
	currentURL       string
	unsubscribers    []func()
	unsubscribeStore func()
}

func NewBridge(spec DocumentSpec, store *Store, conn Connection, sink EventSink, userID string, logger *zap.Logger) (*Bridge, error) {
	pattern, err := spec.compilePattern()
	if err != nil {
		return nil, err
	}

	return &Bridge{
		spec:    spec,
		pattern: pattern,
		store:   store,
		conn:    conn,
		sink:    sink,
		userID:  userID,
		logger:  logger.With(zap.String("document_type", string(spec.Type))),
	}, nil
}

// Start subscribes the bridge to its store and applies the current state
func (b *Bridge) Start() {
	b.mu.Lock()
	if b.unsubscribeStore != nil {
		b.mu.Unlock()
		return
	}
	b.unsubscribeStore = b.store.Subscribe(func(Status) { b.sync() })
	b.mu.Unlock()

	b.sync()
}

// Stop detaches the bridge from its store and closes the connection
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.unsubscribeStore != nil {
		b.unsubscribeStore()
		b.unsubscribeStore = nil
	}
	b.teardownLocked()
	b.lastURL, b.lastGenerating = "", false
}

func (b *Bridge) isRelevant(url string) bool {
	if url == "" {
		return false
	}
	return b.pattern == nil || b.pattern.MatchString(url)
}

// sync runs whenever the store changes. It reads the latest status under the bridge lock,
// so notifications delivered out of order never act on stale state.
func (b *Bridge) sync() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.unsubscribeStore == nil {
		return
	}

	st := b.store.Status()
	if st.ConnectionURL == b.lastURL && st.IsGenerating == b.lastGenerating {
		return
	}
	wasGenerating := b.lastGenerating
	b.lastURL, b.lastGenerating = st.ConnectionURL, st.IsGenerating

	if !st.IsGenerating {
		if wasGenerating {
			b.logger.Debug("generation stopped, closing connection")
			b.teardownLocked()
		}
		return
	}

	if !b.isRelevant(st.ConnectionURL) {
		if b.conn.URL() != "" {
			b.logger.Debug("connection url belongs to another document type, closing connection",
				zap.String("url", st.ConnectionURL))
			b.teardownLocked()
		}
		return
	}

	if st.CompletionReceived {
		return
	}

	url := st.ConnectionURL
	if current := b.conn.URL(); current != "" && current != url {
		b.logger.Info("connection url changed, closing previous connection",
			zap.String("previous_url", current), zap.String("url", url))
		b.teardownLocked()
	}

	if b.currentURL == url && b.conn.URL() == url {
		return
	}

	b.unsubscribeLocked()
	b.unsubscribers = []func(){
		b.conn.OnMessage(b.handleMessage(url)),
		b.conn.OnError(b.handleError(url)),
		b.conn.OnClose(b.handleClose(url)),
		b.conn.OnFailure(b.handleFailure(url)),
	}
	b.currentURL = url

	if err := b.conn.Connect(context.Background(), url); err != nil {
		b.logger.Warn("failed to open generation connection", zap.String("url", url), zap.Error(err))
	}
}

func (b *Bridge) unsubscribeLocked() {
	for _, unsubscribe := range b.unsubscribers {
		unsubscribe()
	}
	b.unsubscribers = nil
}

func (b *Bridge) teardownLocked() {
	b.unsubscribeLocked()
	b.conn.Disconnect()
	b.currentURL = ""
}

func (b *Bridge) handleMessage(url string) realtime.MessageHandler {
	return func(msg *entity.InboundMessage) {
		ev := Classify(msg, b.spec.ActionTag)
		switch ev.Kind {
		case EventCompletion:
			b.complete(url)
		case EventProgress:
			b.store.SetProgress(ev.Progress)
		case EventChunk:
			b.store.AppendContent(ev.Chunk)
		}
	}
}

func (b *Bridge) complete(url string) {
	b.store.SetCompletionReceived(true)

	b.mu.Lock()
	b.teardownLocked()
	b.mu.Unlock()

	session := b.store.Snapshot()
	b.logger.Info("document generated",
		zap.String("url", url),
		zap.String("document_id", session.DocumentID),
		zap.Int("content_length", len(session.DisplayedContent)),
	)

	b.publish(entity.GenerationEvent{
		Type:          entity.CallbackEventTypeGenerationCompleted,
		DocumentID:    session.DocumentID,
		ConnectionURL: url,
		ContentLength: len(session.DisplayedContent),
	})
}

func (b *Bridge) handleError(url string) realtime.ErrorHandler {
	return func(err error) {
		b.logger.Warn("generation connection error", zap.String("url", url), zap.Error(err))
	}
}

func (b *Bridge) handleClose(url string) realtime.CloseHandler {
	return func(err error) {
		b.logger.Info("generation connection closed", zap.String("url", url), zap.Error(err))

		b.mu.Lock()
		defer b.mu.Unlock()
		if b.currentURL == url {
			b.currentURL = ""
		}
	}
}

func (b *Bridge) handleFailure(url string) realtime.FailureHandler {
	return func(err error) {
		b.logger.Error("generation connection failed", zap.String("url", url), zap.Error(err))

		documentID := b.store.Snapshot().DocumentID
		b.store.SetFailed(err.Error())

		b.publish(entity.GenerationEvent{
			Type:          entity.CallbackEventTypeGenerationFailed,
			DocumentID:    documentID,
			ConnectionURL: url,
			Reason:        err.Error(),
		})
	}
}

func (b *Bridge) publish(event entity.GenerationEvent) {
	if b.sink == nil {
		return
	}
	event.UserID = b.userID
	event.DocumentType = b.spec.Type
	b.sink.Publish(context.Background(), event)
}
