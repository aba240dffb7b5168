package workspace

import (
	"fmt"

	"github.com/futig/docgen-gateway/internal/config"
	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/futig/docgen-gateway/internal/generation"
	"github.com/futig/docgen-gateway/internal/realtime"
	"go.uber.org/zap"
)

// Workspace holds one user's generation sessions, one per document type
type Workspace struct {
	userID      string
	sessions    map[entity.DocumentType]*generation.Session
	order       []entity.DocumentType
	coordinator *Coordinator
}

// Deps are the collaborators shared by every workspace
type Deps struct {
	Specs       []generation.DocumentSpec
	RealtimeCfg config.RealtimeConfig
	Dialer      realtime.Dialer
	Sink        generation.EventSink
	Logger      *zap.Logger
	ConnOpts    []realtime.Option
}

func New(userID string, deps Deps) (*Workspace, error) {
	w := &Workspace{
		userID:   userID,
		sessions: make(map[entity.DocumentType]*generation.Session, len(deps.Specs)),
	}

	logger := deps.Logger.With(zap.String("user_id", userID))
	stores := make([]Resetter, 0, len(deps.Specs))
	conns := make([]Disconnector, 0, len(deps.Specs))

	for _, spec := range deps.Specs {
		session, err := generation.NewSession(spec, deps.RealtimeCfg, deps.Dialer, deps.Sink, userID, logger, deps.ConnOpts...)
		if err != nil {
			w.closeSessions()
			return nil, fmt.Errorf("create %s session: %w", spec.Type, err)
		}

		w.sessions[spec.Type] = session
		w.order = append(w.order, spec.Type)
		stores = append(stores, session.Store)
		conns = append(conns, session.Conn)
	}

	w.coordinator = NewCoordinator(stores, conns)
	return w, nil
}

func (w *Workspace) UserID() string {
	return w.userID
}

// Session returns the session of document type dt
func (w *Workspace) Session(dt entity.DocumentType) (*generation.Session, error) {
	session, ok := w.sessions[dt]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownDocumentType, dt)
	}
	return session, nil
}

// Snapshots returns every session keyed by document type
func (w *Workspace) Snapshots() map[entity.DocumentType]entity.GenerationSession {
	out := make(map[entity.DocumentType]entity.GenerationSession, len(w.order))
	for _, dt := range w.order {
		out[dt] = w.sessions[dt].Store.Snapshot()
	}
	return out
}

// ResetAll wipes every session and closes every connection
func (w *Workspace) ResetAll() {
	w.coordinator.ResetAll()
}

// SetProjectID scopes every session to project id
func (w *Workspace) SetProjectID(id string) {
	for _, dt := range w.order {
		w.sessions[dt].Store.SetProjectID(id)
	}
}

// Close resets the workspace and detaches its bridges
func (w *Workspace) Close() {
	w.ResetAll()
	w.closeSessions()
}

func (w *Workspace) closeSessions() {
	for _, dt := range w.order {
		w.sessions[dt].Close()
	}
}
