package backend

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var mockSections = []string{
	"## Summary\n\nA short overview of the document.",
	"## Details\n\nThe main body, built from your answers.",
	"## Next steps\n\n- Review the draft\n- Share it with the team",
}

// MockJobServer plays a generation job over a websocket: progress frames, content chunks and the
// completion sentinel, tagged with the action of the requested document type.
// It serves the URLs handed out by MockConnector: <base>/{type}/{id}.
type MockJobServer struct {
	tags     map[entity.DocumentType]string
	step     time.Duration
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewMockJobServer(tags map[entity.DocumentType]string, step time.Duration, logger *zap.Logger) *MockJobServer {
	return &MockJobServer{
		tags: tags,
		step: step,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// RegisterRoutes mounts the job endpoint under prefix
func (s *MockJobServer) RegisterRoutes(r chi.Router, prefix string) {
	r.Get(prefix+"/{type}/{id}", s.ServeHTTP)
}

func (s *MockJobServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	dt := entity.DocumentType(chi.URLParam(r, "type"))
	tag, ok := s.tags[dt]
	if !ok {
		http.Error(w, "unknown document type", http.StatusNotFound)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("[MOCK] job upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	logger := s.logger.With(zap.String("document_type", string(dt)), zap.String("job_id", chi.URLParam(r, "id")))
	logger.Info("[MOCK] job started")

	for i, section := range mockSections {
		progress := (i + 1) * 100 / (len(mockSections) + 1)
		if err := s.play(ws, map[string]any{"action": tag, "body": progress}); err != nil {
			logger.Warn("[MOCK] job aborted", zap.Error(err))
			return
		}
		chunk := map[string]any{
			"type": entity.MessageTypeTierCompletion,
			"data": map[string]any{"content": map[string]any{"content": section}},
		}
		if err := s.play(ws, chunk); err != nil {
			logger.Warn("[MOCK] job aborted", zap.Error(err))
			return
		}
	}

	if err := s.play(ws, map[string]any{"action": tag, "body": entity.CompletionSentinel}); err != nil {
		logger.Warn("[MOCK] job aborted", zap.Error(err))
		return
	}

	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(time.Second))
	logger.Info("[MOCK] job finished")
}

func (s *MockJobServer) play(ws *websocket.Conn, frame map[string]any) error {
	time.Sleep(s.step)

	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return ws.WriteMessage(websocket.TextMessage, payload)
}
