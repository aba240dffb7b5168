package generation

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/futig/docgen-gateway/internal/config"
	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/futig/docgen-gateway/internal/generation"
	"github.com/futig/docgen-gateway/internal/pkg/formatter"
	"github.com/futig/docgen-gateway/internal/pkg/validator"
	"github.com/futig/docgen-gateway/internal/realtime"
	"github.com/futig/docgen-gateway/internal/workspace"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errBackendDown = errors.New("backend down")

type jobConn struct {
	frames chan []byte
	closed chan struct{}
	once   sync.Once
}

func (c *jobConn) ReadMessage() (int, []byte, error) {
	select {
	case f := <-c.frames:
		return websocket.TextMessage, f, nil
	case <-c.closed:
		return 0, nil, errors.New("use of closed connection")
	}
}

func (c *jobConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *jobConn) send(frame string) {
	select {
	case c.frames <- []byte(frame):
	case <-c.closed:
	}
}

func (c *jobConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type jobDialer struct {
	mu    sync.Mutex
	urls  []string
	conns []*jobConn
}

func (d *jobDialer) Dial(_ context.Context, url string) (realtime.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := &jobConn{frames: make(chan []byte), closed: make(chan struct{})}
	d.urls = append(d.urls, url)
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *jobDialer) latest(t *testing.T) *jobConn {
	t.Helper()

	var c *jobConn
	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		if len(d.conns) == 0 {
			return false
		}
		c = d.conns[len(d.conns)-1]
		return true
	}, time.Second, 5*time.Millisecond)
	return c
}

type fakeBackend struct {
	mu        sync.Mutex
	err       error
	questions []entity.Question
	started   []*entity.StartGenerationRequest
	uploads   [][]entity.FileData

	// startGate, when set, holds StartGeneration until closed; startEntered is signalled on entry
	startGate    chan struct{}
	startEntered chan struct{}
}

func (b *fakeBackend) FetchQuestions(_ context.Context, _ *entity.QuestionsRequest) ([]entity.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	return append([]entity.Question(nil), b.questions...), nil
}

func (b *fakeBackend) StartGeneration(_ context.Context, req *entity.StartGenerationRequest) (*entity.GenerationJob, error) {
	b.mu.Lock()
	gate, entered := b.startGate, b.startEntered
	b.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	b.started = append(b.started, req)
	return &entity.GenerationJob{DocumentID: "doc-1", ConnectionURL: "ws://jobs/" + string(req.DocumentType)}, nil
}

func (b *fakeBackend) UploadSource(_ context.Context, _ *entity.QuestionsRequest, files []entity.FileData) (*entity.UploadResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	b.uploads = append(b.uploads, files)
	return &entity.UploadResult{DocumentID: "src-1"}, nil
}

func (b *fakeBackend) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

type testEnv struct {
	uc      *GenerationUsecase
	backend *fakeBackend
	dialer  *jobDialer
	reg     *workspace.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dialer := &jobDialer{}
	backend := &fakeBackend{questions: []entity.Question{
		{ID: 1, Question: "What are you launching?"},
		{ID: 2, Question: "Who buys it?"},
	}}

	reg := workspace.NewRegistry(config.WorkspaceConfig{IdleTTL: time.Hour}, workspace.Deps{
		Specs:       generation.DefaultDocumentSpecs(config.DocumentsConfig{}),
		RealtimeCfg: config.RealtimeConfig{MaxReconnectAttempts: 0, ReconnectBaseDelay: time.Second},
		Dialer:      dialer,
		Logger:      zap.NewNop(),
	}, zap.NewNop())
	t.Cleanup(reg.Close)

	uc := NewUsecase(
		reg,
		backend,
		validator.NewValidator(config.FileUploadConfig{MaxFileSize: 1 << 10, MaxTotalSize: 1 << 12, MaxFileCount: 4}),
		formatter.NewFactory(),
		zap.NewNop(),
	)

	return &testEnv{uc: uc, backend: backend, dialer: dialer, reg: reg}
}

func uploadFiles(t *testing.T, files map[string]string) []*multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm.File["files"]
}
