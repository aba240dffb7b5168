package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/futig/docgen-gateway/internal/config"
	"github.com/futig/docgen-gateway/internal/entity"
	pkgRetry "github.com/futig/docgen-gateway/internal/pkg/retry"
	pkghttp "github.com/futig/docgen-gateway/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(url string) config.BackendConnectorConfig {
	return config.BackendConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			RequestTimeout: time.Second,
			ConnTimeout:    time.Second,
			Url:            url,
		},
		QuestionsEndpoint: "/questions",
		GenerateEndpoint:  "/generate",
		UploadEndpoint:    "/upload",
		Retry:             pkgRetry.RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
	}
}

func TestFetchQuestionsRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		var req entity.QuestionsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, entity.DocumentTypeICP, req.DocumentType)
		_ = json.NewEncoder(w).Encode(entity.QuestionsResponse{Questions: []entity.Question{{ID: 1, Question: "Q1"}}})
	}))
	defer srv.Close()

	c := NewConnector(testConfig(srv.URL), zap.NewNop())
	questions, err := c.FetchQuestions(context.Background(), &entity.QuestionsRequest{DocumentType: entity.DocumentTypeICP, UserID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, []entity.Question{{ID: 1, Question: "Q1"}}, questions)
	assert.Equal(t, int32(2), calls.Load())
}

func TestStartGenerationDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad answers", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewConnector(testConfig(srv.URL), zap.NewNop())
	_, err := c.StartGeneration(context.Background(), &entity.StartGenerationRequest{DocumentType: entity.DocumentTypeGTM})

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestStartGenerationDoesNotResendAfterBadGateway(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream reset", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewConnector(testConfig(srv.URL), zap.NewNop())
	_, err := c.StartGeneration(context.Background(), &entity.StartGenerationRequest{DocumentType: entity.DocumentTypeGTM})

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestStartGenerationRetriesKeepIdempotencyKey(t *testing.T) {
	var mu sync.Mutex
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		keys = append(keys, r.Header.Get(IdempotencyKeyHeader))
		n := len(keys)
		mu.Unlock()

		if n == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(entity.GenerationJob{DocumentID: "d1", ConnectionURL: "ws://jobs/gtm/d1"})
	}))
	defer srv.Close()

	c := NewConnector(testConfig(srv.URL), zap.NewNop())
	job, err := c.StartGeneration(context.Background(), &entity.StartGenerationRequest{DocumentType: entity.DocumentTypeGTM})
	require.NoError(t, err)
	assert.Equal(t, "d1", job.DocumentID)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, keys, 2)
	assert.NotEmpty(t, keys[0])
	assert.Equal(t, keys[0], keys[1])
}

func TestCanResendStart(t *testing.T) {
	assert.True(t, canResendStart(&pkghttp.NetworkError{Err: errors.New("connection refused")}))
	assert.True(t, canResendStart(&pkghttp.HTTPError{StatusCode: http.StatusTooManyRequests}))
	assert.True(t, canResendStart(&pkghttp.HTTPError{StatusCode: http.StatusServiceUnavailable}))
	assert.False(t, canResendStart(&pkghttp.HTTPError{StatusCode: http.StatusBadGateway}))
	assert.False(t, canResendStart(&pkghttp.HTTPError{StatusCode: http.StatusInternalServerError}))
	assert.False(t, canResendStart(errors.New("decode response")))
}

func TestStartGenerationRequiresConnectionURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(entity.GenerationJob{DocumentID: "d1"})
	}))
	defer srv.Close()

	c := NewConnector(testConfig(srv.URL), zap.NewNop())
	_, err := c.StartGeneration(context.Background(), &entity.StartGenerationRequest{DocumentType: entity.DocumentTypeGTM})
	assert.ErrorContains(t, err, "connection_url")
}

func TestUploadSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "mr", r.FormValue("document_type"))
		assert.Len(t, r.MultipartForm.File["files"], 2)
		_ = json.NewEncoder(w).Encode(entity.UploadResult{DocumentID: "doc-7"})
	}))
	defer srv.Close()

	c := NewConnector(testConfig(srv.URL), zap.NewNop())
	result, err := c.UploadSource(context.Background(),
		&entity.QuestionsRequest{DocumentType: entity.DocumentTypeMR, UserID: "u1"},
		[]entity.FileData{
			{Filename: "a.txt", Content: []byte("a")},
			{Filename: "b.md", ContentType: "text/markdown", Content: []byte("b")},
		},
	)

	require.NoError(t, err)
	assert.Equal(t, "doc-7", result.DocumentID)
}

func TestMockConnector(t *testing.T) {
	m := NewMockConnector("ws://localhost:8090/jobs/", zap.NewNop())
	ctx := context.Background()

	questions, err := m.FetchQuestions(ctx, &entity.QuestionsRequest{DocumentType: entity.DocumentTypeSR})
	require.NoError(t, err)
	assert.Equal(t, 1, questions[0].ID)

	job, err := m.StartGeneration(ctx, &entity.StartGenerationRequest{DocumentType: entity.DocumentTypeSR, Answers: questions})
	require.NoError(t, err)
	assert.Contains(t, job.ConnectionURL, "ws://localhost:8090/jobs/sr/")
}
