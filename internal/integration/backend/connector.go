package backend

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/avast/retry-go/v4"
	"github.com/futig/docgen-gateway/internal/config"
	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/futig/docgen-gateway/internal/integration/common"
	pkghttp "github.com/futig/docgen-gateway/pkg/http"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader identifies one job start across its retries
const IdempotencyKeyHeader = "Idempotency-Key"

// Connector talks to the document generation backend over REST
type Connector struct {
	config    config.BackendConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.BackendConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewServiceConnector("backend", cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// withRetry retries fn while retryIf accepts the error
func (c *Connector) withRetry(ctx context.Context, action string, retryIf func(error) bool, fn func(ctx context.Context) error) error {
	return c.config.Retry.Do(ctx, fn,
		retry.RetryIf(retryIf),
		retry.OnRetry(func(n uint, err error) {
			ctxzap.Warn(ctx, "retrying backend request",
				zap.String("request", action),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)
}

// canResendStart limits job-start retries to failures where the backend cannot have accepted the job:
// transport errors (covered by the idempotency key), 429 and 503.
func canResendStart(err error) bool {
	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode == http.StatusServiceUnavailable
	}
	var netErr *pkghttp.NetworkError
	return errors.As(err, &netErr)
}

// FetchQuestions returns the question set of a document type
func (c *Connector) FetchQuestions(ctx context.Context, req *entity.QuestionsRequest) ([]entity.Question, error) {
	ctxzap.Info(ctx, "fetching questions from backend", zap.String("document_type", string(req.DocumentType)))

	var resp entity.QuestionsResponse
	err := c.withRetry(ctx, "questions", pkghttp.IsRetryable, func(ctx context.Context) error {
		return c.connector.DoRequest(ctx, http.MethodPost, c.config.QuestionsEndpoint, req, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch questions failed: %w", err)
	}

	if len(resp.Questions) == 0 {
		return nil, fmt.Errorf("invalid questions response: empty question list")
	}

	ctxzap.Info(ctx, "questions fetched successfully", zap.Int("count", len(resp.Questions)))

	return resp.Questions, nil
}

// StartGeneration opens a generation job and returns where to follow it
func (c *Connector) StartGeneration(ctx context.Context, req *entity.StartGenerationRequest) (*entity.GenerationJob, error) {
	ctxzap.Info(ctx, "starting generation job", zap.String("document_type", string(req.DocumentType)))

	// Every attempt of one start carries the same key so the backend can drop duplicates
	idempotencyKey := uuid.NewString()

	var job entity.GenerationJob
	err := c.withRetry(ctx, "generate", canResendStart, func(ctx context.Context) error {
		return c.connector.DoRequest(ctx, http.MethodPost, c.config.GenerateEndpoint, req, &job,
			pkghttp.WithHeader(IdempotencyKeyHeader, idempotencyKey),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("start generation failed: %w", err)
	}

	if job.ConnectionURL == "" {
		return nil, fmt.Errorf("invalid generation response: empty connection_url")
	}

	ctxzap.Info(ctx, "generation job started",
		zap.String("document_id", job.DocumentID),
		zap.String("connection_url", job.ConnectionURL),
	)

	return &job, nil
}

// UploadSource forwards source files for document types that start from an upload
func (c *Connector) UploadSource(ctx context.Context, req *entity.QuestionsRequest, files []entity.FileData) (*entity.UploadResult, error) {
	ctxzap.Info(ctx, "uploading source files", zap.Int("file_count", len(files)))

	prepare := func(w *multipart.Writer) error {
		fields := map[string]string{
			"document_type": string(req.DocumentType),
			"project_id":    req.ProjectID,
			"user_id":       req.UserID,
		}
		for k, v := range fields {
			if err := w.WriteField(k, v); err != nil {
				return err
			}
		}

		for _, f := range files {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Filename))
			contentType := f.ContentType
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			h.Set("Content-Type", contentType)

			part, err := w.CreatePart(h)
			if err != nil {
				return err
			}
			if _, err := part.Write(f.Content); err != nil {
				return err
			}
		}
		return nil
	}

	var result entity.UploadResult
	err := c.withRetry(ctx, "upload", pkghttp.IsRetryable, func(ctx context.Context) error {
		return c.connector.DoMultipartRequest(ctx, http.MethodPost, c.config.UploadEndpoint, prepare, &result)
	})
	if err != nil {
		return nil, fmt.Errorf("upload source failed: %w", err)
	}

	ctxzap.Info(ctx, "source files uploaded", zap.String("document_id", result.DocumentID))

	return &result, nil
}
