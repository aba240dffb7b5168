package generation

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"

	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/futig/docgen-gateway/internal/generation"
	"github.com/futig/docgen-gateway/internal/pkg/formatter"
	"github.com/futig/docgen-gateway/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// GenerationUsecase drives the per-document-type generation sessions of a user.
// A failed backend call leaves the session in the view it was in.
type GenerationUsecase struct {
	workspaces WorkspaceProvider
	backend    BackendConnector
	validator  *validator.Validator
	formatters *formatter.Factory
	logger     *zap.Logger
}

func NewUsecase(
	workspaces WorkspaceProvider,
	backend BackendConnector,
	validator *validator.Validator,
	formatters *formatter.Factory,
	logger *zap.Logger,
) *GenerationUsecase {
	return &GenerationUsecase{
		workspaces: workspaces,
		backend:    backend,
		validator:  validator,
		formatters: formatters,
		logger:     logger,
	}
}

func (uc *GenerationUsecase) session(userID string, dt entity.DocumentType) (*generation.Session, error) {
	if err := dt.Validate(); err != nil {
		return nil, err
	}

	ws, err := uc.workspaces.Get(userID)
	if err != nil {
		return nil, fmt.Errorf("get workspace: %w", err)
	}

	return ws.Session(dt)
}

// GetSession returns a snapshot of the session
func (uc *GenerationUsecase) GetSession(ctx context.Context, userID string, dt entity.DocumentType) (*entity.GenerationSession, error) {
	s, err := uc.session(userID, dt)
	if err != nil {
		return nil, err
	}

	snapshot := s.Store.Snapshot()
	return &snapshot, nil
}

// LoadQuestions fetches the question set of the document type from the backend
func (uc *GenerationUsecase) LoadQuestions(ctx context.Context, userID string, dt entity.DocumentType) (*entity.GenerationSession, error) {
	s, err := uc.session(userID, dt)
	if err != nil {
		return nil, err
	}

	current := s.Store.Snapshot()
	questions, err := uc.backend.FetchQuestions(ctx, &entity.QuestionsRequest{
		DocumentType: dt,
		ProjectID:    current.ProjectID,
		UserID:       userID,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}

	s.Store.SetQuestions(questions)
	ctxzap.Info(ctx, "questions loaded", zap.Int("count", len(questions)))

	return uc.GetSession(ctx, userID, dt)
}

// AnswerQuestion edits the answer of question id
func (uc *GenerationUsecase) AnswerQuestion(ctx context.Context, userID string, dt entity.DocumentType, id int, answer string) (*entity.GenerationSession, error) {
	s, err := uc.session(userID, dt)
	if err != nil {
		return nil, err
	}

	if err := s.Store.UpdateAnswer(id, answer); err != nil {
		return nil, fmt.Errorf("update answer: %w", err)
	}

	return uc.GetSession(ctx, userID, dt)
}

// ConfirmAnswer marks question id as answered
func (uc *GenerationUsecase) ConfirmAnswer(ctx context.Context, userID string, dt entity.DocumentType, id int) (*entity.GenerationSession, error) {
	s, err := uc.session(userID, dt)
	if err != nil {
		return nil, err
	}

	if err := s.Store.MarkAnswered(id); err != nil {
		return nil, fmt.Errorf("confirm answer: %w", err)
	}

	return uc.GetSession(ctx, userID, dt)
}

// Navigate moves the question cursor forward or to a question
func (uc *GenerationUsecase) Navigate(ctx context.Context, userID string, dt entity.DocumentType, req *entity.MoveCursorRequest) (*entity.GenerationSession, error) {
	s, err := uc.session(userID, dt)
	if err != nil {
		return nil, err
	}

	if req.Advance {
		s.Store.Advance()
	} else if err := s.Store.GoTo(*req.QuestionID); err != nil {
		return nil, fmt.Errorf("move cursor: %w", err)
	}

	return uc.GetSession(ctx, userID, dt)
}

func (uc *GenerationUsecase) SetView(ctx context.Context, userID string, dt entity.DocumentType, view entity.View) (*entity.GenerationSession, error) {
	s, err := uc.session(userID, dt)
	if err != nil {
		return nil, err
	}

	if err := s.Store.SetView(view); err != nil {
		return nil, fmt.Errorf("set view: %w", err)
	}

	return uc.GetSession(ctx, userID, dt)
}

// UploadSource validates the source files and forwards them to the backend, then moves on to the questions
func (uc *GenerationUsecase) UploadSource(ctx context.Context, userID string, dt entity.DocumentType, files []*multipart.FileHeader) (*entity.GenerationSession, error) {
	s, err := uc.session(userID, dt)
	if err != nil {
		return nil, err
	}

	if !s.Spec.RequiresUpload {
		return nil, fmt.Errorf("%w: %s", entity.ErrUploadNotRequired, dt)
	}

	if err := uc.validator.ValidateUpload(files); err != nil {
		return nil, err
	}

	data, err := validator.ReadFiles(files)
	if err != nil {
		return nil, err
	}

	current := s.Store.Snapshot()
	result, err := uc.backend.UploadSource(ctx, &entity.QuestionsRequest{
		DocumentType: dt,
		ProjectID:    current.ProjectID,
		UserID:       userID,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("upload source: %w", err)
	}

	s.Store.SetDocumentID(result.DocumentID)
	if err := s.Store.SetView(entity.ViewQuestions); err != nil {
		return nil, fmt.Errorf("set view: %w", err)
	}

	ctxzap.Info(ctx, "source uploaded",
		zap.Int("file_count", len(data)),
		zap.String("document_id", result.DocumentID),
	)

	return uc.GetSession(ctx, userID, dt)
}

// StartGeneration opens a generation job and arms the session; the bridge connects to the job
func (uc *GenerationUsecase) StartGeneration(ctx context.Context, userID string, dt entity.DocumentType) (*entity.GenerationSession, error) {
	s, err := uc.session(userID, dt)
	if err != nil {
		return nil, err
	}

	// Concurrent starts would each open a backend job; only one may be in flight
	if !s.BeginStart() {
		return nil, entity.ErrGenerationInProgress
	}
	defer s.EndStart()

	current := s.Store.Snapshot()
	if current.IsGenerating {
		return nil, entity.ErrGenerationInProgress
	}

	job, err := uc.backend.StartGeneration(ctx, &entity.StartGenerationRequest{
		DocumentType: dt,
		ProjectID:    current.ProjectID,
		UserID:       userID,
		Answers:      current.Questions,
	})
	if err != nil {
		return nil, fmt.Errorf("start generation: %w", err)
	}

	if job.DocumentID != "" {
		s.Store.SetDocumentID(job.DocumentID)
	}
	s.Store.SetConnectionURL(job.ConnectionURL)
	s.Store.SetGenerating(true)

	ctxzap.Info(ctx, "generation started",
		zap.String("document_id", job.DocumentID),
		zap.String("connection_url", job.ConnectionURL),
	)

	return uc.GetSession(ctx, userID, dt)
}

// StopGeneration disarms the session, which closes the job connection
func (uc *GenerationUsecase) StopGeneration(ctx context.Context, userID string, dt entity.DocumentType) (*entity.GenerationSession, error) {
	s, err := uc.session(userID, dt)
	if err != nil {
		return nil, err
	}

	if !s.Store.Status().IsGenerating {
		return nil, entity.ErrGenerationNotStarted
	}

	s.Store.SetGenerating(false)
	ctxzap.Info(ctx, "generation stopped")

	return uc.GetSession(ctx, userID, dt)
}

// BuildPreview renders the completed document in format and switches the session to the preview
func (uc *GenerationUsecase) BuildPreview(ctx context.Context, userID string, dt entity.DocumentType, format entity.ResultFormat) (*entity.PreviewPayload, error) {
	s, err := uc.session(userID, dt)
	if err != nil {
		return nil, err
	}

	current := s.Store.Snapshot()
	if !current.CompletionReceived {
		return nil, entity.ErrGenerationNotComplete
	}

	fmtr, err := uc.formatters.Create(format)
	if err != nil {
		return nil, err
	}

	content, err := fmtr.Format(formatter.Document{
		Title: dt.Title(),
		Body:  current.DisplayedContent,
	})
	if err != nil {
		return nil, fmt.Errorf("format document: %w", err)
	}

	payload := entity.PreviewPayload{
		Base64Content: base64.StdEncoding.EncodeToString(content),
		FileName:      previewFileName(dt, current.DocumentID, fmtr.FileExtension()),
		ContentType:   fmtr.ContentType(),
	}
	s.Store.SetPreviewPayload(payload)

	ctxzap.Info(ctx, "preview built",
		zap.String("format", string(format)),
		zap.Int("size_bytes", len(content)),
	)

	return &payload, nil
}

// ResetDocument clears the session but keeps its project
func (uc *GenerationUsecase) ResetDocument(ctx context.Context, userID string, dt entity.DocumentType) (*entity.GenerationSession, error) {
	s, err := uc.session(userID, dt)
	if err != nil {
		return nil, err
	}

	s.Store.ResetScoped()
	ctxzap.Info(ctx, "document session reset")

	return uc.GetSession(ctx, userID, dt)
}

func previewFileName(dt entity.DocumentType, documentID, ext string) string {
	if documentID == "" {
		return string(dt) + ext
	}
	return fmt.Sprintf("%s-%s%s", dt, documentID, ext)
}
