package generation

import (
	"context"
	"mime/multipart"

	"github.com/futig/docgen-gateway/internal/entity"
)

type GenerationUsecase interface {
	GetSession(ctx context.Context, userID string, dt entity.DocumentType) (*entity.GenerationSession, error)
	LoadQuestions(ctx context.Context, userID string, dt entity.DocumentType) (*entity.GenerationSession, error)
	AnswerQuestion(ctx context.Context, userID string, dt entity.DocumentType, id int, answer string) (*entity.GenerationSession, error)
	ConfirmAnswer(ctx context.Context, userID string, dt entity.DocumentType, id int) (*entity.GenerationSession, error)
	Navigate(ctx context.Context, userID string, dt entity.DocumentType, req *entity.MoveCursorRequest) (*entity.GenerationSession, error)
	SetView(ctx context.Context, userID string, dt entity.DocumentType, view entity.View) (*entity.GenerationSession, error)
	UploadSource(ctx context.Context, userID string, dt entity.DocumentType, files []*multipart.FileHeader) (*entity.GenerationSession, error)
	StartGeneration(ctx context.Context, userID string, dt entity.DocumentType) (*entity.GenerationSession, error)
	StopGeneration(ctx context.Context, userID string, dt entity.DocumentType) (*entity.GenerationSession, error)
	BuildPreview(ctx context.Context, userID string, dt entity.DocumentType, format entity.ResultFormat) (*entity.PreviewPayload, error)
	ResetDocument(ctx context.Context, userID string, dt entity.DocumentType) (*entity.GenerationSession, error)
}
