package generation

import (
	"context"

	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/futig/docgen-gateway/internal/workspace"
)

type BackendConnector interface {
	FetchQuestions(ctx context.Context, req *entity.QuestionsRequest) ([]entity.Question, error)
	StartGeneration(ctx context.Context, req *entity.StartGenerationRequest) (*entity.GenerationJob, error)
	UploadSource(ctx context.Context, req *entity.QuestionsRequest, files []entity.FileData) (*entity.UploadResult, error)
}

type WorkspaceProvider interface {
	Get(userID string) (*workspace.Workspace, error)
}
