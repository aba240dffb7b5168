package workspace

import (
	"context"

	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/futig/docgen-gateway/internal/onboarding"
)

type WorkspaceUsecase interface {
	Login(ctx context.Context, userID string, req *entity.LoginRequest) (*entity.WorkspaceDTO, error)
	Logout(ctx context.Context, userID string) error
	GetWorkspace(ctx context.Context, userID string) (*entity.WorkspaceDTO, error)
	SwitchProject(ctx context.Context, userID string, req *entity.SwitchProjectRequest) (*entity.WorkspaceDTO, error)
	StartTour(ctx context.Context, userID string, page onboarding.Page) (onboarding.Progress, error)
	NextTourStep(ctx context.Context, userID string) (onboarding.Progress, error)
	SkipTour(ctx context.Context, userID string) (onboarding.Progress, error)
	CurrentTour(ctx context.Context, userID string) (onboarding.Progress, error)
}
