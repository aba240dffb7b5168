package workspace

import (
	"context"

	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/futig/docgen-gateway/internal/onboarding"
	"github.com/futig/docgen-gateway/internal/workspace"
)

type WorkspaceRegistry interface {
	Get(userID string) (*workspace.Workspace, error)
	Remove(userID string)
}

type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*entity.UserProfile, error)
	Upsert(ctx context.Context, profile entity.UserProfile) (*entity.UserProfile, error)
	SetCurrentProject(ctx context.Context, userID string, project *entity.Project) error
}

type TourController interface {
	Start(ctx context.Context, userID string, page onboarding.Page) (onboarding.Progress, error)
	Next(ctx context.Context, userID string) (onboarding.Progress, error)
	Skip(ctx context.Context, userID string) (onboarding.Progress, error)
	Current(userID string) (onboarding.Progress, bool)
	Forget(userID string)
}
