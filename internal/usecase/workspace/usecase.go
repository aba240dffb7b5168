package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/futig/docgen-gateway/internal/onboarding"
	"github.com/futig/docgen-gateway/internal/workspace"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// WorkspaceUsecase handles the user level operations: login, logout, project switching and onboarding
type WorkspaceUsecase struct {
	registry WorkspaceRegistry
	profiles ProfileRepository
	tours    TourController
	logger   *zap.Logger
}

func NewUsecase(
	registry WorkspaceRegistry,
	profiles ProfileRepository,
	tours TourController,
	logger *zap.Logger,
) *WorkspaceUsecase {
	return &WorkspaceUsecase{
		registry: registry,
		profiles: profiles,
		tours:    tours,
		logger:   logger,
	}
}

// Login starts the user from clean sessions and records how they want to be notified
func (uc *WorkspaceUsecase) Login(ctx context.Context, userID string, req *entity.LoginRequest) (*entity.WorkspaceDTO, error) {
	ws, err := uc.registry.Get(userID)
	if err != nil {
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	ws.ResetAll()

	profile, err := uc.profiles.Upsert(ctx, entity.UserProfile{
		UserID:         userID,
		CallbackURL:    req.CallbackURL,
		TelegramChatID: req.TelegramChatID,
	})
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	if profile.CurrentProject != nil {
		ws.SetProjectID(profile.CurrentProject.ID)
	}

	ctxzap.Info(ctx, "user logged in", zap.Bool("has_project", profile.CurrentProject != nil))

	return toWorkspaceDTO(profile, ws), nil
}

// Logout closes the user's connections and drops their in-memory state
func (uc *WorkspaceUsecase) Logout(ctx context.Context, userID string) error {
	uc.registry.Remove(userID)
	uc.tours.Forget(userID)

	ctxzap.Info(ctx, "user logged out")
	return nil
}

// GetWorkspace returns the profile and every session of the user
func (uc *WorkspaceUsecase) GetWorkspace(ctx context.Context, userID string) (*entity.WorkspaceDTO, error) {
	ws, err := uc.registry.Get(userID)
	if err != nil {
		return nil, fmt.Errorf("get workspace: %w", err)
	}

	profile, err := uc.profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	return toWorkspaceDTO(profile, ws), nil
}

// SwitchProject resets every session before scoping them to the new project
func (uc *WorkspaceUsecase) SwitchProject(ctx context.Context, userID string, req *entity.SwitchProjectRequest) (*entity.WorkspaceDTO, error) {
	ws, err := uc.registry.Get(userID)
	if err != nil {
		return nil, fmt.Errorf("get workspace: %w", err)
	}

	ws.ResetAll()

	if err := uc.profiles.SetCurrentProject(ctx, userID, &entity.Project{ID: req.ProjectID, Name: req.Name}); err != nil {
		return nil, fmt.Errorf("save current project: %w", err)
	}
	ws.SetProjectID(req.ProjectID)

	ctxzap.Info(ctx, "project switched", zap.String("project_id", req.ProjectID))

	profile, err := uc.profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	return toWorkspaceDTO(profile, ws), nil
}

func (uc *WorkspaceUsecase) StartTour(ctx context.Context, userID string, page onboarding.Page) (onboarding.Progress, error) {
	return uc.tours.Start(ctx, userID, page)
}

func (uc *WorkspaceUsecase) NextTourStep(ctx context.Context, userID string) (onboarding.Progress, error) {
	return uc.tours.Next(ctx, userID)
}

func (uc *WorkspaceUsecase) SkipTour(ctx context.Context, userID string) (onboarding.Progress, error) {
	return uc.tours.Skip(ctx, userID)
}

func (uc *WorkspaceUsecase) CurrentTour(ctx context.Context, userID string) (onboarding.Progress, error) {
	progress, ok := uc.tours.Current(userID)
	if !ok {
		return onboarding.Progress{}, fmt.Errorf("%w: user %s", entity.ErrTourNotStarted, userID)
	}
	return progress, nil
}

// profile returns the stored profile, or an empty one for users that never logged in
func (uc *WorkspaceUsecase) profile(ctx context.Context, userID string) (*entity.UserProfile, error) {
	profile, err := uc.profiles.Get(ctx, userID)
	if errors.Is(err, entity.ErrProfileNotFound) {
		return &entity.UserProfile{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

func toWorkspaceDTO(profile *entity.UserProfile, ws *workspace.Workspace) *entity.WorkspaceDTO {
	snapshots := ws.Snapshots()
	sessions := make(map[entity.DocumentType]*entity.GenerationSession, len(snapshots))
	for dt, s := range snapshots {
		sessions[dt] = &s
	}

	return &entity.WorkspaceDTO{
		Profile:  profile,
		Sessions: sessions,
	}
}
