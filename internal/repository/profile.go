package repository

import (
	"context"

	"github.com/futig/docgen-gateway/internal/entity"
)

// ProfileRepository persists the per-user record: contact settings, current project and onboarding flags
type ProfileRepository interface {
	// Get returns entity.ErrProfileNotFound for unknown users
	Get(ctx context.Context, userID string) (*entity.UserProfile, error)
	// Upsert stores contact settings, creating the profile if needed. Flags and project are left untouched.
	Upsert(ctx context.Context, profile entity.UserProfile) (*entity.UserProfile, error)
	// SetCurrentProject stores project as current; nil clears it
	SetCurrentProject(ctx context.Context, userID string, project *entity.Project) error
	SetFlag(ctx context.Context, userID, key, value string) error
	Delete(ctx context.Context, userID string) error
}
