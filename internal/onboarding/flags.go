package onboarding

import (
	"context"
	"errors"

	"github.com/futig/docgen-gateway/internal/entity"
)

// ProfileStore is the subset of the profile repository the tours need
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*entity.UserProfile, error)
	SetFlag(ctx context.Context, userID, key, value string) error
}

// ProfileFlags reads and writes onboarding flags on user profiles
type ProfileFlags struct {
	profiles ProfileStore
}

func NewProfileFlags(profiles ProfileStore) *ProfileFlags {
	return &ProfileFlags{profiles: profiles}
}

// Flags returns an empty set for users without a profile
func (f *ProfileFlags) Flags(ctx context.Context, userID string) (map[string]string, error) {
	profile, err := f.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, entity.ErrProfileNotFound) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return profile.Flags, nil
}

func (f *ProfileFlags) SetFlag(ctx context.Context, userID, key, value string) error {
	return f.profiles.SetFlag(ctx, userID, key, value)
}
