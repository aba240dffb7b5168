package repository

import (
	"context"
	"testing"

	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileMemory(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileMemory()

	_, err := repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, entity.ErrProfileNotFound)

	created, err := repo.Upsert(ctx, entity.UserProfile{UserID: "u1", CallbackURL: "http://cb", TelegramChatID: 42})
	require.NoError(t, err)
	assert.Equal(t, "http://cb", created.CallbackURL)
	assert.False(t, created.CreatedAt.IsZero())

	require.NoError(t, repo.SetCurrentProject(ctx, "u1", &entity.Project{ID: "p1", Name: "Launch"}))
	require.NoError(t, repo.SetFlag(ctx, "u1", "onboarding.dashboard", "done"))

	// a second upsert keeps project and flags
	_, err = repo.Upsert(ctx, entity.UserProfile{UserID: "u1", CallbackURL: "http://cb2"})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "http://cb2", got.CallbackURL)
	require.NotNil(t, got.CurrentProject)
	assert.Equal(t, "p1", got.CurrentProject.ID)
	assert.Equal(t, "done", got.Flags["onboarding.dashboard"])

	// returned profiles are copies
	got.Flags["onboarding.dashboard"] = "changed"
	again, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "done", again.Flags["onboarding.dashboard"])

	require.NoError(t, repo.SetCurrentProject(ctx, "u1", nil))
	again, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, again.CurrentProject)

	require.NoError(t, repo.Delete(ctx, "u1"))
	assert.ErrorIs(t, repo.Delete(ctx, "u1"), entity.ErrProfileNotFound)
}

func TestProfileMemorySetFlagCreatesProfile(t *testing.T) {
	repo := NewProfileMemory()

	require.NoError(t, repo.SetFlag(context.Background(), "u2", "k", "v"))

	got, err := repo.Get(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"k": "v"}, got.Flags)
}
