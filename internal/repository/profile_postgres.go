package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ ProfileRepository = &ProfilePostgres{}

const profileColumns = `user_id, current_project_id, current_project_name, callback_url, telegram_chat_id, flags, created_at, updated_at`

// ProfilePostgres implements ProfileRepository using PostgreSQL
type ProfilePostgres struct {
	db *pgxpool.Pool
}

func NewProfilePostgres(db *pgxpool.Pool) *ProfilePostgres {
	return &ProfilePostgres{
		db: db,
	}
}

func (r *ProfilePostgres) Get(ctx context.Context, userID string) (*entity.UserProfile, error) {
	row := r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)

	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return profile, nil
}

func (r *ProfilePostgres) Upsert(ctx context.Context, profile entity.UserProfile) (*entity.UserProfile, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO profiles (user_id, callback_url, telegram_chat_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET callback_url = EXCLUDED.callback_url,
		    telegram_chat_id = EXCLUDED.telegram_chat_id,
		    updated_at = now()
		RETURNING `+profileColumns,
		profile.UserID, profile.CallbackURL, profile.TelegramChatID,
	)

	result, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	return result, nil
}

func (r *ProfilePostgres) SetCurrentProject(ctx context.Context, userID string, project *entity.Project) error {
	var id, name pgtype.Text
	if project != nil {
		id = pgtype.Text{String: project.ID, Valid: true}
		name = pgtype.Text{String: project.Name, Valid: true}
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO profiles (user_id, current_project_id, current_project_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET current_project_id = EXCLUDED.current_project_id,
		    current_project_name = EXCLUDED.current_project_name,
		    updated_at = now()`,
		userID, id, name,
	)
	if err != nil {
		return fmt.Errorf("set current project: %w", err)
	}

	return nil
}

func (r *ProfilePostgres) SetFlag(ctx context.Context, userID, key, value string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO profiles (user_id, flags)
		VALUES ($1, jsonb_build_object($2::text, $3::text))
		ON CONFLICT (user_id) DO UPDATE
		SET flags = profiles.flags || jsonb_build_object($2::text, $3::text),
		    updated_at = now()`,
		userID, key, value,
	)
	if err != nil {
		return fmt.Errorf("set profile flag %s: %w", key, err)
	}

	return nil
}

func (r *ProfilePostgres) Delete(ctx context.Context, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrProfileNotFound
	}

	return nil
}

func scanProfile(row pgx.Row) (*entity.UserProfile, error) {
	var (
		profile     entity.UserProfile
		projectID   pgtype.Text
		projectName pgtype.Text
		flags       []byte
	)

	err := row.Scan(
		&profile.UserID,
		&projectID,
		&projectName,
		&profile.CallbackURL,
		&profile.TelegramChatID,
		&flags,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if projectID.Valid {
		profile.CurrentProject = &entity.Project{ID: projectID.String, Name: projectName.String}
	}

	profile.Flags = map[string]string{}
	if len(flags) > 0 {
		if err := json.Unmarshal(flags, &profile.Flags); err != nil {
			return nil, fmt.Errorf("unmarshal profile flags: %w", err)
		}
	}

	return &profile, nil
}
