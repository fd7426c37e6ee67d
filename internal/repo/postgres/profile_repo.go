package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bondly-app/backend/internal/domain/enums"
	"github.com/bondly-app/backend/internal/domain/model"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

type ProfileUpdate struct {
	DisplayName string
	Bio         string
	VibeTags    []enums.Vibe
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

// Get returns the profile row; images are loaded by MediaRepo.
func (r *ProfileRepo) Get(ctx context.Context, userID string) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}

	var (
		p        model.Profile
		tags     []string
		matchIDs []string
	)
	err := r.pool.QueryRow(ctx, `
SELECT user_id, display_name, bio, vibe_tags, match_ids, updated_at
FROM profiles
WHERE user_id = $1
`, userID).Scan(&p.UserID, &p.DisplayName, &p.Bio, &tags, &matchIDs, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	p.VibeTags = make([]enums.Vibe, 0, len(tags))
	for _, tag := range tags {
		p.VibeTags = append(p.VibeTags, enums.Vibe(tag))
	}
	p.MatchIDs = matchIDs
	if p.MatchIDs == nil {
		p.MatchIDs = []string{}
	}

	return p, nil
}

func (r *ProfileRepo) Update(ctx context.Context, userID string, upd ProfileUpdate, now time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tags := make([]string, 0, len(upd.VibeTags))
	for _, tag := range upd.VibeTags {
		tags = append(tags, string(tag))
	}

	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
UPDATE profiles
SET display_name = $2, bio = $3, vibe_tags = $4, updated_at = $5
WHERE user_id = $1
`, userID, upd.DisplayName, upd.Bio, tags, now.UTC())
		if err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		if _, err := tx.Exec(ctx, `UPDATE users SET display_name = $2 WHERE id = $1`, userID, upd.DisplayName); err != nil {
			return fmt.Errorf("update user display name: %w", err)
		}
		return nil
	})

	return err
}

// AppendMatch records peerID in the match list of userID.
func (r *ProfileRepo) AppendMatch(ctx context.Context, tx pgx.Tx, userID, peerID string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	_, err := tx.Exec(ctx, `
UPDATE profiles
SET match_ids = array_append(match_ids, $2), updated_at = NOW()
WHERE user_id = $1 AND NOT ($2 = ANY(match_ids))
`, userID, peerID)
	if err != nil {
		return fmt.Errorf("append profile match: %w", err)
	}

	return nil
}

func (r *ProfileRepo) RemoveMatch(ctx context.Context, tx pgx.Tx, userID, peerID string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	_, err := tx.Exec(ctx, `
UPDATE profiles
SET match_ids = array_remove(match_ids, $2), updated_at = NOW()
WHERE user_id = $1
`, userID, peerID)
	if err != nil {
		return fmt.Errorf("remove profile match: %w", err)
	}

	return nil
}
