package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bondly-app/backend/internal/domain/enums"
	"github.com/bondly-app/backend/internal/domain/model"
	"github.com/bondly-app/backend/internal/domain/rules"
)

type SwipeRepo struct {
	pool *pgxpool.Pool
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

func (r *SwipeRepo) Create(ctx context.Context, tx pgx.Tx, swipe model.Swipe) (model.Swipe, error) {
	if swipe.ID == "" || swipe.SwiperID == "" || swipe.SwipedID == "" || swipe.Direction == "" {
		return model.Swipe{}, fmt.Errorf("invalid swipe payload")
	}
	if tx == nil {
		return model.Swipe{}, fmt.Errorf("transaction is required")
	}
	if swipe.CreatedAt.IsZero() {
		swipe.CreatedAt = time.Now().UTC()
	}

	var rec model.Swipe
	err := tx.QueryRow(ctx, `
INSERT INTO swipes (
	id,
	swiper_id,
	swiped_id,
	direction,
	created_at
) VALUES ($1, $2, $3, $4, $5)
RETURNING id, swiper_id, swiped_id, direction, created_at
`, swipe.ID, swipe.SwiperID, swipe.SwipedID, string(swipe.Direction), swipe.CreatedAt.UTC()).Scan(
		&rec.ID,
		&rec.SwiperID,
		&rec.SwipedID,
		&rec.Direction,
		&rec.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return model.Swipe{}, ErrNotFound
		}
		return model.Swipe{}, fmt.Errorf("create swipe: %w", err)
	}

	return rec, nil
}

// HasRightSwipe ignores swipes made before the pair last unmatched.
func (r *SwipeRepo) HasRightSwipe(ctx context.Context, tx pgx.Tx, swiperID, swipedID string) (bool, error) {
	q, err := pick(r.pool, tx)
	if err != nil {
		return false, err
	}

	var exists bool
	err = q.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM swipes s
	LEFT JOIN unmatches u ON u.pair_id = $4
	WHERE s.swiper_id = $1
		AND s.swiped_id = $2
		AND s.direction = $3
		AND (u.unmatched_at IS NULL OR s.created_at > u.unmatched_at)
)
`, swiperID, swipedID, string(enums.SwipeDirectionRight), rules.PairKey(swiperID, swipedID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup reciprocal swipe: %w", err)
	}

	return exists, nil
}
