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

type MediaRepo struct {
	pool *pgxpool.Pool
}

func NewMediaRepo(pool *pgxpool.Pool) *MediaRepo {
	return &MediaRepo{pool: pool}
}

// AddImage stores an image row. Avatar and banner replace the previous image of that kind,
// whose object key is returned so the caller can delete the object.
func (r *MediaRepo) AddImage(ctx context.Context, userID string, img model.Image, galleryLimit int) (model.Image, string, error) {
	if userID == "" || img.ObjectKey == "" || img.Kind == "" {
		return model.Image{}, "", fmt.Errorf("invalid image payload")
	}

	var replacedKey string
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
SELECT object_key, position
FROM profile_images
WHERE user_id = $1 AND kind = $2
ORDER BY position
FOR UPDATE
`, userID, string(img.Kind))
		if err != nil {
			return fmt.Errorf("query image positions: %w", err)
		}

		positions := map[int]struct{}{}
		var existing []string
		for rows.Next() {
			var key string
			var position int
			if err := rows.Scan(&key, &position); err != nil {
				rows.Close()
				return fmt.Errorf("scan image position: %w", err)
			}
			positions[position] = struct{}{}
			existing = append(existing, key)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate image positions: %w", err)
		}

		if img.Kind == enums.ImageKindGallery {
			if galleryLimit > 0 && len(positions) >= galleryLimit {
				return ErrLimitReached
			}
			img.Position = nextPosition(positions, galleryLimit)
		} else {
			img.Position = 1
			if len(existing) > 0 {
				replacedKey = existing[0]
				if _, err := tx.Exec(ctx, `DELETE FROM profile_images WHERE user_id = $1 AND kind = $2`, userID, string(img.Kind)); err != nil {
					return fmt.Errorf("delete replaced image: %w", err)
				}
			}
		}

		return tx.QueryRow(ctx, `
INSERT INTO profile_images (user_id, kind, object_key, position, created_at)
VALUES ($1, $2, $3, $4, NOW())
RETURNING created_at
`, userID, string(img.Kind), img.ObjectKey, img.Position).Scan(&img.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, ErrLimitReached) {
			return model.Image{}, "", ErrLimitReached
		}
		return model.Image{}, "", fmt.Errorf("add image: %w", err)
	}

	return img, replacedKey, nil
}

func (r *MediaRepo) DeleteImage(ctx context.Context, userID string, kind enums.ImageKind, objectKey string) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM profile_images
WHERE user_id = $1 AND kind = $2 AND object_key = $3
`, userID, string(kind), objectKey)
	if err != nil {
		return false, fmt.Errorf("delete image: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *MediaRepo) ListImages(ctx context.Context, userID string) ([]model.Image, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT kind, object_key, position, created_at
FROM profile_images
WHERE user_id = $1
ORDER BY kind ASC, position ASC, created_at ASC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	items := make([]model.Image, 0)
	for rows.Next() {
		var img model.Image
		if err := rows.Scan(&img.Kind, &img.ObjectKey, &img.Position, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		items = append(items, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}

	return items, nil
}

func (r *MediaRepo) AddTombstone(ctx context.Context, objectKey, reason string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO media_tombstones (object_key, reason, attempts, created_at)
VALUES ($1, $2, 0, NOW())
ON CONFLICT (object_key) DO NOTHING
`, objectKey, reason); err != nil {
		return fmt.Errorf("add media tombstone: %w", err)
	}

	return nil
}

func (r *MediaRepo) ListTombstones(ctx context.Context, maxAttempts, limit int) ([]model.MediaTombstone, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, object_key, reason, attempts, created_at
FROM media_tombstones
WHERE attempts < $1
ORDER BY created_at ASC
LIMIT $2
`, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("list media tombstones: %w", err)
	}
	defer rows.Close()

	items := make([]model.MediaTombstone, 0)
	for rows.Next() {
		var t model.MediaTombstone
		if err := rows.Scan(&t.ID, &t.ObjectKey, &t.Reason, &t.Attempts, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan media tombstone: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media tombstones: %w", err)
	}

	return items, nil
}

func (r *MediaRepo) DeleteTombstone(ctx context.Context, id int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM media_tombstones WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete media tombstone: %w", err)
	}
	return nil
}

func (r *MediaRepo) MarkTombstoneAttempt(ctx context.Context, id int64, at time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if _, err := r.pool.Exec(ctx, `
UPDATE media_tombstones
SET attempts = attempts + 1, last_attempt_at = $2
WHERE id = $1
`, id, at.UTC()); err != nil {
		return fmt.Errorf("mark media tombstone attempt: %w", err)
	}
	return nil
}

func nextPosition(used map[int]struct{}, limit int) int {
	for pos := 1; limit <= 0 || pos <= limit; pos++ {
		if _, ok := used[pos]; !ok {
			return pos
		}
	}
	return 0
}
