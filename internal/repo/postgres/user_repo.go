package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bondly-app/backend/internal/domain/enums"
	"github.com/bondly-app/backend/internal/domain/model"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

type UserRecord struct {
	User         model.User
	PasswordHash string
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Create inserts the user together with an empty profile.
func (r *UserRepo) Create(ctx context.Context, user model.User, passwordHash string) (model.User, error) {
	if user.ID == "" || strings.TrimSpace(user.Email) == "" || passwordHash == "" {
		return model.User{}, fmt.Errorf("invalid user payload")
	}
	if user.Role == "" {
		user.Role = enums.RoleUser
	}

	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
INSERT INTO users (id, email, password_hash, display_name, role, created_at)
VALUES ($1, LOWER($2), $3, $4, $5, $6)
RETURNING created_at
`, user.ID, strings.TrimSpace(user.Email), passwordHash, user.DisplayName, string(user.Role), user.CreatedAt.UTC()).Scan(&user.CreatedAt)
		if err != nil {
			if IsUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("insert user: %w", err)
		}

		if _, err := tx.Exec(ctx, `
INSERT INTO profiles (user_id, display_name, bio, vibe_tags, match_ids, updated_at)
VALUES ($1, $2, '', '{}', '{}', $3)
`, user.ID, user.DisplayName, user.CreatedAt); err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.User{}, err
	}

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}

	return r.scanOne(ctx, `
SELECT u.id, u.email, u.password_hash, u.display_name, COALESCE(av.object_key, ''), u.role, u.created_at
FROM users u
LEFT JOIN profile_images av ON av.user_id = u.id AND av.kind = 'avatar'
WHERE u.email = LOWER($1)
`, strings.TrimSpace(email))
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}

	return r.scanOne(ctx, `
SELECT u.id, u.email, u.password_hash, u.display_name, COALESCE(av.object_key, ''), u.role, u.created_at
FROM users u
LEFT JOIN profile_images av ON av.user_id = u.id AND av.kind = 'avatar'
WHERE u.id = $1
`, id)
}

// scanOne leaves the avatar object key in User.PhotoURL; callers resolve it to a URL.
func (r *UserRepo) scanOne(ctx context.Context, sql string, arg string) (UserRecord, error) {
	var rec UserRecord
	err := r.pool.QueryRow(ctx, sql, arg).Scan(
		&rec.User.ID,
		&rec.User.Email,
		&rec.PasswordHash,
		&rec.User.DisplayName,
		&rec.User.PhotoURL,
		&rec.User.Role,
		&rec.User.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrNotFound
		}
		return UserRecord{}, fmt.Errorf("get user: %w", err)
	}

	return rec, nil
}
