package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bondly-app/backend/internal/domain/model"
)

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) Create(ctx context.Context, tx pgx.Tx, chat model.Chat) error {
	if chat.ID == "" || chat.UserAID == "" || chat.UserBID == "" {
		return fmt.Errorf("invalid chat payload")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	_, err := tx.Exec(ctx, `
INSERT INTO chats (
	id,
	user_a_id,
	user_b_id,
	base_vibe,
	vibe,
	last_message,
	last_message_at,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, chat.ID, chat.UserAID, chat.UserBID, string(chat.BaseVibe), string(chat.Vibe),
		chat.LastMessage, chat.LastMessageAt.UTC(), chat.CreatedAt.UTC())
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create chat: %w", err)
	}

	return nil
}

func (r *ChatRepo) Get(ctx context.Context, tx pgx.Tx, id string) (model.Chat, error) {
	q, err := pick(r.pool, tx)
	if err != nil {
		return model.Chat{}, err
	}

	var c model.Chat
	err = q.QueryRow(ctx, `
SELECT id, user_a_id, user_b_id, base_vibe, vibe, last_message, last_message_at, created_at
FROM chats
WHERE id = $1
`, id).Scan(
		&c.ID,
		&c.UserAID,
		&c.UserBID,
		&c.BaseVibe,
		&c.Vibe,
		&c.LastMessage,
		&c.LastMessageAt,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Chat{}, ErrNotFound
		}
		return model.Chat{}, fmt.Errorf("get chat: %w", err)
	}

	return c, nil
}

// UpdateActivity stores the preview, timestamp and current vibe of chat.
func (r *ChatRepo) UpdateActivity(ctx context.Context, tx pgx.Tx, chat model.Chat) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	tag, err := tx.Exec(ctx, `
UPDATE chats
SET vibe = $2, last_message = $3, last_message_at = $4
WHERE id = $1
`, chat.ID, string(chat.Vibe), chat.LastMessage, chat.LastMessageAt.UTC())
	if err != nil {
		return fmt.Errorf("update chat activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
