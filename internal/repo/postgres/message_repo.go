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

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Append(ctx context.Context, tx pgx.Tx, messages ...model.Message) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if len(messages) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range messages {
		if m.ID == "" || m.ChatID == "" || m.Type == "" {
			return fmt.Errorf("invalid message payload")
		}
		var truth, dare *string
		if m.Challenge != nil {
			truth = &m.Challenge.Truth
			dare = &m.Challenge.Dare
		}
		batch.Queue(`
INSERT INTO messages (
	id,
	chat_id,
	sender_id,
	type,
	text,
	challenge_truth,
	challenge_dare,
	reply_to,
	created_at
) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, NULLIF($8, ''), $9)
`, m.ID, m.ChatID, m.SenderID, string(m.Type), m.Text, truth, dare, m.ReplyTo, m.CreatedAt.UTC())
	}

	results := tx.SendBatch(ctx, batch)
	for range messages {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("append message: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close message batch: %w", err)
	}

	return nil
}

// List returns messages in delivery order. A zero after lists from the start of the chat.
func (r *MessageRepo) List(ctx context.Context, chatID string, after time.Time, limit int) ([]model.Message, error) {
	if chatID == "" {
		return nil, fmt.Errorf("invalid chat id")
	}
	if limit <= 0 {
		limit = 200
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	m.id,
	m.chat_id,
	COALESCE(m.sender_id::text, ''),
	m.type,
	m.text,
	m.challenge_truth,
	m.challenge_dare,
	COALESCE(m.reply_to::text, ''),
	m.created_at,
	COALESCE(cr.choice, '')
FROM messages m
LEFT JOIN challenge_responses cr ON cr.message_id = m.id
WHERE m.chat_id = $1 AND m.created_at > $2
ORDER BY m.created_at ASC, m.id ASC
LIMIT $3
`, chatID, after.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	items := make([]model.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return items, nil
}

func (r *MessageRepo) Get(ctx context.Context, tx pgx.Tx, id string) (model.Message, error) {
	q, err := pick(r.pool, tx)
	if err != nil {
		return model.Message{}, err
	}

	row := q.QueryRow(ctx, `
SELECT
	m.id,
	m.chat_id,
	COALESCE(m.sender_id::text, ''),
	m.type,
	m.text,
	m.challenge_truth,
	m.challenge_dare,
	COALESCE(m.reply_to::text, ''),
	m.created_at,
	COALESCE(cr.choice, '')
FROM messages m
LEFT JOIN challenge_responses cr ON cr.message_id = m.id
WHERE m.id = $1
`, id)
	m, err := scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Message{}, ErrNotFound
	}
	return m, err
}

// CreateChallengeResponse reports false when the challenge already has a response.
func (r *MessageRepo) CreateChallengeResponse(ctx context.Context, tx pgx.Tx, resp model.ChallengeResponse) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	tag, err := tx.Exec(ctx, `
INSERT INTO challenge_responses (message_id, responder_id, choice, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (message_id) DO NOTHING
`, resp.MessageID, resp.ResponderID, string(resp.Choice), resp.CreatedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("create challenge response: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func scanMessage(row pgx.Row) (model.Message, error) {
	var (
		m      model.Message
		truth  *string
		dare   *string
		choice string
	)
	err := row.Scan(
		&m.ID,
		&m.ChatID,
		&m.SenderID,
		&m.Type,
		&m.Text,
		&truth,
		&dare,
		&m.ReplyTo,
		&m.CreatedAt,
		&choice,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Message{}, err
		}
		return model.Message{}, fmt.Errorf("scan message: %w", err)
	}

	if m.Type == enums.MessageTypeChallenge && truth != nil && dare != nil {
		m.Challenge = &model.Challenge{Truth: *truth, Dare: *dare}
		if choice != "" {
			m.Challenge.Responded = true
			m.Challenge.Choice = enums.ChallengeChoice(choice)
		}
	}

	return m, nil
}
