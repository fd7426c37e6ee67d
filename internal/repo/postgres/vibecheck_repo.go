package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bondly-app/backend/internal/domain/vibecheck"
)

type VibeCheckRepo struct {
	pool *pgxpool.Pool
}

func NewVibeCheckRepo(pool *pgxpool.Pool) *VibeCheckRepo {
	return &VibeCheckRepo{pool: pool}
}

func (r *VibeCheckRepo) ListAnswers(ctx context.Context, tx pgx.Tx, chatID string) ([]vibecheck.Answer, error) {
	q, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
SELECT user_id, question_index, choice
FROM vibe_check_answers
WHERE chat_id = $1
ORDER BY user_id ASC, question_index ASC
`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list vibe check answers: %w", err)
	}
	defer rows.Close()

	items := make([]vibecheck.Answer, 0, 6)
	for rows.Next() {
		var a vibecheck.Answer
		if err := rows.Scan(&a.UserID, &a.Index, &a.Choice); err != nil {
			return nil, fmt.Errorf("scan vibe check answer: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vibe check answers: %w", err)
	}

	return items, nil
}

func (r *VibeCheckRepo) InsertAnswer(ctx context.Context, tx pgx.Tx, chatID string, answer vibecheck.Answer, at time.Time) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	_, err := tx.Exec(ctx, `
INSERT INTO vibe_check_answers (chat_id, user_id, question_index, choice, created_at)
VALUES ($1, $2, $3, $4, $5)
`, chatID, answer.UserID, answer.Index, answer.Choice, at.UTC())
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert vibe check answer: %w", err)
	}

	return nil
}

func (r *VibeCheckRepo) GetCompletion(ctx context.Context, tx pgx.Tx, chatID string) (vibecheck.Result, bool, error) {
	q, err := pick(r.pool, tx)
	if err != nil {
		return vibecheck.Result{}, false, err
	}

	var res vibecheck.Result
	err = q.QueryRow(ctx, `
SELECT match_count, total, celebrate
FROM vibe_checks
WHERE chat_id = $1
`, chatID).Scan(&res.MatchCount, &res.Total, &res.Celebrate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return vibecheck.Result{}, false, nil
		}
		return vibecheck.Result{}, false, fmt.Errorf("get vibe check completion: %w", err)
	}
	res.Status = vibecheck.StatusComplete

	return res, true, nil
}

func (r *VibeCheckRepo) SaveCompletion(ctx context.Context, tx pgx.Tx, chatID string, result vibecheck.Result, at time.Time) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	tag, err := tx.Exec(ctx, `
INSERT INTO vibe_checks (chat_id, match_count, total, celebrate, completed_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (chat_id) DO NOTHING
`, chatID, result.MatchCount, result.Total, result.Celebrate, at.UTC())
	if err != nil {
		return fmt.Errorf("save vibe check completion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}

	return nil
}
