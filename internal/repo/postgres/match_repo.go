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

type MatchRepo struct {
	pool *pgxpool.Pool
}

type MatchListRecord struct {
	Match           model.Match
	PeerID          string
	PeerDisplayName string
	PeerAvatarKey   string
	Vibe            enums.Vibe
	LastMessage     string
	LastMessageAt   time.Time
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

// CreateIfAbsent reports whether this call created the match row.
func (r *MatchRepo) CreateIfAbsent(ctx context.Context, tx pgx.Tx, match model.Match) (bool, error) {
	if match.ID == "" || match.UserAID == "" || match.UserBID == "" {
		return false, fmt.Errorf("invalid match payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var id string
	err := tx.QueryRow(ctx, `
INSERT INTO matches (
	id,
	user_a_id,
	user_b_id,
	created_at
) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING
RETURNING id
`, match.ID, match.UserAID, match.UserBID, match.CreatedAt.UTC()).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("create match: %w", err)
	}

	return id != "", nil
}

// MarkUnmatched records when the pair last unmatched. Swipes before that instant no longer count
// toward a mutual match.
func (r *MatchRepo) MarkUnmatched(ctx context.Context, tx pgx.Tx, id string, at time.Time) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	_, err := tx.Exec(ctx, `
INSERT INTO unmatches (pair_id, unmatched_at)
VALUES ($1, $2)
ON CONFLICT (pair_id) DO UPDATE SET unmatched_at = EXCLUDED.unmatched_at
`, id, at.UTC())
	if err != nil {
		return fmt.Errorf("mark unmatched: %w", err)
	}

	return nil
}

func (r *MatchRepo) Delete(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	tag, err := tx.Exec(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete match: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *MatchRepo) ListForUser(ctx context.Context, userID string, limit int) ([]MatchListRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 100
	}
	if r.pool == nil {
		return []MatchListRecord{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	m.id,
	m.user_a_id,
	m.user_b_id,
	m.created_at,
	CASE WHEN m.user_a_id = $1 THEN m.user_b_id ELSE m.user_a_id END AS peer_id,
	COALESCE(p.display_name, ''),
	COALESCE(av.object_key, ''),
	COALESCE(c.vibe, ''),
	COALESCE(c.last_message, ''),
	COALESCE(c.last_message_at, m.created_at)
FROM matches m
LEFT JOIN profiles p ON p.user_id = CASE WHEN m.user_a_id = $1 THEN m.user_b_id ELSE m.user_a_id END
LEFT JOIN profile_images av ON av.user_id = p.user_id AND av.kind = 'avatar'
LEFT JOIN chats c ON c.id = m.id
WHERE m.user_a_id = $1 OR m.user_b_id = $1
ORDER BY COALESCE(c.last_message_at, m.created_at) DESC, m.id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	items := make([]MatchListRecord, 0, limit)
	for rows.Next() {
		var item MatchListRecord
		if err := rows.Scan(
			&item.Match.ID,
			&item.Match.UserAID,
			&item.Match.UserBID,
			&item.Match.CreatedAt,
			&item.PeerID,
			&item.PeerDisplayName,
			&item.PeerAvatarKey,
			&item.Vibe,
			&item.LastMessage,
			&item.LastMessageAt,
		); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}

	return items, nil
}
