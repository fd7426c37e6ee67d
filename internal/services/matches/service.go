package matches

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/bondly-app/backend/internal/domain/enums"
	"github.com/bondly-app/backend/internal/domain/rules"
	pgrepo "github.com/bondly-app/backend/internal/repo/postgres"
	realtimesvc "github.com/bondly-app/backend/internal/services/realtime"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

var (
	ErrValidation    = errors.New("validation error")
	ErrMatchNotFound = errors.New("match not found")
)

type TxRunner interface {
	WithLockedTx(ctx context.Context, key string, fn func(context.Context, pgx.Tx) error) error
}

type MatchStore interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]pgrepo.MatchListRecord, error)
	Delete(ctx context.Context, tx pgx.Tx, id string) (bool, error)
	MarkUnmatched(ctx context.Context, tx pgx.Tx, id string, at time.Time) error
}

type ProfileStore interface {
	RemoveMatch(ctx context.Context, tx pgx.Tx, userID, peerID string) error
}

type SessionStore interface {
	Delete(ctx context.Context, chatID string) error
}

type PhotoResolver interface {
	PublicURL(objectKey string) string
}

type Notifier interface {
	Notify(ctx context.Context, event realtimesvc.Event, userIDs ...string)
}

type Dependencies struct {
	Tx       TxRunner
	Matches  MatchStore
	Profiles ProfileStore
	Sessions SessionStore
	Photos   PhotoResolver
	Notifier Notifier
	Logger   *zap.Logger
}

type Service struct {
	tx       TxRunner
	matches  MatchStore
	profiles ProfileStore
	sessions SessionStore
	photos   PhotoResolver
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// MatchItem is one entry of the match list; ChatID equals ID.
type MatchItem struct {
	ID            string     `json:"id"`
	ChatID        string     `json:"chat_id"`
	PeerID        string     `json:"peer_id"`
	DisplayName   string     `json:"display_name"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	Vibe          enums.Vibe `json:"vibe"`
	LastMessage   string     `json:"last_message"`
	LastMessageAt time.Time  `json:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		tx:       deps.Tx,
		matches:  deps.Matches,
		profiles: deps.Profiles,
		sessions: deps.Sessions,
		photos:   deps.Photos,
		notifier: deps.Notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) List(ctx context.Context, userID string, limit int) ([]MatchItem, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrValidation
	}
	if s.matches == nil {
		return nil, fmt.Errorf("match store is nil")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := s.matches.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	items := make([]MatchItem, 0, len(rows))
	for _, row := range rows {
		item := MatchItem{
			ID:            row.Match.ID,
			ChatID:        row.Match.ID,
			PeerID:        row.PeerID,
			DisplayName:   row.PeerDisplayName,
			Vibe:          row.Vibe,
			LastMessage:   row.LastMessage,
			LastMessageAt: row.LastMessageAt,
			CreatedAt:     row.Match.CreatedAt,
		}
		if row.PeerAvatarKey != "" && s.photos != nil {
			item.AvatarURL = s.photos.PublicURL(row.PeerAvatarKey)
		}
		items = append(items, item)
	}
	return items, nil
}

// Unmatch removes the match between userID and targetID together with its chat and game session.
// Earlier right swipes stop counting, so a rematch needs both users to swipe right again.
func (s *Service) Unmatch(ctx context.Context, userID, targetID string) error {
	userID = strings.TrimSpace(userID)
	targetID = strings.TrimSpace(targetID)
	if userID == "" || targetID == "" || userID == targetID {
		return ErrValidation
	}
	if s.tx == nil || s.matches == nil || s.profiles == nil {
		return fmt.Errorf("unmatch dependencies are not configured")
	}

	matchID := rules.PairKey(userID, targetID)
	err := s.tx.WithLockedTx(ctx, matchID, func(txCtx context.Context, tx pgx.Tx) error {
		deleted, err := s.matches.Delete(txCtx, tx, matchID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrMatchNotFound
		}
		if err := s.matches.MarkUnmatched(txCtx, tx, matchID, s.now().UTC()); err != nil {
			return err
		}
		if err := s.profiles.RemoveMatch(txCtx, tx, userID, targetID); err != nil {
			return err
		}
		return s.profiles.RemoveMatch(txCtx, tx, targetID, userID)
	})
	if err != nil {
		return err
	}

	if s.sessions != nil {
		if err := s.sessions.Delete(ctx, matchID); err != nil {
			s.logger.Warn("delete game session after unmatch failed", zap.String("chat_id", matchID), zap.Error(err))
		}
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, realtimesvc.Event{
			Type:   realtimesvc.EventMatchRemoved,
			ChatID: matchID,
			Data:   map[string]string{"match_id": matchID},
			At:     s.now().UTC(),
		}, userID, targetID)
	}
	return nil
}
