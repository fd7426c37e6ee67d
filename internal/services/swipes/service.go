package swipes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/bondly-app/backend/internal/domain/enums"
	"github.com/bondly-app/backend/internal/domain/model"
	"github.com/bondly-app/backend/internal/domain/rules"
	pgrepo "github.com/bondly-app/backend/internal/repo/postgres"
	realtimesvc "github.com/bondly-app/backend/internal/services/realtime"
)

const defaultOpeningLine = "It's a match! Finish the vibe check to start chatting."

var (
	ErrValidation           = errors.New("validation error")
	ErrUnsupportedDirection = errors.New("unsupported direction")
	ErrTargetNotFound       = errors.New("swiped user not found")
)

type TxRunner interface {
	WithLockedTx(ctx context.Context, key string, fn func(context.Context, pgx.Tx) error) error
}

type SwipeStore interface {
	Create(ctx context.Context, tx pgx.Tx, swipe model.Swipe) (model.Swipe, error)
	HasRightSwipe(ctx context.Context, tx pgx.Tx, swiperID, swipedID string) (bool, error)
}

type MatchStore interface {
	CreateIfAbsent(ctx context.Context, tx pgx.Tx, match model.Match) (bool, error)
}

type ChatStore interface {
	Create(ctx context.Context, tx pgx.Tx, chat model.Chat) error
}

type MessageStore interface {
	Append(ctx context.Context, tx pgx.Tx, messages ...model.Message) error
}

type ProfileStore interface {
	AppendMatch(ctx context.Context, tx pgx.Tx, userID, peerID string) error
}

type RateLimiter interface {
	Check(ctx context.Context, userID string) error
}

type Notifier interface {
	Notify(ctx context.Context, event realtimesvc.Event, userIDs ...string)
}

type Config struct {
	DefaultVibe enums.Vibe
	OpeningLine string
}

type Result struct {
	IsMatch bool
	MatchID string
}

type Dependencies struct {
	Tx          TxRunner
	Swipes      SwipeStore
	Matches     MatchStore
	Chats       ChatStore
	Messages    MessageStore
	Profiles    ProfileStore
	RateLimiter RateLimiter
	Notifier    Notifier
	Logger      *zap.Logger
}

type Service struct {
	tx          TxRunner
	swipes      SwipeStore
	matches     MatchStore
	chats       ChatStore
	messages    MessageStore
	profiles    ProfileStore
	rateLimiter RateLimiter
	notifier    Notifier
	logger      *zap.Logger
	cfg         Config
	now         func() time.Time
	newID       func() string
}

func NewService(deps Dependencies, cfg Config) *Service {
	if _, ok := enums.ParseVibe(string(cfg.DefaultVibe)); !ok {
		cfg.DefaultVibe = enums.VibeFriends
	}
	if strings.TrimSpace(cfg.OpeningLine) == "" {
		cfg.OpeningLine = defaultOpeningLine
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		tx:          deps.Tx,
		swipes:      deps.Swipes,
		matches:     deps.Matches,
		chats:       deps.Chats,
		messages:    deps.Messages,
		profiles:    deps.Profiles,
		rateLimiter: deps.RateLimiter,
		notifier:    deps.Notifier,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// RecordSwipe stores the swipe and, for a reciprocated right swipe, creates the match, its chat
// and the opening message in the same transaction. IsMatch is true only when this call created the match.
func (s *Service) RecordSwipe(ctx context.Context, swiperID, swipedID, direction string) (Result, error) {
	swiperID = strings.TrimSpace(swiperID)
	swipedID = strings.TrimSpace(swipedID)
	if swiperID == "" || swipedID == "" || swiperID == swipedID {
		return Result{}, ErrValidation
	}
	dir, ok := enums.ParseSwipeDirection(direction)
	if !ok {
		return Result{}, ErrUnsupportedDirection
	}
	if s.tx == nil || s.swipes == nil || s.matches == nil || s.chats == nil || s.messages == nil || s.profiles == nil {
		return Result{}, fmt.Errorf("swipe dependencies are not configured")
	}

	if dir == enums.SwipeDirectionRight && s.rateLimiter != nil {
		if err := s.rateLimiter.Check(ctx, swiperID); err != nil {
			return Result{}, err
		}
	}

	now := s.now().UTC()
	pairKey := rules.PairKey(swiperID, swipedID)
	created := false
	err := s.tx.WithLockedTx(ctx, pairKey, func(txCtx context.Context, tx pgx.Tx) error {
		if _, err := s.swipes.Create(txCtx, tx, model.Swipe{
			ID:        s.newID(),
			SwiperID:  swiperID,
			SwipedID:  swipedID,
			Direction: dir,
			CreatedAt: now,
		}); err != nil {
			if errors.Is(err, pgrepo.ErrNotFound) {
				return ErrTargetNotFound
			}
			return err
		}
		if dir != enums.SwipeDirectionRight {
			return nil
		}

		reciprocal, err := s.swipes.HasRightSwipe(txCtx, tx, swipedID, swiperID)
		if err != nil {
			return err
		}
		if !reciprocal {
			return nil
		}

		created, err = s.createMatch(txCtx, tx, pairKey, swiperID, swipedID, now)
		return err
	})
	if err != nil {
		return Result{}, err
	}

	if !created {
		return Result{}, nil
	}

	s.logger.Info("match created", zap.String("match_id", pairKey))
	if s.notifier != nil {
		s.notifier.Notify(ctx, realtimesvc.Event{
			Type:   realtimesvc.EventMatchCreated,
			ChatID: pairKey,
			Data:   map[string]string{"match_id": pairKey},
			At:     now,
		}, swiperID, swipedID)
	}

	return Result{IsMatch: true, MatchID: pairKey}, nil
}

func (s *Service) createMatch(ctx context.Context, tx pgx.Tx, pairKey, swiperID, swipedID string, now time.Time) (bool, error) {
	userA, userB := rules.OrderedPair(swiperID, swipedID)
	created, err := s.matches.CreateIfAbsent(ctx, tx, model.Match{
		ID:        pairKey,
		UserAID:   userA,
		UserBID:   userB,
		CreatedAt: now,
	})
	if err != nil || !created {
		return false, err
	}

	chat := model.Chat{
		ID:            pairKey,
		UserAID:       userA,
		UserBID:       userB,
		BaseVibe:      s.cfg.DefaultVibe,
		Vibe:          s.cfg.DefaultVibe,
		LastMessage:   s.cfg.OpeningLine,
		LastMessageAt: now,
		CreatedAt:     now,
	}
	if err := s.chats.Create(ctx, tx, chat); err != nil {
		return false, err
	}
	if err := s.messages.Append(ctx, tx, model.Message{
		ID:        s.newID(),
		ChatID:    chat.ID,
		Type:      enums.MessageTypeSystem,
		Text:      s.cfg.OpeningLine,
		CreatedAt: now,
	}); err != nil {
		return false, err
	}
	if err := s.profiles.AppendMatch(ctx, tx, swiperID, swipedID); err != nil {
		return false, err
	}
	if err := s.profiles.AppendMatch(ctx, tx, swipedID, swiperID); err != nil {
		return false, err
	}

	return true, nil
}
