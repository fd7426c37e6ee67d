package chats

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/bondly-app/backend/internal/domain/enums"
	"github.com/bondly-app/backend/internal/domain/game"
	"github.com/bondly-app/backend/internal/domain/model"
	"github.com/bondly-app/backend/internal/pkg/validate"
	pgrepo "github.com/bondly-app/backend/internal/repo/postgres"
	realtimesvc "github.com/bondly-app/backend/internal/services/realtime"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
	maxTextLength   = 2000
)

var (
	ErrValidation        = errors.New("validation error")
	ErrChatNotFound      = errors.New("chat not found")
	ErrForbidden         = errors.New("not a chat participant")
	ErrIllegalTransition = game.ErrIllegalTransition
	ErrComposerDisabled  = game.ErrComposerDisabled
	ErrVibeCheckPending  = game.ErrVibeCheckPending
)

type TxRunner interface {
	WithLockedTx(ctx context.Context, key string, fn func(context.Context, pgx.Tx) error) error
}

type ChatStore interface {
	Get(ctx context.Context, tx pgx.Tx, id string) (model.Chat, error)
	UpdateActivity(ctx context.Context, tx pgx.Tx, chat model.Chat) error
}

type MessageStore interface {
	Append(ctx context.Context, tx pgx.Tx, messages ...model.Message) error
	List(ctx context.Context, chatID string, after time.Time, limit int) ([]model.Message, error)
	Get(ctx context.Context, tx pgx.Tx, id string) (model.Message, error)
	CreateChallengeResponse(ctx context.Context, tx pgx.Tx, resp model.ChallengeResponse) (bool, error)
}

type SessionStore interface {
	Load(ctx context.Context, chatID string) (game.State, error)
	Save(ctx context.Context, chatID string, state game.State) error
}

// Gate reports whether the vibe check of chat is complete.
type Gate interface {
	IsComplete(ctx context.Context, tx pgx.Tx, chat model.Chat) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, event realtimesvc.Event, userIDs ...string)
}

type Dependencies struct {
	Tx       TxRunner
	Chats    ChatStore
	Messages MessageStore
	Sessions SessionStore
	Gate     Gate
	Notifier Notifier
	Logger   *zap.Logger
}

// Outcome.Updated is an earlier message the action changed, such as a challenge that got its response.
type Outcome struct {
	View     game.View
	Messages []model.Message
	Response *model.ChallengeResponse
	Updated  *model.Message
}

type Service struct {
	tx       TxRunner
	chats    ChatStore
	messages MessageStore
	sessions SessionStore
	gate     Gate
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
	flip     func(participants [2]string) string
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		tx:       deps.Tx,
		chats:    deps.Chats,
		messages: deps.Messages,
		sessions: deps.Sessions,
		gate:     deps.Gate,
		notifier: deps.Notifier,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
		flip: func(participants [2]string) string {
			return participants[rand.IntN(2)]
		},
	}
}

func (s *Service) State(ctx context.Context, userID, chatID string) (game.View, error) {
	chat, err := s.participantChat(ctx, userID, chatID)
	if err != nil {
		return game.View{}, err
	}

	complete, err := s.gate.IsComplete(ctx, nil, chat)
	if err != nil {
		return game.View{}, fmt.Errorf("read vibe check: %w", err)
	}
	state, err := s.sessions.Load(ctx, chatID)
	if err != nil {
		return game.View{}, fmt.Errorf("load game session: %w", err)
	}

	conv := game.NewConversation(chat, complete, state)
	conv.ResetLapsedVibe()
	return conv.View(userID), nil
}

func (s *Service) ListMessages(ctx context.Context, userID, chatID string, after time.Time, limit int) ([]model.Message, error) {
	if _, err := s.participantChat(ctx, userID, chatID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	items, err := s.messages.List(ctx, chatID, after, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return items, nil
}

func (s *Service) SendText(ctx context.Context, userID, chatID, text string) (Outcome, error) {
	if err := validateText(text); err != nil {
		return Outcome{}, err
	}
	return s.apply(ctx, userID, chatID, "send_text", func(c *game.Conversation) (game.Effect, error) {
		return c.SendText(userID, text)
	})
}

func (s *Service) SelectGame(ctx context.Context, userID, chatID string, deck, gameType string, level int) (Outcome, error) {
	d, ok := enums.ParseDeck(deck)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: unknown deck %q", ErrValidation, deck)
	}
	t, ok := enums.ParseGameType(gameType)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: unknown game type %q", ErrValidation, gameType)
	}
	sel := game.Selection{Deck: d, Type: t, Level: level}
	return s.apply(ctx, userID, chatID, "select_game", func(c *game.Conversation) (game.Effect, error) {
		return c.SelectGame(userID, sel)
	})
}

// Toss flips the coin for the chat and starts the game with the winner's turn.
func (s *Service) Toss(ctx context.Context, userID, chatID string) (Outcome, error) {
	return s.apply(ctx, userID, chatID, "toss", func(c *game.Conversation) (game.Effect, error) {
		return c.ResolveToss(s.flip(c.Chat.Participants()))
	})
}

func (s *Service) AskQuestion(ctx context.Context, userID, chatID, text string) (Outcome, error) {
	if err := validateText(text); err != nil {
		return Outcome{}, err
	}
	return s.apply(ctx, userID, chatID, "ask_question", func(c *game.Conversation) (game.Effect, error) {
		return c.AskQuestion(userID, text)
	})
}

func (s *Service) SubmitAnswer(ctx context.Context, userID, chatID, text string) (Outcome, error) {
	if err := validateText(text); err != nil {
		return Outcome{}, err
	}
	return s.apply(ctx, userID, chatID, "submit_answer", func(c *game.Conversation) (game.Effect, error) {
		return c.SubmitAnswer(userID, text)
	})
}

func (s *Service) SendChallenge(ctx context.Context, userID, chatID, truth, dare string) (Outcome, error) {
	if err := validateText(truth); err != nil {
		return Outcome{}, err
	}
	if err := validateText(dare); err != nil {
		return Outcome{}, err
	}
	return s.apply(ctx, userID, chatID, "send_challenge", func(c *game.Conversation) (game.Effect, error) {
		return c.SendChallenge(userID, truth, dare)
	})
}

func (s *Service) RespondToChallenge(ctx context.Context, userID, chatID, messageID, choice string) (Outcome, error) {
	ch, ok := enums.ParseChallengeChoice(strings.ToLower(strings.TrimSpace(choice)))
	if !ok || strings.TrimSpace(messageID) == "" {
		return Outcome{}, fmt.Errorf("%w: choice must be truth or dare", ErrValidation)
	}
	return s.apply(ctx, userID, chatID, "respond_challenge", func(c *game.Conversation) (game.Effect, error) {
		return c.RespondToChallenge(userID, messageID, ch)
	})
}

func (s *Service) EndGame(ctx context.Context, userID, chatID string) (Outcome, error) {
	return s.apply(ctx, userID, chatID, "end_game", func(c *game.Conversation) (game.Effect, error) {
		return c.EndGame(userID)
	})
}

// apply runs one transition under the chat lock. The session is written last inside the
// transaction and put back if the commit fails.
func (s *Service) apply(ctx context.Context, userID, chatID, action string, transition func(*game.Conversation) (game.Effect, error)) (Outcome, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(chatID) == "" {
		return Outcome{}, ErrValidation
	}
	if s.tx == nil || s.chats == nil || s.messages == nil || s.sessions == nil || s.gate == nil {
		return Outcome{}, fmt.Errorf("chat dependencies are not configured")
	}

	var (
		conv    *game.Conversation
		effect  game.Effect
		prev    game.State
		updated *model.Message
		written bool
	)
	err := s.tx.WithLockedTx(ctx, chatID, func(txCtx context.Context, tx pgx.Tx) error {
		chat, err := s.chats.Get(txCtx, tx, chatID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrNotFound) {
				return ErrChatNotFound
			}
			return fmt.Errorf("get chat: %w", err)
		}
		if !chat.HasUser(userID) {
			return ErrForbidden
		}

		complete, err := s.gate.IsComplete(txCtx, tx, chat)
		if err != nil {
			return fmt.Errorf("read vibe check: %w", err)
		}
		prev, err = s.sessions.Load(txCtx, chatID)
		if err != nil {
			return fmt.Errorf("load game session: %w", err)
		}

		conv = game.NewConversation(chat, complete, prev, game.WithClock(s.now), game.WithIDs(s.newID))
		lapsed := conv.ResetLapsedVibe()
		effect, err = transition(conv)
		if err != nil {
			return err
		}
		if lapsed {
			effect.VibeChanged = conv.Chat.Vibe != chat.Vibe
		}

		if err := s.messages.Append(txCtx, tx, effect.Messages...); err != nil {
			return fmt.Errorf("append messages: %w", err)
		}
		if effect.Response != nil {
			challenge, err := s.messages.Get(txCtx, tx, effect.Response.MessageID)
			if err != nil || challenge.ChatID != chatID {
				if err == nil || errors.Is(err, pgrepo.ErrNotFound) {
					return fmt.Errorf("%w: challenge %s not in chat", ErrIllegalTransition, effect.Response.MessageID)
				}
				return fmt.Errorf("get challenge: %w", err)
			}
			answered := challenge.ApplyResponse(*effect.Response)
			updated = &answered

			created, err := s.messages.CreateChallengeResponse(txCtx, tx, *effect.Response)
			if err != nil {
				return fmt.Errorf("record challenge response: %w", err)
			}
			if !created {
				return fmt.Errorf("%w: challenge already answered", ErrIllegalTransition)
			}
		}
		if len(effect.Messages) > 0 || effect.VibeChanged {
			if err := s.chats.UpdateActivity(txCtx, tx, conv.Chat); err != nil {
				return fmt.Errorf("update chat: %w", err)
			}
		}

		if err := s.sessions.Save(txCtx, chatID, conv.State); err != nil {
			return fmt.Errorf("save game session: %w", err)
		}
		written = true
		return nil
	})
	if err != nil {
		if written {
			s.restoreSession(ctx, chatID, prev)
		}
		return Outcome{}, s.mapError(action, chatID, userID, err)
	}

	s.publish(ctx, conv, effect, updated)

	return Outcome{
		View:     conv.View(userID),
		Messages: effect.Messages,
		Response: effect.Response,
		Updated:  updated,
	}, nil
}

func (s *Service) restoreSession(ctx context.Context, chatID string, prev game.State) {
	if err := s.sessions.Save(context.WithoutCancel(ctx), chatID, prev); err != nil {
		s.logger.Error("restore game session failed", zap.String("chat_id", chatID), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, conv *game.Conversation, effect game.Effect, updated *model.Message) {
	if s.notifier == nil || conv == nil {
		return
	}
	participants := conv.Chat.Participants()
	if updated != nil {
		s.notifier.Notify(ctx, realtimesvc.Event{
			Type:   realtimesvc.EventChatMessageUpdated,
			ChatID: conv.Chat.ID,
			Data:   *updated,
			At:     s.now().UTC(),
		}, participants[:]...)
	}
	for _, msg := range effect.Messages {
		s.notifier.Notify(ctx, realtimesvc.Event{
			Type:   realtimesvc.EventChatMessage,
			ChatID: conv.Chat.ID,
			Data:   msg,
			At:     msg.CreatedAt,
		}, participants[:]...)
	}
	for _, p := range participants {
		s.notifier.Notify(ctx, realtimesvc.Event{
			Type:   realtimesvc.EventGameState,
			ChatID: conv.Chat.ID,
			Data:   conv.View(p),
		}, p)
	}
}

func (s *Service) mapError(action, chatID, userID string, err error) error {
	switch {
	case errors.Is(err, game.ErrIllegalTransition):
		s.logger.Debug("illegal game transition ignored",
			zap.String("action", action),
			zap.String("chat_id", chatID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return err
	case errors.Is(err, game.ErrNotParticipant):
		return ErrForbidden
	case errors.Is(err, game.ErrEmptyText), errors.Is(err, game.ErrInvalidSelection):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	default:
		return err
	}
}

func (s *Service) participantChat(ctx context.Context, userID, chatID string) (model.Chat, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(chatID) == "" {
		return model.Chat{}, ErrValidation
	}
	if s.chats == nil || s.messages == nil || s.sessions == nil || s.gate == nil {
		return model.Chat{}, fmt.Errorf("chat dependencies are not configured")
	}

	chat, err := s.chats.Get(ctx, nil, chatID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrNotFound) {
			return model.Chat{}, ErrChatNotFound
		}
		return model.Chat{}, fmt.Errorf("get chat: %w", err)
	}
	if !chat.HasUser(userID) {
		return model.Chat{}, ErrForbidden
	}
	return chat, nil
}

func validateText(text string) error {
	if !validate.Required(text) {
		return fmt.Errorf("%w: text is required", ErrValidation)
	}
	if !validate.MaxLength(text, maxTextLength) {
		return fmt.Errorf("%w: text exceeds %d characters", ErrValidation, maxTextLength)
	}
	return nil
}
