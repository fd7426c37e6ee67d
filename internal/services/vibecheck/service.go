package vibecheck

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
	vc "github.com/bondly-app/backend/internal/domain/vibecheck"
	pgrepo "github.com/bondly-app/backend/internal/repo/postgres"
	realtimesvc "github.com/bondly-app/backend/internal/services/realtime"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrChatNotFound    = errors.New("chat not found")
	ErrForbidden       = errors.New("not a chat participant")
	ErrAlreadyComplete = vc.ErrAlreadyComplete
	ErrOutOfOrder      = vc.ErrOutOfOrder
	ErrInvalidChoice   = vc.ErrInvalidChoice
)

type TxRunner interface {
	WithLockedTx(ctx context.Context, key string, fn func(context.Context, pgx.Tx) error) error
}

type AnswerStore interface {
	ListAnswers(ctx context.Context, tx pgx.Tx, chatID string) ([]vc.Answer, error)
	InsertAnswer(ctx context.Context, tx pgx.Tx, chatID string, answer vc.Answer, at time.Time) error
	GetCompletion(ctx context.Context, tx pgx.Tx, chatID string) (vc.Result, bool, error)
	SaveCompletion(ctx context.Context, tx pgx.Tx, chatID string, result vc.Result, at time.Time) error
}

type ChatStore interface {
	Get(ctx context.Context, tx pgx.Tx, id string) (model.Chat, error)
	UpdateActivity(ctx context.Context, tx pgx.Tx, chat model.Chat) error
}

type MessageStore interface {
	Append(ctx context.Context, tx pgx.Tx, messages ...model.Message) error
}

type Notifier interface {
	Notify(ctx context.Context, event realtimesvc.Event, userIDs ...string)
}

type Config struct {
	Questions []vc.Question
}

type Dependencies struct {
	Tx       TxRunner
	Answers  AnswerStore
	Chats    ChatStore
	Messages MessageStore
	Notifier Notifier
	Logger   *zap.Logger
}

// Snapshot is the vibe check as seen by one participant.
type Snapshot struct {
	ChatID       string        `json:"chat_id"`
	Questions    []vc.Question `json:"questions"`
	Result       vc.Result     `json:"result"`
	MyAnswers    []string      `json:"my_answers"`
	PeerProgress int           `json:"peer_progress"`
}

type Service struct {
	tx        TxRunner
	answers   AnswerStore
	chats     ChatStore
	messages  MessageStore
	notifier  Notifier
	logger    *zap.Logger
	questions []vc.Question
	now       func() time.Time
	newID     func() string
}

func NewService(deps Dependencies, cfg Config) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	questions := cfg.Questions
	if len(questions) == 0 {
		questions = vc.DefaultQuestions()
	}

	return &Service{
		tx:        deps.Tx,
		answers:   deps.Answers,
		chats:     deps.Chats,
		messages:  deps.Messages,
		notifier:  deps.Notifier,
		logger:    logger,
		questions: questions,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// IsComplete reports whether the vibe check of chat is complete. A recorded completion is final.
func (s *Service) IsComplete(ctx context.Context, tx pgx.Tx, chat model.Chat) (bool, error) {
	check, err := s.load(ctx, tx, chat)
	if err != nil {
		return false, err
	}
	return check.Status() == vc.StatusComplete, nil
}

func (s *Service) Status(ctx context.Context, userID, chatID string) (Snapshot, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(chatID) == "" {
		return Snapshot{}, ErrValidation
	}
	if s.chats == nil || s.answers == nil {
		return Snapshot{}, fmt.Errorf("vibe check dependencies are not configured")
	}

	chat, err := s.chats.Get(ctx, nil, chatID)
	if err != nil {
		return Snapshot{}, chatError(err)
	}
	if !chat.HasUser(userID) {
		return Snapshot{}, ErrForbidden
	}

	check, stored, err := s.restore(ctx, nil, chat)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(chat, check, stored, userID), nil
}

// Answer records one answer. Completing the check appends a system message to the chat.
func (s *Service) Answer(ctx context.Context, userID, chatID string, index int, choice string) (Snapshot, error) {
	choice = strings.ToLower(strings.TrimSpace(choice))
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(chatID) == "" || choice == "" || index < 0 {
		return Snapshot{}, ErrValidation
	}
	if s.tx == nil || s.chats == nil || s.answers == nil || s.messages == nil {
		return Snapshot{}, fmt.Errorf("vibe check dependencies are not configured")
	}

	var (
		snap     Snapshot
		chat     model.Chat
		summary  *model.Message
		complete bool
	)
	err := s.tx.WithLockedTx(ctx, chatID, func(txCtx context.Context, tx pgx.Tx) error {
		var err error
		chat, err = s.chats.Get(txCtx, tx, chatID)
		if err != nil {
			return chatError(err)
		}
		if !chat.HasUser(userID) {
			return ErrForbidden
		}

		check, stored, err := s.restore(txCtx, tx, chat)
		if err != nil {
			return err
		}
		if err := check.Record(userID, index, choice); err != nil {
			return err
		}

		answer := vc.Answer{UserID: userID, Index: index, Choice: choice}
		now := s.now().UTC()
		if err := s.answers.InsertAnswer(txCtx, tx, chatID, answer, now); err != nil {
			if errors.Is(err, pgrepo.ErrConflict) {
				return fmt.Errorf("%w: question %d already answered", ErrOutOfOrder, index)
			}
			return fmt.Errorf("insert answer: %w", err)
		}
		stored = append(stored, answer)

		if check.Status() == vc.StatusComplete {
			complete = true
			result := check.Result()
			if err := s.answers.SaveCompletion(txCtx, tx, chatID, result, now); err != nil {
				return fmt.Errorf("save completion: %w", err)
			}
			check.MarkComplete(result)
			msg := s.summaryMessage(&chat, result, now)
			if err := s.messages.Append(txCtx, tx, msg); err != nil {
				return fmt.Errorf("append summary: %w", err)
			}
			if err := s.chats.UpdateActivity(txCtx, tx, chat); err != nil {
				return fmt.Errorf("update chat: %w", err)
			}
			summary = &msg
		}

		snap = s.snapshot(chat, check, stored, userID)
		return nil
	})
	if err != nil {
		if errors.Is(err, vc.ErrNotParticipant) {
			return Snapshot{}, ErrForbidden
		}
		return Snapshot{}, err
	}

	s.publish(ctx, chat, snap, summary, complete)
	return snap, nil
}

func (s *Service) load(ctx context.Context, tx pgx.Tx, chat model.Chat) (*vc.Check, error) {
	if s.answers == nil {
		return nil, fmt.Errorf("vibe check dependencies are not configured")
	}
	result, done, err := s.answers.GetCompletion(ctx, tx, chat.ID)
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	if done {
		c := vc.New(s.questions, chat.Participants())
		c.MarkComplete(result)
		return c, nil
	}
	check, _, err := s.restore(ctx, tx, chat)
	return check, err
}

// restore replays stored answers and pins a recorded completion over them.
func (s *Service) restore(ctx context.Context, tx pgx.Tx, chat model.Chat) (*vc.Check, []vc.Answer, error) {
	stored, err := s.answers.ListAnswers(ctx, tx, chat.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list answers: %w", err)
	}
	check, err := vc.Restore(s.questions, chat.Participants(), stored)
	if err != nil {
		return nil, nil, err
	}
	result, done, err := s.answers.GetCompletion(ctx, tx, chat.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("get completion: %w", err)
	}
	if done {
		check.MarkComplete(result)
	}
	return check, stored, nil
}

func (s *Service) summaryMessage(chat *model.Chat, result vc.Result, now time.Time) model.Message {
	text := fmt.Sprintf("You matched on %d of %d", result.MatchCount, result.Total)
	if result.Celebrate {
		text += ". Great vibes!"
	}

	at := now.Truncate(time.Microsecond)
	if !at.After(chat.LastMessageAt) {
		at = chat.LastMessageAt.Add(time.Microsecond)
	}
	chat.LastMessage = text
	chat.LastMessageAt = at

	return model.Message{
		ID:        s.newID(),
		ChatID:    chat.ID,
		Type:      enums.MessageTypeSystem,
		Text:      text,
		CreatedAt: at,
	}
}

func (s *Service) snapshot(chat model.Chat, check *vc.Check, stored []vc.Answer, userID string) Snapshot {
	mine := make([]string, 0, len(s.questions))
	for _, a := range stored {
		if a.UserID == userID {
			mine = append(mine, a.Choice)
		}
	}
	peer, _ := chat.OtherUser(userID)

	return Snapshot{
		ChatID:       chat.ID,
		Questions:    check.Questions(),
		Result:       check.Result(),
		MyAnswers:    mine,
		PeerProgress: check.Progress(peer),
	}
}

func (s *Service) publish(ctx context.Context, chat model.Chat, snap Snapshot, summary *model.Message, complete bool) {
	if s.notifier == nil {
		return
	}
	participants := chat.Participants()
	if summary != nil {
		s.notifier.Notify(ctx, realtimesvc.Event{
			Type:   realtimesvc.EventChatMessage,
			ChatID: chat.ID,
			Data:   *summary,
			At:     summary.CreatedAt,
		}, participants[:]...)
	}

	eventType := realtimesvc.EventVibeCheckProgress
	if complete {
		eventType = realtimesvc.EventVibeCheckComplete
	}
	s.notifier.Notify(ctx, realtimesvc.Event{
		Type:   eventType,
		ChatID: chat.ID,
		Data:   snap.Result,
		At:     s.now().UTC(),
	}, participants[:]...)
}

func chatError(err error) error {
	if errors.Is(err, pgrepo.ErrNotFound) {
		return ErrChatNotFound
	}
	return fmt.Errorf("get chat: %w", err)
}
