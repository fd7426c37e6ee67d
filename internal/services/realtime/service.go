package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type EventType string

const (
	EventMatchCreated       EventType = "match.created"
	EventMatchRemoved       EventType = "match.removed"
	EventChatMessage        EventType = "chat.message"
	EventChatMessageUpdated EventType = "chat.message.updated"
	EventGameState          EventType = "game.state"
	EventVibeCheckProgress  EventType = "vibecheck.progress"
	EventVibeCheckComplete  EventType = "vibecheck.complete"
	EventSessionChanged     EventType = "session.changed"
)

type Event struct {
	Type   EventType `json:"type"`
	ChatID string    `json:"chat_id,omitempty"`
	Data   any       `json:"data,omitempty"`
	At     time.Time `json:"at"`
}

type Subscription interface {
	Events() <-chan []byte
	Close() error
}

type Broker interface {
	Publish(ctx context.Context, userID string, payload []byte) error
	Subscribe(ctx context.Context, userID string) (Subscription, error)
}

// Service fans events out to users through the broker. Delivery is best effort.
type Service struct {
	broker Broker
	logger *zap.Logger
	now    func() time.Time
}

func NewService(broker Broker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		broker: broker,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) Publish(ctx context.Context, event Event, userIDs ...string) error {
	if s.broker == nil {
		return fmt.Errorf("realtime broker is not configured")
	}
	if event.At.IsZero() {
		event.At = s.now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode realtime event: %w", err)
	}

	var errs []error
	for _, userID := range userIDs {
		if userID == "" {
			continue
		}
		if err := s.broker.Publish(ctx, userID, payload); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Notify publishes and only logs failures. Used after a change is already committed.
func (s *Service) Notify(ctx context.Context, event Event, userIDs ...string) {
	if s == nil {
		return
	}
	if err := s.Publish(ctx, event, userIDs...); err != nil {
		s.logger.Warn("realtime publish failed",
			zap.String("event", string(event.Type)),
			zap.String("chat_id", event.ChatID),
			zap.Error(err),
		)
	}
}

func (s *Service) Subscribe(ctx context.Context, userID string) (Subscription, error) {
	if s.broker == nil {
		return nil, fmt.Errorf("realtime broker is not configured")
	}
	return s.broker.Subscribe(ctx, userID)
}
