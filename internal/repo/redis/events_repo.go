package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	realtimesvc "github.com/bondly-app/backend/internal/services/realtime"
)

const userEventsPrefix = "events:user:"

type EventsRepo struct {
	client *goredis.Client
}

func NewEventsRepo(client *goredis.Client) *EventsRepo {
	return &EventsRepo{client: client}
}

func (r *EventsRepo) Publish(ctx context.Context, userID string, payload []byte) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if err := r.client.Publish(ctx, userEventsKey(userID), payload).Err(); err != nil {
		return fmt.Errorf("publish user event: %w", err)
	}
	return nil
}

// Subscribe delivers payloads published for userID until ctx ends or Close is called.
func (r *EventsRepo) Subscribe(ctx context.Context, userID string) (realtimesvc.Subscription, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	pubsub := r.client.Subscribe(ctx, userEventsKey(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe user events: %w", err)
	}

	out := make(chan []byte, 16)
	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return &subscription{pubsub: pubsub, events: out}, nil
}

type subscription struct {
	pubsub *goredis.PubSub
	events chan []byte
}

func (s *subscription) Events() <-chan []byte {
	return s.events
}

func (s *subscription) Close() error {
	return s.pubsub.Close()
}

func userEventsKey(userID string) string {
	return userEventsPrefix + userID
}
