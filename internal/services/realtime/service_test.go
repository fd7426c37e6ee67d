package realtime_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/bondly-app/backend/internal/repo/redis"
	realtimesvc "github.com/bondly-app/backend/internal/services/realtime"
)

func TestPublishReachesSubscribedUser(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	svc := realtimesvc.NewService(redrepo.NewEventsRepo(client), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := svc.Subscribe(ctx, "user-b")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer func() { _ = sub.Close() }()

	if err := svc.Publish(ctx, realtimesvc.Event{
		Type:   realtimesvc.EventChatMessage,
		ChatID: "user-a_user-b",
		Data:   map[string]string{"text": "hi"},
	}, "user-a", "user-b"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case raw := <-sub.Events():
		var got struct {
			Type   string            `json:"type"`
			ChatID string            `json:"chat_id"`
			Data   map[string]string `json:"data"`
		}
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if got.Type != string(realtimesvc.EventChatMessage) || got.ChatID != "user-a_user-b" || got.Data["text"] != "hi" {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for event")
	}
}

func TestPublishWithoutBrokerFails(t *testing.T) {
	svc := realtimesvc.NewService(nil, nil)
	if err := svc.Publish(context.Background(), realtimesvc.Event{Type: realtimesvc.EventGameState}, "user-a"); err == nil {
		t.Fatalf("expected error without broker")
	}
}
