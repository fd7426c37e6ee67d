package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/bondly-app/backend/internal/repo/redis"
	authsvc "github.com/bondly-app/backend/internal/services/auth"
	realtimesvc "github.com/bondly-app/backend/internal/services/realtime"
)

type tokenStub map[string]string

func (s tokenStub) ValidateAccessToken(_ context.Context, token string) (authsvc.AccessClaims, error) {
	userID, ok := s[token]
	if !ok {
		return authsvc.AccessClaims{}, authsvc.ErrUnauthorized
	}
	return authsvc.AccessClaims{UserID: userID}, nil
}

func TestWSHandlerStreamsUserEvents(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = redisClient.Close() }()

	realtime := realtimesvc.NewService(redrepo.NewEventsRepo(redisClient), nil)
	h := NewWSHandler(tokenStub{"good": swipeTestUser}, realtime, []string{"*"}, nil)
	server := httptest.NewServer(http.HandlerFunc(h.Handle))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/ws?token=good"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	err = realtime.Publish(context.Background(), realtimesvc.Event{
		Type:   realtimesvc.EventMatchCreated,
		ChatID: "a_b",
	}, swipeTestUser)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var event realtimesvc.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Type != realtimesvc.EventMatchCreated || event.ChatID != "a_b" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestWSHandlerRejectsBadToken(t *testing.T) {
	h := NewWSHandler(tokenStub{}, realtimesvc.NewService(nil, nil), nil, nil)
	server := httptest.NewServer(http.HandlerFunc(h.Handle))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/ws?token=bad"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Fatalf("expected bad handshake, got %v", err)
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 response, got %+v", resp)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://bondly.app"})

	req := httptest.NewRequest(http.MethodGet, "/v1/ws", nil)
	if !check(req) {
		t.Fatalf("expected request without origin to pass")
	}
	req.Header.Set("Origin", "https://bondly.app")
	if !check(req) {
		t.Fatalf("expected allowed origin to pass")
	}
	req.Header.Set("Origin", "https://evil.example")
	if check(req) {
		t.Fatalf("expected unknown origin to be rejected")
	}
}
