package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/bondly-app/backend/internal/domain/game"
)

const (
	gameSessionPrefix  = "game:session:"
	defaultGameSessTTL = 6 * time.Hour
)

type GameRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewGameRepo(client *goredis.Client, ttl time.Duration) *GameRepo {
	if ttl <= 0 {
		ttl = defaultGameSessTTL
	}
	return &GameRepo{client: client, ttl: ttl}
}

// Load returns Idle when no session is stored for the chat.
func (r *GameRepo) Load(ctx context.Context, chatID string) (game.State, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, gameSessionKey(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return game.Idle{}, nil
		}
		return nil, fmt.Errorf("get game session: %w", err)
	}

	return game.Decode(raw)
}

// Save stores state and refreshes its idle TTL. Saving Idle removes the session.
func (r *GameRepo) Save(ctx context.Context, chatID string, state game.State) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if state == nil || state.Phase() == game.PhaseIdle {
		return r.Delete(ctx, chatID)
	}

	raw, err := game.Encode(state)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, gameSessionKey(chatID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save game session: %w", err)
	}

	return nil
}

func (r *GameRepo) Delete(ctx context.Context, chatID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, gameSessionKey(chatID)).Err(); err != nil {
		return fmt.Errorf("delete game session: %w", err)
	}
	return nil
}

func gameSessionKey(chatID string) string {
	return gameSessionPrefix + chatID
}
