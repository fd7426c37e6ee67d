package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/bondly-app/backend/internal/services/auth"
)

// Key layout:
//
//	auth:session:<sid>   hash  user_id, role, expires_at, refresh (hash of the live refresh token)
//	auth:refresh:<hash>  string sid
//	auth:user:<user_id>  zset  sid scored by expiry, pruned on every sign-in
const (
	authSessionPrefix = "auth:session:"
	authRefreshPrefix = "auth:refresh:"
	authUserPrefix    = "auth:user:"
)

type SessionRepo struct {
	client *goredis.Client
	now    func() time.Time
}

func NewSessionRepo(client *goredis.Client) *SessionRepo {
	return &SessionRepo{client: client, now: time.Now}
}

func (r *SessionRepo) Create(ctx context.Context, session authsvc.SessionRecord, refreshToken string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(session.SID) == "" || strings.TrimSpace(refreshToken) == "" || session.UserID == "" {
		return authsvc.ErrInvalidInput
	}

	refresh := authsvc.HashRefreshToken(refreshToken)
	ttl := r.ttlFor(session.ExpiresAt)
	userKey := authUserKey(session.UserID)

	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, authSessionKey(session.SID), map[string]any{
			"user_id":    session.UserID,
			"role":       session.Role,
			"expires_at": session.ExpiresAt.Unix(),
			"refresh":    refresh,
		})
		pipe.Expire(ctx, authSessionKey(session.SID), ttl)
		pipe.Set(ctx, authRefreshKey(refresh), session.SID, ttl)
		pipe.ZRemRangeByScore(ctx, userKey, "-inf", strconv.FormatInt(r.now().Unix(), 10))
		pipe.ZAdd(ctx, userKey, goredis.Z{Score: float64(session.ExpiresAt.Unix()), Member: session.SID})
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("create auth session: %w", err)
	}
	return nil
}

func (r *SessionRepo) GetSession(ctx context.Context, sid string) (authsvc.SessionRecord, error) {
	rec, _, err := r.load(ctx, sid)
	return rec, err
}

// GetByRefreshToken resolves the session whose live refresh token is refreshToken.
// A token that was already rotated away resolves to nothing.
func (r *SessionRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}

	refresh := authsvc.HashRefreshToken(refreshToken)
	sid, err := r.client.Get(ctx, authRefreshKey(refresh)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
		}
		return authsvc.SessionRecord{}, fmt.Errorf("get refresh pointer: %w", err)
	}

	rec, current, err := r.load(ctx, sid)
	if err != nil {
		if errors.Is(err, authsvc.ErrSessionNotFound) {
			return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
		}
		return authsvc.SessionRecord{}, err
	}
	if current != refresh {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}
	return rec, nil
}

// RotateRefresh swaps the live refresh token of sid. Two concurrent rotations of the same token
// cannot both win: the loser gets ErrRefreshNotFound.
func (r *SessionRepo) RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(newRefreshToken) == "" {
		return authsvc.ErrInvalidInput
	}

	oldHash := authsvc.HashRefreshToken(oldRefreshToken)
	newHash := authsvc.HashRefreshToken(newRefreshToken)
	ttl := r.ttlFor(expiresAt)

	rotate := func(tx *goredis.Tx) error {
		owner, err := tx.Get(ctx, authRefreshKey(oldHash)).Result()
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				return authsvc.ErrRefreshNotFound
			}
			return fmt.Errorf("get refresh pointer: %w", err)
		}
		if sid != "" && owner != sid {
			return authsvc.ErrRefreshNotFound
		}
		values, err := tx.HMGet(ctx, authSessionKey(owner), "user_id", "refresh").Result()
		if err != nil {
			return fmt.Errorf("get auth session: %w", err)
		}
		userID, _ := values[0].(string)
		current, _ := values[1].(string)
		if userID == "" || current != oldHash {
			return authsvc.ErrRefreshNotFound
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, authRefreshKey(oldHash))
			pipe.Set(ctx, authRefreshKey(newHash), owner, ttl)
			pipe.HSet(ctx, authSessionKey(owner), "refresh", newHash, "expires_at", expiresAt.Unix())
			pipe.Expire(ctx, authSessionKey(owner), ttl)
			pipe.ZAdd(ctx, authUserKey(userID), goredis.Z{Score: float64(expiresAt.Unix()), Member: owner})
			pipe.Expire(ctx, authUserKey(userID), ttl)
			return nil
		})
		return err
	}

	err := r.client.Watch(ctx, rotate, authRefreshKey(oldHash))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, goredis.TxFailedErr):
		return authsvc.ErrRefreshNotFound
	case errors.Is(err, authsvc.ErrRefreshNotFound):
		return err
	default:
		return fmt.Errorf("rotate refresh token: %w", err)
	}
}

func (r *SessionRepo) DeleteSession(ctx context.Context, sid string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" {
		return nil
	}

	values, err := r.client.HMGet(ctx, authSessionKey(sid), "user_id", "refresh").Result()
	if err != nil {
		return fmt.Errorf("load auth session: %w", err)
	}
	userID, _ := values[0].(string)
	refresh, _ := values[1].(string)

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, authSessionKey(sid))
		if refresh != "" {
			pipe.Del(ctx, authRefreshKey(refresh))
		}
		if userID != "" {
			pipe.ZRem(ctx, authUserKey(userID), sid)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete auth session: %w", err)
	}
	return nil
}

func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(userID) == "" {
		return authsvc.ErrInvalidInput
	}

	sids, err := r.client.ZRange(ctx, authUserKey(userID), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	refreshes := make([]*goredis.StringCmd, len(sids))
	if len(sids) > 0 {
		_, err = r.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
			for i, sid := range sids {
				refreshes[i] = pipe.HGet(ctx, authSessionKey(sid), "refresh")
			}
			return nil
		})
		if err != nil && !errors.Is(err, goredis.Nil) {
			return fmt.Errorf("load user sessions: %w", err)
		}
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, sid := range sids {
			pipe.Del(ctx, authSessionKey(sid))
			if refresh := refreshes[i].Val(); refresh != "" {
				pipe.Del(ctx, authRefreshKey(refresh))
			}
		}
		pipe.Del(ctx, authUserKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

// load returns the session and the hash of its live refresh token.
func (r *SessionRepo) load(ctx context.Context, sid string) (authsvc.SessionRecord, string, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, "", fmt.Errorf("redis client is nil")
	}

	values, err := r.client.HGetAll(ctx, authSessionKey(sid)).Result()
	if err != nil {
		return authsvc.SessionRecord{}, "", fmt.Errorf("get auth session: %w", err)
	}
	if len(values) == 0 || strings.TrimSpace(values["user_id"]) == "" {
		return authsvc.SessionRecord{}, "", authsvc.ErrSessionNotFound
	}

	expiresUnix, err := strconv.ParseInt(values["expires_at"], 10, 64)
	if err != nil {
		return authsvc.SessionRecord{}, "", authsvc.ErrUnauthorized
	}

	return authsvc.SessionRecord{
		SID:       sid,
		UserID:    values["user_id"],
		Role:      values["role"],
		ExpiresAt: time.Unix(expiresUnix, 0).UTC(),
	}, values["refresh"], nil
}

func (r *SessionRepo) ttlFor(expiresAt time.Time) time.Duration {
	if ttl := expiresAt.Sub(r.now()); ttl > time.Second {
		return ttl
	}
	return time.Second
}

func authSessionKey(sid string) string {
	return authSessionPrefix + sid
}

func authRefreshKey(hash string) string {
	return authRefreshPrefix + hash
}

func authUserKey(userID string) string {
	return authUserPrefix + userID
}
