package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/bondly-app/backend/internal/repo/redis"
)

func TestLimiterBlocksOnShortWindow(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client), "swipes",
		Window{Name: "min", Limit: 100, Window: time.Minute},
		Window{Name: "10s", Limit: 2, Window: 10 * time.Second},
	)

	ctx := context.Background()
	userID := "user-42"

	for i := 0; i < 2; i++ {
		retryAfter, allowed, err := limiter.Allow(ctx, userID)
		if err != nil {
			t.Fatalf("allow #%d: %v", i+1, err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("unexpected result on allow #%d: allowed=%v retry_after=%d", i+1, allowed, retryAfter)
		}
	}

	retryAfter, allowed, err := limiter.Allow(ctx, userID)
	if err != nil {
		t.Fatalf("allow #3: %v", err)
	}
	if allowed {
		t.Fatalf("expected limiter block on third action in 10s window")
	}
	if retryAfter <= 0 || retryAfter > 10 {
		t.Fatalf("expected retry_after within the window, got %d", retryAfter)
	}

	currentRetry, err := limiter.RetryAfter(ctx, userID)
	if err != nil {
		t.Fatalf("retry_after state: %v", err)
	}
	if currentRetry <= 0 {
		t.Fatalf("expected positive retry_after state, got %d", currentRetry)
	}

	mr.FastForward(11 * time.Second)

	retryAfter, allowed, err = limiter.Allow(ctx, userID)
	if err != nil {
		t.Fatalf("allow after window: %v", err)
	}
	if !allowed || retryAfter != 0 {
		t.Fatalf("unexpected result after fast forward: allowed=%v retry_after=%d", allowed, retryAfter)
	}
}

func TestLimiterCheckReturnsTooFast(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client), "suggestions", Window{Name: "min", Limit: 1, Window: time.Minute})
	ctx := context.Background()

	if err := limiter.Check(ctx, "user-7"); err != nil {
		t.Fatalf("first check: %v", err)
	}
	err := limiter.Check(ctx, "user-7")
	tf, ok := IsTooFast(err)
	if !ok {
		t.Fatalf("expected too fast error, got %v", err)
	}
	if tf.RetryAfter() <= 0 {
		t.Fatalf("expected positive retry after, got %d", tf.RetryAfter())
	}
	if !errors.As(err, &TooFastError{}) {
		t.Fatalf("expected errors.As to match TooFastError")
	}

	if err := limiter.Check(ctx, "user-8"); err != nil {
		t.Fatalf("limits must be per user: %v", err)
	}
}

func TestLimiterWithoutWindowsAllowsEverything(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client), "swipes", Window{Name: "off", Limit: 0, Window: time.Minute})
	for i := 0; i < 5; i++ {
		if err := limiter.Check(context.Background(), "user-1"); err != nil {
			t.Fatalf("check #%d: %v", i+1, err)
		}
	}
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	return mr, client
}
