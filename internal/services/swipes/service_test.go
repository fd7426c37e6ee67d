package swipes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bondly-app/backend/internal/domain/enums"
	"github.com/bondly-app/backend/internal/domain/model"
	"github.com/bondly-app/backend/internal/domain/rules"
	pgrepo "github.com/bondly-app/backend/internal/repo/postgres"
	realtimesvc "github.com/bondly-app/backend/internal/services/realtime"
	matchsvc "github.com/bondly-app/backend/internal/services/matches"
	ratesvc "github.com/bondly-app/backend/internal/services/rate"
)

const (
	userA = "0a6f3f0e-4d7c-4b7f-9d3e-5f1f2b3c4d5e"
	userB = "7c1d2e3f-8a9b-4c0d-9e1f-2a3b4c5d6e7f"
)

type memoryState struct {
	swipes   []model.Swipe
	matches  map[string]model.Match
	chats    map[string]model.Chat
	messages []model.Message
	matchIDs map[string][]string
	cutoffs  map[string]time.Time
}

func (s memoryState) clone() memoryState {
	c := memoryState{
		swipes:   append([]model.Swipe(nil), s.swipes...),
		matches:  map[string]model.Match{},
		chats:    map[string]model.Chat{},
		messages: append([]model.Message(nil), s.messages...),
		matchIDs: map[string][]string{},
		cutoffs:  map[string]time.Time{},
	}
	for k, v := range s.cutoffs {
		c.cutoffs[k] = v
	}
	for k, v := range s.matches {
		c.matches[k] = v
	}
	for k, v := range s.chats {
		c.chats[k] = v
	}
	for k, v := range s.matchIDs {
		c.matchIDs[k] = append([]string(nil), v...)
	}
	return c
}

// memoryDB serializes transactions and rolls back every store on error.
type memoryDB struct {
	mu         sync.Mutex
	state      memoryState
	users      map[string]bool
	failChat   bool
	lockedKeys []string
}

func newMemoryDB(users ...string) *memoryDB {
	db := &memoryDB{
		state: memoryState{
			matches:  map[string]model.Match{},
			chats:    map[string]model.Chat{},
			matchIDs: map[string][]string{},
			cutoffs:  map[string]time.Time{},
		},
		users: map[string]bool{},
	}
	for _, u := range users {
		db.users[u] = true
	}
	return db
}

func (db *memoryDB) WithLockedTx(ctx context.Context, key string, fn func(context.Context, pgx.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.lockedKeys = append(db.lockedKeys, key)

	snapshot := db.state.clone()
	if err := fn(ctx, nil); err != nil {
		db.state = snapshot
		return err
	}
	return nil
}

func (db *memoryDB) Create(_ context.Context, _ pgx.Tx, swipe model.Swipe) (model.Swipe, error) {
	if !db.users[swipe.SwipedID] {
		return model.Swipe{}, pgrepo.ErrNotFound
	}
	db.state.swipes = append(db.state.swipes, swipe)
	return swipe, nil
}

func (db *memoryDB) HasRightSwipe(_ context.Context, _ pgx.Tx, swiperID, swipedID string) (bool, error) {
	cutoff := db.state.cutoffs[rules.PairKey(swiperID, swipedID)]
	for _, s := range db.state.swipes {
		if s.SwiperID == swiperID && s.SwipedID == swipedID && s.Direction == enums.SwipeDirectionRight && s.CreatedAt.After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

type matchStore struct{ db *memoryDB }

func (m matchStore) CreateIfAbsent(_ context.Context, _ pgx.Tx, match model.Match) (bool, error) {
	if _, ok := m.db.state.matches[match.ID]; ok {
		return false, nil
	}
	m.db.state.matches[match.ID] = match
	return true, nil
}

func (m matchStore) ListForUser(_ context.Context, userID string, _ int) ([]pgrepo.MatchListRecord, error) {
	out := make([]pgrepo.MatchListRecord, 0)
	for _, match := range m.db.state.matches {
		if peer, ok := match.OtherUser(userID); ok {
			out = append(out, pgrepo.MatchListRecord{Match: match, PeerID: peer})
		}
	}
	return out, nil
}

func (m matchStore) Delete(_ context.Context, _ pgx.Tx, id string) (bool, error) {
	if _, ok := m.db.state.matches[id]; !ok {
		return false, nil
	}
	delete(m.db.state.matches, id)
	delete(m.db.state.chats, id)
	return true, nil
}

func (m matchStore) MarkUnmatched(_ context.Context, _ pgx.Tx, id string, at time.Time) error {
	m.db.state.cutoffs[id] = at
	return nil
}

type chatStore struct{ db *memoryDB }

func (c chatStore) Create(_ context.Context, _ pgx.Tx, chat model.Chat) error {
	if c.db.failChat {
		return errors.New("store unavailable")
	}
	if _, ok := c.db.state.chats[chat.ID]; ok {
		return pgrepo.ErrConflict
	}
	c.db.state.chats[chat.ID] = chat
	return nil
}

type messageStore struct{ db *memoryDB }

func (m messageStore) Append(_ context.Context, _ pgx.Tx, messages ...model.Message) error {
	m.db.state.messages = append(m.db.state.messages, messages...)
	return nil
}

type profileStore struct{ db *memoryDB }

func (p profileStore) AppendMatch(_ context.Context, _ pgx.Tx, userID, peerID string) error {
	for _, id := range p.db.state.matchIDs[userID] {
		if id == peerID {
			return nil
		}
	}
	p.db.state.matchIDs[userID] = append(p.db.state.matchIDs[userID], peerID)
	return nil
}

func (p profileStore) RemoveMatch(_ context.Context, _ pgx.Tx, userID, peerID string) error {
	kept := p.db.state.matchIDs[userID][:0]
	for _, id := range p.db.state.matchIDs[userID] {
		if id != peerID {
			kept = append(kept, id)
		}
	}
	p.db.state.matchIDs[userID] = kept
	return nil
}

type notifierStub struct {
	mu     sync.Mutex
	events []realtimesvc.Event
	users  [][]string
}

func (n *notifierStub) Notify(_ context.Context, event realtimesvc.Event, userIDs ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	n.users = append(n.users, userIDs)
}

type rateLimiterStub struct {
	err   error
	calls int
}

func (r *rateLimiterStub) Check(context.Context, string) error {
	r.calls++
	return r.err
}

func newTestService(db *memoryDB, notifier *notifierStub, limiter RateLimiter) *Service {
	svc := NewService(Dependencies{
		Tx:          db,
		Swipes:      db,
		Matches:     matchStore{db: db},
		Chats:       chatStore{db: db},
		Messages:    messageStore{db: db},
		Profiles:    profileStore{db: db},
		RateLimiter: limiter,
		Notifier:    notifier,
	}, Config{})
	svc.now = func() time.Time { return time.Date(2026, 2, 14, 18, 0, 0, 0, time.UTC) }
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return svc
}

func TestMutualRightSwipeCreatesOneMatchInEitherOrder(t *testing.T) {
	orders := [][2]string{{userA, userB}, {userB, userA}}
	for _, order := range orders {
		db := newMemoryDB(userA, userB)
		notifier := &notifierStub{}
		svc := newTestService(db, notifier, nil)
		ctx := context.Background()

		first, err := svc.RecordSwipe(ctx, order[0], order[1], "right")
		if err != nil {
			t.Fatalf("first swipe: %v", err)
		}
		if first.IsMatch {
			t.Fatalf("first swipe must not match")
		}

		second, err := svc.RecordSwipe(ctx, order[1], order[0], "RIGHT")
		if err != nil {
			t.Fatalf("second swipe: %v", err)
		}
		if !second.IsMatch || second.MatchID != rules.PairKey(userA, userB) {
			t.Fatalf("expected match %q, got %+v", rules.PairKey(userA, userB), second)
		}

		if len(db.state.matches) != 1 || len(db.state.chats) != 1 {
			t.Fatalf("expected one match and one chat, got %d and %d", len(db.state.matches), len(db.state.chats))
		}
		chat := db.state.chats[second.MatchID]
		if chat.UserAID != userA || chat.UserBID != userB || chat.Vibe != enums.VibeFriends {
			t.Fatalf("unexpected chat: %+v", chat)
		}
		if len(db.state.messages) != 1 || db.state.messages[0].Type != enums.MessageTypeSystem {
			t.Fatalf("expected opening system message, got %+v", db.state.messages)
		}
		if got := db.state.matchIDs[userA]; len(got) != 1 || got[0] != userB {
			t.Fatalf("unexpected match list for A: %v", got)
		}
		if got := db.state.matchIDs[userB]; len(got) != 1 || got[0] != userA {
			t.Fatalf("unexpected match list for B: %v", got)
		}
		if len(notifier.events) != 1 || notifier.events[0].Type != realtimesvc.EventMatchCreated || len(notifier.users[0]) != 2 {
			t.Fatalf("expected one match event for both users, got %+v", notifier.events)
		}
		for _, key := range db.lockedKeys {
			if key != second.MatchID {
				t.Fatalf("expected every swipe to lock the pair key, got %q", key)
			}
		}
	}
}

func TestRepeatedMutualSwipesKeepOneMatch(t *testing.T) {
	db := newMemoryDB(userA, userB)
	svc := newTestService(db, &notifierStub{}, nil)
	ctx := context.Background()

	matches := 0
	for i := 0; i < 3; i++ {
		for _, pair := range [][2]string{{userA, userB}, {userB, userA}} {
			res, err := svc.RecordSwipe(ctx, pair[0], pair[1], "right")
			if err != nil {
				t.Fatalf("swipe: %v", err)
			}
			if res.IsMatch {
				matches++
			}
		}
	}

	if matches != 1 {
		t.Fatalf("expected exactly one reported match, got %d", matches)
	}
	if len(db.state.matches) != 1 || len(db.state.chats) != 1 || len(db.state.messages) != 1 {
		t.Fatalf("expected single match/chat/message, got %d/%d/%d", len(db.state.matches), len(db.state.chats), len(db.state.messages))
	}
	if len(db.state.swipes) != 6 {
		t.Fatalf("expected every swipe to be recorded, got %d", len(db.state.swipes))
	}
}

func TestConcurrentOppositeSwipesMatchOnce(t *testing.T) {
	db := newMemoryDB(userA, userB)
	svc := newTestService(db, &notifierStub{}, nil)

	var wg sync.WaitGroup
	results := make([]Result, 2)
	for i, pair := range [][2]string{{userA, userB}, {userB, userA}} {
		wg.Add(1)
		go func(i int, from, to string) {
			defer wg.Done()
			res, err := svc.RecordSwipe(context.Background(), from, to, "right")
			if err != nil {
				t.Errorf("swipe: %v", err)
			}
			results[i] = res
		}(i, pair[0], pair[1])
	}
	wg.Wait()

	if results[0].IsMatch == results[1].IsMatch {
		t.Fatalf("expected exactly one swipe to report the match, got %+v", results)
	}
	if len(db.state.matches) != 1 {
		t.Fatalf("expected one match, got %d", len(db.state.matches))
	}
}

func TestLeftSwipeNeverMatches(t *testing.T) {
	db := newMemoryDB(userA, userB)
	svc := newTestService(db, &notifierStub{}, nil)
	ctx := context.Background()

	if _, err := svc.RecordSwipe(ctx, userA, userB, "right"); err != nil {
		t.Fatalf("right swipe: %v", err)
	}
	res, err := svc.RecordSwipe(ctx, userB, userA, "left")
	if err != nil {
		t.Fatalf("left swipe: %v", err)
	}
	if res.IsMatch {
		t.Fatalf("left swipe must not match")
	}
	if len(db.state.matches) != 0 || len(db.state.swipes) != 2 {
		t.Fatalf("expected no match and two swipes, got %d and %d", len(db.state.matches), len(db.state.swipes))
	}
}

func TestSwipeValidation(t *testing.T) {
	db := newMemoryDB(userA, userB)
	svc := newTestService(db, &notifierStub{}, nil)
	ctx := context.Background()

	if _, err := svc.RecordSwipe(ctx, userA, userA, "right"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for self swipe, got %v", err)
	}
	if _, err := svc.RecordSwipe(ctx, "", userB, "right"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty swiper, got %v", err)
	}
	if _, err := svc.RecordSwipe(ctx, userA, userB, "up"); !errors.Is(err, ErrUnsupportedDirection) {
		t.Fatalf("expected unsupported direction, got %v", err)
	}
	if _, err := svc.RecordSwipe(ctx, userA, "ghost", "left"); !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("expected target not found, got %v", err)
	}
	if len(db.state.swipes) != 0 {
		t.Fatalf("rejected swipes must not be recorded, got %d", len(db.state.swipes))
	}
}

func TestStoreFailureRollsBackEverything(t *testing.T) {
	db := newMemoryDB(userA, userB)
	notifier := &notifierStub{}
	svc := newTestService(db, notifier, nil)
	ctx := context.Background()

	if _, err := svc.RecordSwipe(ctx, userA, userB, "right"); err != nil {
		t.Fatalf("right swipe: %v", err)
	}
	db.failChat = true
	if _, err := svc.RecordSwipe(ctx, userB, userA, "right"); err == nil {
		t.Fatalf("expected store error")
	}

	if len(db.state.swipes) != 1 || len(db.state.matches) != 0 || len(db.state.matchIDs) != 0 {
		t.Fatalf("expected rollback, got swipes=%d matches=%d", len(db.state.swipes), len(db.state.matches))
	}
	if len(notifier.events) != 0 {
		t.Fatalf("no event may be published for a failed swipe")
	}
}

func TestRateLimitedRightSwipeRecordsNothing(t *testing.T) {
	db := newMemoryDB(userA, userB)
	limiter := &rateLimiterStub{err: ratesvc.TooFastError{RetryAfterSec: 7}}
	svc := newTestService(db, &notifierStub{}, limiter)

	_, err := svc.RecordSwipe(context.Background(), userA, userB, "right")
	tf, ok := ratesvc.IsTooFast(err)
	if !ok || tf.RetryAfterSec != 7 {
		t.Fatalf("expected too fast error, got %v", err)
	}
	if len(db.state.swipes) != 0 {
		t.Fatalf("expected no swipe recorded")
	}

	if _, err := svc.RecordSwipe(context.Background(), userA, userB, "left"); err != nil {
		t.Fatalf("left swipes are not rate limited: %v", err)
	}
	if limiter.calls != 1 {
		t.Fatalf("expected limiter to be consulted once, got %d", limiter.calls)
	}
}

func TestUnmatchRequiresFreshSwipesFromBoth(t *testing.T) {
	db := newMemoryDB(userA, userB)
	svc := newTestService(db, &notifierStub{}, nil)
	matches := matchsvc.NewService(matchsvc.Dependencies{
		Tx:       db,
		Matches:  matchStore{db: db},
		Profiles: profileStore{db: db},
	})
	ctx := context.Background()

	// Swipes predate the unmatch, which runs on the wall clock.
	if _, err := svc.RecordSwipe(ctx, userA, userB, "right"); err != nil {
		t.Fatalf("first swipe: %v", err)
	}
	res, err := svc.RecordSwipe(ctx, userB, userA, "right")
	if err != nil || !res.IsMatch {
		t.Fatalf("expected match, got %+v err=%v", res, err)
	}

	if err := matches.Unmatch(ctx, userA, userB); err != nil {
		t.Fatalf("unmatch: %v", err)
	}
	if len(db.state.matches) != 0 || len(db.state.matchIDs[userA]) != 0 {
		t.Fatalf("expected match removed, got %+v", db.state.matches)
	}

	later := time.Now().UTC().Add(time.Minute)
	svc.now = func() time.Time { return later }
	res, err = svc.RecordSwipe(ctx, userA, userB, "right")
	if err != nil {
		t.Fatalf("swipe after unmatch: %v", err)
	}
	if res.IsMatch || len(db.state.matches) != 0 {
		t.Fatalf("a one-sided swipe after unmatch must not rematch, got %+v", res)
	}

	later = later.Add(time.Minute)
	res, err = svc.RecordSwipe(ctx, userB, userA, "right")
	if err != nil || !res.IsMatch {
		t.Fatalf("expected rematch after both swiped again, got %+v err=%v", res, err)
	}
}
