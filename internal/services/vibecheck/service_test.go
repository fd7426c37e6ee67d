package vibecheck

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bondly-app/backend/internal/domain/enums"
	"github.com/bondly-app/backend/internal/domain/model"
	vc "github.com/bondly-app/backend/internal/domain/vibecheck"
	pgrepo "github.com/bondly-app/backend/internal/repo/postgres"
	realtimesvc "github.com/bondly-app/backend/internal/services/realtime"
)

const (
	alice  = "1b4e28ba-2fa1-4d3b-a3f5-ef19b5a7633b"
	bob    = "6ecd8c99-4036-403d-bf84-cf8400f67836"
	chatID = alice + "_" + bob
)

type memoryStore struct {
	mu       sync.Mutex
	chat     model.Chat
	answers  []vc.Answer
	result   *vc.Result
	messages []model.Message
	events   []realtimesvc.Event
}

func (m *memoryStore) WithLockedTx(ctx context.Context, _ string, fn func(context.Context, pgx.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	chat := m.chat
	answers := append([]vc.Answer(nil), m.answers...)
	messages := append([]model.Message(nil), m.messages...)
	result := m.result
	if err := fn(ctx, nil); err != nil {
		m.chat, m.answers, m.messages, m.result = chat, answers, messages, result
		return err
	}
	return nil
}

func (m *memoryStore) Get(_ context.Context, _ pgx.Tx, id string) (model.Chat, error) {
	if id != m.chat.ID {
		return model.Chat{}, pgrepo.ErrNotFound
	}
	return m.chat, nil
}

func (m *memoryStore) UpdateActivity(_ context.Context, _ pgx.Tx, chat model.Chat) error {
	m.chat = chat
	return nil
}

func (m *memoryStore) ListAnswers(_ context.Context, _ pgx.Tx, _ string) ([]vc.Answer, error) {
	return append([]vc.Answer(nil), m.answers...), nil
}

func (m *memoryStore) InsertAnswer(_ context.Context, _ pgx.Tx, _ string, answer vc.Answer, _ time.Time) error {
	for _, a := range m.answers {
		if a.UserID == answer.UserID && a.Index == answer.Index {
			return pgrepo.ErrConflict
		}
	}
	m.answers = append(m.answers, answer)
	return nil
}

func (m *memoryStore) GetCompletion(_ context.Context, _ pgx.Tx, _ string) (vc.Result, bool, error) {
	if m.result == nil {
		return vc.Result{}, false, nil
	}
	return *m.result, true, nil
}

func (m *memoryStore) SaveCompletion(_ context.Context, _ pgx.Tx, _ string, result vc.Result, _ time.Time) error {
	if m.result != nil {
		return pgrepo.ErrConflict
	}
	result.Status = vc.StatusComplete
	m.result = &result
	return nil
}

func (m *memoryStore) Append(_ context.Context, _ pgx.Tx, messages ...model.Message) error {
	m.messages = append(m.messages, messages...)
	return nil
}

func (m *memoryStore) Notify(_ context.Context, event realtimesvc.Event, _ ...string) {
	m.events = append(m.events, event)
}

func newTestService() (*Service, *memoryStore) {
	base := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	store := &memoryStore{chat: model.Chat{
		ID:            chatID,
		UserAID:       alice,
		UserBID:       bob,
		BaseVibe:      enums.VibeFriends,
		Vibe:          enums.VibeFriends,
		LastMessage:   "Say hi",
		LastMessageAt: base,
		CreatedAt:     base,
	}}
	svc := NewService(Dependencies{
		Tx:       store,
		Answers:  store,
		Chats:    store,
		Messages: store,
		Notifier: store,
	}, Config{})
	// Same instant as the opening line to exercise the monotonic timestamp.
	svc.now = func() time.Time { return base }
	svc.newID = func() string { return "summary" }
	return svc, store
}

func answerAll(t *testing.T, svc *Service, userID string, choices ...string) Snapshot {
	t.Helper()
	var snap Snapshot
	for i, choice := range choices {
		var err error
		snap, err = svc.Answer(context.Background(), userID, chatID, i, choice)
		if err != nil {
			t.Fatalf("answer %d by %s: %v", i, userID, err)
		}
	}
	return snap
}

func TestVibeCheckCompletesWithMatchCount(t *testing.T) {
	svc, store := newTestService()

	snap, err := svc.Status(context.Background(), alice, chatID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if snap.Result.Status != vc.StatusNeeded || snap.Result.Total != 3 {
		t.Fatalf("unexpected initial status: %+v", snap.Result)
	}

	snap = answerAll(t, svc, alice, "agree", "agree", "disagree")
	if snap.Result.Status != vc.StatusInProgress || len(snap.MyAnswers) != 3 || snap.PeerProgress != 0 {
		t.Fatalf("unexpected progress after alice: %+v", snap)
	}
	complete, err := svc.IsComplete(context.Background(), nil, store.chat)
	if err != nil || complete {
		t.Fatalf("expected incomplete check, got %v err=%v", complete, err)
	}

	snap = answerAll(t, svc, bob, "agree", "disagree", "disagree")
	if snap.Result.Status != vc.StatusComplete || snap.Result.MatchCount != 2 || !snap.Result.Celebrate {
		t.Fatalf("unexpected final result: %+v", snap.Result)
	}
	complete, err = svc.IsComplete(context.Background(), nil, store.chat)
	if err != nil || !complete {
		t.Fatalf("expected complete check, got %v err=%v", complete, err)
	}

	if len(store.messages) != 1 {
		t.Fatalf("expected one summary message, got %d", len(store.messages))
	}
	msg := store.messages[0]
	if msg.Type != enums.MessageTypeSystem || msg.Text != "You matched on 2 of 3. Great vibes!" {
		t.Fatalf("unexpected summary: %+v", msg)
	}
	if !msg.CreatedAt.After(store.chat.CreatedAt) || store.chat.LastMessage != msg.Text {
		t.Fatalf("expected chat preview to move forward, got %+v", store.chat)
	}

	last := store.events[len(store.events)-1]
	if last.Type != realtimesvc.EventVibeCheckComplete {
		t.Fatalf("expected completion event, got %s", last.Type)
	}
}

func TestVibeCheckRejectsFurtherAnswersOnceComplete(t *testing.T) {
	svc, store := newTestService()
	answerAll(t, svc, alice, "agree", "agree", "agree")
	answerAll(t, svc, bob, "disagree", "disagree", "disagree")

	_, err := svc.Answer(context.Background(), alice, chatID, 3, "agree")
	if !errors.Is(err, ErrAlreadyComplete) {
		t.Fatalf("expected already complete, got %v", err)
	}
	if len(store.messages) != 1 || store.messages[0].Text != "You matched on 0 of 3" {
		t.Fatalf("expected a single neutral summary, got %+v", store.messages)
	}
}

func TestVibeCheckAnswerValidation(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	if _, err := svc.Answer(ctx, alice, chatID, 1, "agree"); !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected out of order, got %v", err)
	}
	if _, err := svc.Answer(ctx, alice, chatID, 0, "maybe"); !errors.Is(err, ErrInvalidChoice) {
		t.Fatalf("expected invalid choice, got %v", err)
	}
	if _, err := svc.Answer(ctx, "stranger", chatID, 0, "agree"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.Answer(ctx, alice, "missing", 0, "agree"); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected chat not found, got %v", err)
	}
	if _, err := svc.Answer(ctx, alice, chatID, 0, " "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(store.answers) != 0 {
		t.Fatalf("expected no stored answers, got %+v", store.answers)
	}

	if _, err := svc.Answer(ctx, alice, chatID, 0, "Agree"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, err := svc.Answer(ctx, alice, chatID, 0, "agree"); !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected repeated answer to be rejected, got %v", err)
	}
}

func TestVibeCheckStaysCompleteAfterQuestionEdits(t *testing.T) {
	svc, store := newTestService()
	answerAll(t, svc, alice, "agree", "agree", "disagree")
	answerAll(t, svc, bob, "agree", "disagree", "disagree")
	if store.result == nil || store.result.MatchCount != 2 {
		t.Fatalf("expected recorded completion, got %+v", store.result)
	}

	extra := vc.Question{Prompt: "Dogs over cats.", Options: [2]string{"agree", "disagree"}}
	for name, questions := range map[string][]vc.Question{
		"fewer": vc.DefaultQuestions()[:2],
		"more":  append(vc.DefaultQuestions(), extra),
	} {
		edited := NewService(Dependencies{
			Tx:       store,
			Answers:  store,
			Chats:    store,
			Messages: store,
		}, Config{Questions: questions})

		complete, err := edited.IsComplete(context.Background(), nil, store.chat)
		if err != nil || !complete {
			t.Fatalf("%s: expected complete, got %v err=%v", name, complete, err)
		}
		snap, err := edited.Status(context.Background(), alice, chatID)
		if err != nil {
			t.Fatalf("%s: status: %v", name, err)
		}
		if snap.Result.Status != vc.StatusComplete || snap.Result.MatchCount != 2 || snap.Result.Total != 3 {
			t.Fatalf("%s: unexpected result: %+v", name, snap.Result)
		}
		if _, err := edited.Answer(context.Background(), alice, chatID, 3, "agree"); !errors.Is(err, ErrAlreadyComplete) {
			t.Fatalf("%s: expected already complete, got %v", name, err)
		}
	}
}
