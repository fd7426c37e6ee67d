package vibecheck

import (
	"errors"
	"testing"
)

var pair = [2]string{"user-a", "user-b"}

func TestCheckCompletesAfterAllAnswers(t *testing.T) {
	c := New(DefaultQuestions(), pair)
	if c.Status() != StatusNeeded {
		t.Fatalf("expected needed, got %s", c.Status())
	}

	a := []string{"agree", "agree", "disagree"}
	b := []string{"agree", "disagree", "disagree"}
	for i := range a {
		if err := c.Record("user-a", i, a[i]); err != nil {
			t.Fatalf("record a[%d]: %v", i, err)
		}
		if c.Status() != StatusInProgress {
			t.Fatalf("expected in_progress after first answers, got %s", c.Status())
		}
		if err := c.Record("user-b", i, b[i]); err != nil {
			t.Fatalf("record b[%d]: %v", i, err)
		}
	}

	res := c.Result()
	if res.Status != StatusComplete {
		t.Fatalf("expected complete, got %s", res.Status)
	}
	if res.MatchCount != 1 || res.Total != 3 {
		t.Fatalf("expected 1 of 3, got %d of %d", res.MatchCount, res.Total)
	}
	if res.Celebrate {
		t.Fatalf("1 of 3 must not celebrate")
	}
	if err := c.Record("user-a", 3, "agree"); !errors.Is(err, ErrAlreadyComplete) {
		t.Fatalf("expected already complete, got %v", err)
	}
}

func TestCheckRejectsOutOfOrderAndUnknownChoice(t *testing.T) {
	c := New(DefaultQuestions(), pair)
	if err := c.Record("user-a", 1, "agree"); !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected out of order, got %v", err)
	}
	if err := c.Record("user-a", 0, "maybe"); !errors.Is(err, ErrInvalidChoice) {
		t.Fatalf("expected invalid choice, got %v", err)
	}
	if err := c.Record("user-c", 0, "agree"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected not participant, got %v", err)
	}
	if c.Status() != StatusNeeded {
		t.Fatalf("rejected answers must not change status, got %s", c.Status())
	}
}

func TestRestoreCelebratesMajority(t *testing.T) {
	stored := []Answer{
		{UserID: "user-a", Index: 0, Choice: "agree"},
		{UserID: "user-a", Index: 1, Choice: "agree"},
		{UserID: "user-a", Index: 2, Choice: "agree"},
		{UserID: "user-b", Index: 0, Choice: "agree"},
		{UserID: "user-b", Index: 1, Choice: "agree"},
		{UserID: "user-b", Index: 2, Choice: "disagree"},
	}
	c, err := Restore(DefaultQuestions(), pair, stored)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	res := c.Result()
	if res.Status != StatusComplete || res.MatchCount != 2 || !res.Celebrate {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRestoreIgnoresAnswersPastQuestionSet(t *testing.T) {
	stored := []Answer{
		{UserID: "user-a", Index: 0, Choice: "agree"},
		{UserID: "user-a", Index: 1, Choice: "agree"},
		{UserID: "user-a", Index: 2, Choice: "disagree"},
		{UserID: "user-b", Index: 0, Choice: "agree"},
	}
	c, err := Restore(DefaultQuestions()[:2], pair, stored)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if c.Progress("user-a") != 2 || c.Progress("user-b") != 1 {
		t.Fatalf("unexpected progress: a=%d b=%d", c.Progress("user-a"), c.Progress("user-b"))
	}
	if c.Status() != StatusInProgress {
		t.Fatalf("expected in_progress, got %s", c.Status())
	}
}

func TestMarkCompleteSurvivesLongerQuestionSet(t *testing.T) {
	questions := append(DefaultQuestions(), Question{Prompt: "Dogs over cats.", Options: [2]string{"agree", "disagree"}})
	c := New(questions, pair)
	c.MarkComplete(Result{MatchCount: 2, Total: 3, Celebrate: true})

	if c.Status() != StatusComplete {
		t.Fatalf("expected complete, got %s", c.Status())
	}
	res := c.Result()
	if res.Status != StatusComplete || res.MatchCount != 2 || res.Total != 3 || !res.Celebrate {
		t.Fatalf("unexpected pinned result: %+v", res)
	}
	if err := c.Record("user-a", 0, "agree"); !errors.Is(err, ErrAlreadyComplete) {
		t.Fatalf("expected already complete, got %v", err)
	}
}
