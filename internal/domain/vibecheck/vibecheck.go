package vibecheck

import (
	"errors"
	"fmt"
)

type Status string

const (
	StatusNeeded     Status = "needed"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
)

var (
	ErrAlreadyComplete = errors.New("vibe check already complete")
	ErrOutOfOrder      = errors.New("vibe check answer out of order")
	ErrInvalidChoice   = errors.New("invalid vibe check choice")
	ErrNotParticipant  = errors.New("not a chat participant")
)

type Question struct {
	Prompt  string    `json:"prompt" yaml:"prompt"`
	Options [2]string `json:"options" yaml:"options"`
}

func (q Question) Allows(choice string) bool {
	return choice != "" && (q.Options[0] == choice || q.Options[1] == choice)
}

func DefaultQuestions() []Question {
	return []Question{
		{Prompt: "Pineapple belongs on pizza.", Options: [2]string{"agree", "disagree"}},
		{Prompt: "A perfect weekend starts before 9am.", Options: [2]string{"agree", "disagree"}},
		{Prompt: "Texting back fast matters.", Options: [2]string{"agree", "disagree"}},
	}
}

type Answer struct {
	UserID string `json:"user_id"`
	Index  int    `json:"index"`
	Choice string `json:"choice"`
}

type Result struct {
	Status     Status `json:"status"`
	MatchCount int    `json:"match_count"`
	Total      int    `json:"total"`
	Celebrate  bool   `json:"celebrate"`
}

// Check tracks both participants' answers for one chat. Answers are immutable once recorded.
type Check struct {
	questions    []Question
	participants [2]string
	answers      map[string][]string
	completed    *Result
}

func New(questions []Question, participants [2]string) *Check {
	return &Check{
		questions:    questions,
		participants: participants,
		answers:      make(map[string][]string, 2),
	}
}

// Restore rebuilds a check from stored answers, which must be ordered by index per user.
// Stored choices are not revalidated and answers past the current question set are ignored.
func Restore(questions []Question, participants [2]string, stored []Answer) (*Check, error) {
	c := New(questions, participants)
	for _, a := range stored {
		if a.UserID != participants[0] && a.UserID != participants[1] {
			return nil, fmt.Errorf("restore answer %d of %s: %w", a.Index, a.UserID, ErrNotParticipant)
		}
		if a.Index >= len(questions) {
			continue
		}
		if a.Index != len(c.answers[a.UserID]) {
			return nil, fmt.Errorf("restore answer %d of %s: %w", a.Index, a.UserID, ErrOutOfOrder)
		}
		c.answers[a.UserID] = append(c.answers[a.UserID], a.Choice)
	}
	return c, nil
}

// MarkComplete pins the check to a recorded result. Later question edits do not reopen it.
func (c *Check) MarkComplete(result Result) {
	result.Status = StatusComplete
	c.completed = &result
}

func (c *Check) Questions() []Question {
	return c.questions
}

func (c *Check) Record(userID string, index int, choice string) error {
	if userID == "" || (userID != c.participants[0] && userID != c.participants[1]) {
		return ErrNotParticipant
	}
	if c.Status() == StatusComplete {
		return ErrAlreadyComplete
	}
	if index != len(c.answers[userID]) || index >= len(c.questions) {
		return fmt.Errorf("%w: expected question %d, got %d", ErrOutOfOrder, len(c.answers[userID]), index)
	}
	if !c.questions[index].Allows(choice) {
		return fmt.Errorf("%w: %q", ErrInvalidChoice, choice)
	}
	c.answers[userID] = append(c.answers[userID], choice)
	return nil
}

func (c *Check) Progress(userID string) int {
	return len(c.answers[userID])
}

func (c *Check) Status() Status {
	if c.completed != nil {
		return StatusComplete
	}
	a := len(c.answers[c.participants[0]])
	b := len(c.answers[c.participants[1]])
	switch {
	case a == 0 && b == 0:
		return StatusNeeded
	case len(c.questions) > 0 && a == len(c.questions) && b == len(c.questions):
		return StatusComplete
	default:
		return StatusInProgress
	}
}

func (c *Check) MatchCount() int {
	a := c.answers[c.participants[0]]
	b := c.answers[c.participants[1]]
	count := 0
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] == b[i] {
			count++
		}
	}
	return count
}

func (c *Check) Result() Result {
	if c.completed != nil {
		return *c.completed
	}
	total := len(c.questions)
	matched := c.MatchCount()
	return Result{
		Status:     c.Status(),
		MatchCount: matched,
		Total:      total,
		Celebrate:  total > 0 && matched*2 >= total,
	}
}
