package game

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bondly-app/backend/internal/domain/enums"
	"github.com/bondly-app/backend/internal/domain/rules"
)

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseToss    Phase = "toss"
	PhasePlaying Phase = "playing"
)

var ErrInvalidSelection = errors.New("invalid game selection")

type Selection struct {
	Deck  enums.Deck     `json:"deck"`
	Type  enums.GameType `json:"type"`
	Level int            `json:"level"`
}

func (s Selection) Validate() error {
	if _, ok := enums.ParseDeck(string(s.Deck)); !ok {
		return fmt.Errorf("%w: unknown deck %q", ErrInvalidSelection, s.Deck)
	}
	if _, ok := enums.ParseGameType(string(s.Type)); !ok {
		return fmt.Errorf("%w: unknown game type %q", ErrInvalidSelection, s.Type)
	}
	if !rules.ValidLevel(s.Level) {
		return fmt.Errorf("%w: level must be %d..%d", ErrInvalidSelection, rules.MinGameLevel, rules.MaxGameLevel)
	}
	return nil
}

// Pending is the question or challenge that still waits for its answer.
type Pending struct {
	MessageID string                `json:"message_id"`
	Kind      enums.MessageType     `json:"kind"`
	From      string                `json:"from"`
	To        string                `json:"to"`
	Choice    enums.ChallengeChoice `json:"choice,omitempty"`
}

func (p Pending) Responded() bool {
	return p.Kind == enums.MessageTypeChallenge && p.Choice != ""
}

// State is one of Idle, Toss or Playing.
type State interface {
	Phase() Phase
	isState()
}

type Idle struct{}

type Toss struct {
	Selection Selection
}

// Playing.Turn holds the user id allowed to ask next, or "" while an answer is outstanding.
type Playing struct {
	Selection      Selection
	Turn           string
	AwaitingAnswer bool
	Pending        *Pending
}

func (Idle) Phase() Phase    { return PhaseIdle }
func (Toss) Phase() Phase    { return PhaseToss }
func (Playing) Phase() Phase { return PhasePlaying }

func (Idle) isState()    {}
func (Toss) isState()    {}
func (Playing) isState() {}

type snapshot struct {
	Phase          Phase      `json:"phase"`
	Selection      *Selection `json:"selection,omitempty"`
	Turn           string     `json:"turn,omitempty"`
	AwaitingAnswer bool       `json:"awaiting_answer,omitempty"`
	Pending        *Pending   `json:"pending,omitempty"`
}

func Encode(state State) ([]byte, error) {
	var s snapshot
	switch st := state.(type) {
	case nil, Idle:
		s.Phase = PhaseIdle
	case Toss:
		sel := st.Selection
		s.Phase = PhaseToss
		s.Selection = &sel
	case Playing:
		sel := st.Selection
		s.Phase = PhasePlaying
		s.Selection = &sel
		s.Turn = st.Turn
		s.AwaitingAnswer = st.AwaitingAnswer
		if st.Pending != nil {
			p := *st.Pending
			s.Pending = &p
		}
	default:
		return nil, fmt.Errorf("encode game state: unsupported %T", state)
	}
	return json.Marshal(s)
}

func Decode(raw []byte) (State, error) {
	if len(raw) == 0 {
		return Idle{}, nil
	}
	var s snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode game state: %w", err)
	}
	switch s.Phase {
	case PhaseIdle, "":
		return Idle{}, nil
	case PhaseToss, PhasePlaying:
		if s.Selection == nil {
			return nil, fmt.Errorf("decode game state: %s without selection", s.Phase)
		}
		if err := s.Selection.Validate(); err != nil {
			return nil, fmt.Errorf("decode game state: %w", err)
		}
		if s.Phase == PhaseToss {
			return Toss{Selection: *s.Selection}, nil
		}
		return Playing{
			Selection:      *s.Selection,
			Turn:           s.Turn,
			AwaitingAnswer: s.AwaitingAnswer,
			Pending:        s.Pending,
		}, nil
	default:
		return nil, fmt.Errorf("decode game state: unknown phase %q", s.Phase)
	}
}
