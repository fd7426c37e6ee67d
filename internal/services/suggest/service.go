package suggest

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"github.com/bondly-app/backend/internal/domain/enums"
	"github.com/bondly-app/backend/internal/domain/rules"
	"github.com/bondly-app/backend/internal/pkg/validate"
)

const (
	maxTopicLength      = 200
	maxTranscriptLength = 4000

	SourceAI      = "ai"
	SourceBuiltin = "builtin"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrUnsupportedKind  = errors.New("unsupported suggestion kind")
	ErrGenerationFailed = errors.New("failed to generate")
)

const (
	DefaultQuestionTemplate = `You write icebreaker questions for a dating app.
Write one short, playful question about "{{.topic}}". Reply with the question only.`

	DefaultFollowupTemplate = `You help two people keep a dating app chat going.
The chat vibe is {{join .tags ", "}}.
Conversation so far:
{{.transcript}}
Suggest one short follow-up message the user could send next. Reply with the message only.`
)

type Generator interface {
	Complete(ctx context.Context, tmpl string, vars map[string]any) (string, error)
}

type RateLimiter interface {
	Check(ctx context.Context, userID string) error
}

type Templates struct {
	GenerateQuestion string
	FollowupPrompt   string
}

type Config struct {
	Templates Templates
}

type Dependencies struct {
	Generator Generator
	Limiter   RateLimiter
	Logger    *zap.Logger
}

type Payload struct {
	Topic      string   `json:"topic,omitempty"`
	Transcript string   `json:"transcript,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// DeckPrompt is a ready-to-use game prompt for one deck level.
type DeckPrompt struct {
	Deck     enums.Deck     `json:"deck"`
	Type     enums.GameType `json:"type"`
	Level    int            `json:"level"`
	Question string         `json:"question,omitempty"`
	Truth    string         `json:"truth,omitempty"`
	Dare     string         `json:"dare,omitempty"`
	Source   string         `json:"source"`
}

type Service struct {
	generator Generator
	limiter   RateLimiter
	logger    *zap.Logger
	templates Templates
	seed      func() int
}

func NewService(deps Dependencies, cfg Config) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	templates := cfg.Templates
	if strings.TrimSpace(templates.GenerateQuestion) == "" {
		templates.GenerateQuestion = DefaultQuestionTemplate
	}
	if strings.TrimSpace(templates.FollowupPrompt) == "" {
		templates.FollowupPrompt = DefaultFollowupTemplate
	}

	return &Service{
		generator: deps.Generator,
		limiter:   deps.Limiter,
		logger:    logger,
		templates: templates,
		seed:      func() int { return rand.IntN(1 << 20) },
	}
}

func (s *Service) Suggest(ctx context.Context, userID string, kind enums.SuggestionKind, payload Payload) (string, error) {
	if !validate.Required(userID) {
		return "", fmt.Errorf("%w: user id is required", ErrValidation)
	}

	tmpl, vars, err := s.prepare(kind, payload)
	if err != nil {
		return "", err
	}

	if s.limiter != nil {
		if err := s.limiter.Check(ctx, userID); err != nil {
			return "", err
		}
	}

	return s.generate(ctx, string(kind), tmpl, vars)
}

// DeckPrompt returns a prompt for the deck. Vibe questions come from the generator when it
// succeeds and fall back to the built-in deck otherwise; truth-or-dare pairs are always built in.
func (s *Service) DeckPrompt(ctx context.Context, userID string, deck enums.Deck, gameType enums.GameType, level int) (DeckPrompt, error) {
	if !rules.ValidLevel(level) {
		return DeckPrompt{}, fmt.Errorf("%w: level must be between %d and %d", ErrValidation, rules.MinGameLevel, rules.MaxGameLevel)
	}
	out := DeckPrompt{Deck: deck, Type: gameType, Level: level, Source: SourceBuiltin}

	switch gameType {
	case enums.GameTypeTruthOrDare:
		pair, err := rules.DeckDare(deck, level, s.seed())
		if err != nil {
			return DeckPrompt{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		out.Truth, out.Dare = pair.Truth, pair.Dare
		return out, nil
	case enums.GameTypeVibe:
	default:
		return DeckPrompt{}, fmt.Errorf("%w: unknown game type %q", ErrValidation, gameType)
	}

	fallback, err := rules.DeckQuestion(deck, level, s.seed())
	if err != nil {
		return DeckPrompt{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	out.Question = fallback

	question, err := s.GenerateDeckQuestion(ctx, userID, deck, level)
	if err != nil {
		s.logger.Debug("deck question falls back to built-in prompt",
			zap.String("deck", string(deck)),
			zap.Int("level", level),
			zap.Error(err),
		)
		return out, nil
	}
	out.Question = question
	out.Source = SourceAI
	return out, nil
}

func (s *Service) GenerateDeckQuestion(ctx context.Context, userID string, deck enums.Deck, level int) (string, error) {
	topic := fmt.Sprintf("%s conversation, intensity %d of %d", deck.Vibe(), level, rules.MaxGameLevel)
	return s.Suggest(ctx, userID, enums.SuggestionGenerateQuestion, Payload{Topic: topic})
}

func (s *Service) prepare(kind enums.SuggestionKind, payload Payload) (string, map[string]any, error) {
	switch kind {
	case enums.SuggestionGenerateQuestion:
		topic := strings.TrimSpace(payload.Topic)
		if topic == "" {
			return "", nil, fmt.Errorf("%w: topic is required", ErrValidation)
		}
		if !validate.MaxLength(topic, maxTopicLength) {
			return "", nil, fmt.Errorf("%w: topic exceeds %d characters", ErrValidation, maxTopicLength)
		}
		return s.templates.GenerateQuestion, map[string]any{"topic": topic}, nil

	case enums.SuggestionFollowupPrompt:
		if len(payload.Tags) == 0 {
			return "", nil, fmt.Errorf("%w: at least one tag is required", ErrValidation)
		}
		tags := make([]string, 0, len(payload.Tags))
		for _, raw := range payload.Tags {
			vibe, ok := enums.ParseVibe(raw)
			if !ok {
				return "", nil, fmt.Errorf("%w: unknown tag %q", ErrValidation, raw)
			}
			tags = append(tags, string(vibe))
		}
		transcript := strings.TrimSpace(payload.Transcript)
		if runes := []rune(transcript); len(runes) > maxTranscriptLength {
			transcript = string(runes[len(runes)-maxTranscriptLength:])
		}
		return s.templates.FollowupPrompt, map[string]any{"tags": tags, "transcript": transcript}, nil

	case enums.SuggestionHandleSwipe:
		return "", nil, fmt.Errorf("%w: %s is handled by the swipe endpoint", ErrUnsupportedKind, kind)

	default:
		return "", nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
}

func (s *Service) generate(ctx context.Context, kind, tmpl string, vars map[string]any) (string, error) {
	if s.generator == nil {
		return "", ErrGenerationFailed
	}

	text, err := s.generator.Complete(ctx, tmpl, vars)
	if err != nil {
		s.logger.Warn("suggestion generation failed", zap.String("kind", kind), zap.Error(err))
		return "", ErrGenerationFailed
	}
	text = strings.TrimSpace(text)
	if text == "" {
		s.logger.Warn("suggestion generation returned empty text", zap.String("kind", kind))
		return "", ErrGenerationFailed
	}
	return text, nil
}
