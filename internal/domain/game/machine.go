package game

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bondly-app/backend/internal/domain/enums"
	"github.com/bondly-app/backend/internal/domain/model"
)

var (
	ErrIllegalTransition = errors.New("illegal transition")
	ErrComposerDisabled  = errors.New("composer disabled")
	ErrNotParticipant    = errors.New("not a chat participant")
	ErrEmptyText         = errors.New("text is required")

	// ErrVibeCheckPending is the ErrComposerDisabled variant returned before the vibe check completes.
	ErrVibeCheckPending = fmt.Errorf("%w: vibe check not complete", ErrComposerDisabled)
)

const challengePreview = "Truth or dare?"

// Effect lists what an accepted transition produced and the caller has to persist.
type Effect struct {
	Messages     []model.Message
	Response     *model.ChallengeResponse
	VibeChanged  bool
	SessionEnded bool
}

// Conversation applies game transitions to one chat. A rejected transition leaves every field untouched.
type Conversation struct {
	Chat              model.Chat
	VibeCheckComplete bool
	State             State

	now   func() time.Time
	newID func() string
}

type Option func(*Conversation)

func WithClock(now func() time.Time) Option {
	return func(c *Conversation) {
		if now != nil {
			c.now = now
		}
	}
}

func WithIDs(newID func() string) Option {
	return func(c *Conversation) {
		if newID != nil {
			c.newID = newID
		}
	}
}

func NewConversation(chat model.Chat, vibeCheckComplete bool, state State, opts ...Option) *Conversation {
	if state == nil {
		state = Idle{}
	}
	c := &Conversation{
		Chat:              chat,
		VibeCheckComplete: vibeCheckComplete,
		State:             state,
		now:               time.Now,
		newID:             uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResetLapsedVibe puts the chat back on its base vibe when no game is running, which happens
// when a game session expired without being ended. It reports whether the vibe changed.
func (c *Conversation) ResetLapsedVibe() bool {
	if _, ok := c.State.(Idle); !ok || c.Chat.Vibe == c.Chat.BaseVibe {
		return false
	}
	c.Chat.Vibe = c.Chat.BaseVibe
	return true
}

func (c *Conversation) SelectGame(actor string, sel Selection) (Effect, error) {
	if err := c.guard(actor); err != nil {
		return Effect{}, err
	}
	if err := sel.Validate(); err != nil {
		return Effect{}, err
	}
	if _, ok := c.State.(Idle); !ok {
		return Effect{}, illegal("select game in %s", c.State.Phase())
	}

	c.State = Toss{Selection: sel}
	effect := Effect{VibeChanged: c.Chat.Vibe != sel.Deck.Vibe()}
	c.Chat.Vibe = sel.Deck.Vibe()
	effect.Messages = append(effect.Messages, c.appendSystem(fmt.Sprintf("%s deck, level %d: %s game is about to start", sel.Deck, sel.Level, sel.Type)))
	return effect, nil
}

func (c *Conversation) ResolveToss(winner string) (Effect, error) {
	if err := c.guard(winner); err != nil {
		return Effect{}, err
	}
	toss, ok := c.State.(Toss)
	if !ok {
		return Effect{}, illegal("resolve toss in %s", c.State.Phase())
	}

	c.State = Playing{Selection: toss.Selection, Turn: winner}
	return Effect{}, nil
}

func (c *Conversation) AskQuestion(sender, text string) (Effect, error) {
	text = strings.TrimSpace(text)
	if err := c.guard(sender); err != nil {
		return Effect{}, err
	}
	if text == "" {
		return Effect{}, ErrEmptyText
	}
	playing, ok := c.State.(Playing)
	if !ok || playing.Selection.Type != enums.GameTypeVibe || !c.CanAsk(sender) {
		return Effect{}, illegal("ask question by %s", sender)
	}

	msg := c.append(model.Message{SenderID: sender, Type: enums.MessageTypeQuestion, Text: text}, text)
	to, _ := c.Chat.OtherUser(sender)
	playing.Turn = ""
	playing.AwaitingAnswer = true
	playing.Pending = &Pending{MessageID: msg.ID, Kind: enums.MessageTypeQuestion, From: sender, To: to}
	c.State = playing
	return Effect{Messages: []model.Message{msg}}, nil
}

func (c *Conversation) SendChallenge(sender, truth, dare string) (Effect, error) {
	truth = strings.TrimSpace(truth)
	dare = strings.TrimSpace(dare)
	if err := c.guard(sender); err != nil {
		return Effect{}, err
	}
	if truth == "" || dare == "" {
		return Effect{}, ErrEmptyText
	}
	playing, ok := c.State.(Playing)
	if !ok || playing.Selection.Type != enums.GameTypeTruthOrDare || !c.CanAsk(sender) {
		return Effect{}, illegal("send challenge by %s", sender)
	}

	msg := c.append(model.Message{
		SenderID:  sender,
		Type:      enums.MessageTypeChallenge,
		Challenge: &model.Challenge{Truth: truth, Dare: dare},
	}, challengePreview)
	to, _ := c.Chat.OtherUser(sender)
	playing.Turn = ""
	playing.AwaitingAnswer = true
	playing.Pending = &Pending{MessageID: msg.ID, Kind: enums.MessageTypeChallenge, From: sender, To: to}
	c.State = playing
	return Effect{Messages: []model.Message{msg}}, nil
}

func (c *Conversation) RespondToChallenge(responder, messageID string, choice enums.ChallengeChoice) (Effect, error) {
	if err := c.guard(responder); err != nil {
		return Effect{}, err
	}
	if _, ok := enums.ParseChallengeChoice(string(choice)); !ok {
		return Effect{}, fmt.Errorf("%w: unknown choice %q", ErrInvalidSelection, choice)
	}
	playing, ok := c.State.(Playing)
	if !ok || playing.Pending == nil {
		return Effect{}, illegal("respond to %s without pending challenge", messageID)
	}
	pending := *playing.Pending
	if pending.Kind != enums.MessageTypeChallenge || pending.MessageID != messageID ||
		pending.From == responder || pending.To != responder || pending.Responded() {
		return Effect{}, illegal("respond to %s by %s", messageID, responder)
	}

	response := model.ChallengeResponse{
		MessageID:   messageID,
		ResponderID: responder,
		Choice:      choice,
		CreatedAt:   c.stamp(),
	}
	pending.Choice = choice
	playing.Pending = &pending
	playing.AwaitingAnswer = false
	playing.Turn = responder
	c.State = playing
	return Effect{Response: &response}, nil
}

// SubmitAnswer answers the pending question or chosen challenge addressed to answerer.
// After a vibe question the answerer asks next; after a challenge the turn returns to the challenger.
func (c *Conversation) SubmitAnswer(answerer, text string) (Effect, error) {
	text = strings.TrimSpace(text)
	if err := c.guard(answerer); err != nil {
		return Effect{}, err
	}
	if text == "" {
		return Effect{}, ErrEmptyText
	}
	if !c.CanAnswer(answerer) {
		return Effect{}, illegal("answer by %s", answerer)
	}
	playing := c.State.(Playing)
	pending := *playing.Pending

	msg := c.append(model.Message{
		SenderID: answerer,
		Type:     enums.MessageTypeAnswer,
		Text:     text,
		ReplyTo:  pending.MessageID,
	}, text)
	playing.Pending = nil
	playing.AwaitingAnswer = false
	if pending.Kind == enums.MessageTypeChallenge {
		playing.Turn = pending.From
	} else {
		playing.Turn = answerer
	}
	c.State = playing
	return Effect{Messages: []model.Message{msg}}, nil
}

func (c *Conversation) EndGame(actor string) (Effect, error) {
	if !c.Chat.HasUser(actor) {
		return Effect{}, ErrNotParticipant
	}
	if _, ok := c.State.(Idle); ok {
		return Effect{}, illegal("end game in %s", PhaseIdle)
	}

	c.State = Idle{}
	effect := Effect{SessionEnded: true, VibeChanged: c.Chat.Vibe != c.Chat.BaseVibe}
	c.Chat.Vibe = c.Chat.BaseVibe
	effect.Messages = append(effect.Messages, c.appendSystem("Game over"))
	return effect, nil
}

// SendText is the free-text composer. While a game runs it only answers what is pending for sender.
func (c *Conversation) SendText(sender, text string) (Effect, error) {
	if err := c.guard(sender); err != nil {
		return Effect{}, err
	}
	if !c.CanSend(sender) {
		return Effect{}, ErrComposerDisabled
	}
	if _, ok := c.State.(Playing); ok {
		return c.SubmitAnswer(sender, text)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Effect{}, ErrEmptyText
	}
	msg := c.append(model.Message{SenderID: sender, Type: enums.MessageTypeText, Text: text}, text)
	return Effect{Messages: []model.Message{msg}}, nil
}

func (c *Conversation) CanSend(viewer string) bool {
	if !c.VibeCheckComplete || !c.Chat.HasUser(viewer) {
		return false
	}
	if _, ok := c.State.(Idle); ok {
		return true
	}
	return c.CanAnswer(viewer)
}

func (c *Conversation) CanAnswer(viewer string) bool {
	playing, ok := c.State.(Playing)
	if !ok || playing.Pending == nil || playing.Pending.To != viewer {
		return false
	}
	switch playing.Pending.Kind {
	case enums.MessageTypeQuestion:
		return playing.AwaitingAnswer
	case enums.MessageTypeChallenge:
		return playing.Pending.Responded() && !playing.AwaitingAnswer && playing.Turn == viewer
	default:
		return false
	}
}

func (c *Conversation) CanAsk(viewer string) bool {
	playing, ok := c.State.(Playing)
	return ok && viewer != "" && playing.Turn == viewer && !playing.AwaitingAnswer && playing.Pending == nil
}

func (c *Conversation) guard(actor string) error {
	if !c.Chat.HasUser(actor) {
		return ErrNotParticipant
	}
	if !c.VibeCheckComplete {
		return ErrVibeCheckPending
	}
	return nil
}

func (c *Conversation) appendSystem(text string) model.Message {
	return c.append(model.Message{Type: enums.MessageTypeSystem, Text: text}, text)
}

func (c *Conversation) append(msg model.Message, preview string) model.Message {
	msg.ID = c.newID()
	msg.ChatID = c.Chat.ID
	msg.CreatedAt = c.stamp()
	c.Chat.LastMessage = preview
	c.Chat.LastMessageAt = msg.CreatedAt
	return msg
}

// stamp keeps timestamps within a chat strictly increasing at database precision.
func (c *Conversation) stamp() time.Time {
	at := c.now().UTC().Truncate(time.Microsecond)
	if !at.After(c.Chat.LastMessageAt) {
		at = c.Chat.LastMessageAt.Add(time.Microsecond)
	}
	return at
}

func illegal(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalTransition, fmt.Sprintf(format, args...))
}
