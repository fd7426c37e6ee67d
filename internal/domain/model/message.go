package model

import (
	"time"

	"github.com/bondly-app/backend/internal/domain/enums"
)

type Message struct {
	ID        string            `json:"id"`
	ChatID    string            `json:"chat_id"`
	SenderID  string            `json:"sender_id"`
	Type      enums.MessageType `json:"type"`
	Text      string            `json:"text,omitempty"`
	Challenge *Challenge        `json:"challenge,omitempty"`
	ReplyTo   string            `json:"reply_to,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Challenge is the truth-or-dare payload of a challenge message. Responded and
// Choice are filled from the message's ChallengeResponse, never stored on the row.
type Challenge struct {
	Truth     string                `json:"truth"`
	Dare      string                `json:"dare"`
	Responded bool                  `json:"responded"`
	Choice    enums.ChallengeChoice `json:"choice,omitempty"`
}

type ChallengeResponse struct {
	MessageID   string                `json:"message_id"`
	ResponderID string                `json:"responder_id"`
	Choice      enums.ChallengeChoice `json:"choice"`
	CreatedAt   time.Time             `json:"created_at"`
}

// ApplyResponse returns a copy of m with the challenge marked as answered by r.
func (m Message) ApplyResponse(r ChallengeResponse) Message {
	if m.Challenge == nil || r.MessageID != m.ID {
		return m
	}
	c := *m.Challenge
	c.Responded = true
	c.Choice = r.Choice
	m.Challenge = &c
	return m
}
