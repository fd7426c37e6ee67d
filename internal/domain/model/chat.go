package model

import (
	"time"

	"github.com/bondly-app/backend/internal/domain/enums"
)

type Chat struct {
	ID            string     `json:"id"`
	UserAID       string     `json:"user_a_id"`
	UserBID       string     `json:"user_b_id"`
	BaseVibe      enums.Vibe `json:"base_vibe"`
	Vibe          enums.Vibe `json:"vibe"`
	LastMessage   string     `json:"last_message"`
	LastMessageAt time.Time  `json:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (c Chat) Participants() [2]string {
	return [2]string{c.UserAID, c.UserBID}
}

func (c Chat) HasUser(userID string) bool {
	return userID != "" && (c.UserAID == userID || c.UserBID == userID)
}

func (c Chat) OtherUser(userID string) (string, bool) {
	switch userID {
	case c.UserAID:
		return c.UserBID, true
	case c.UserBID:
		return c.UserAID, true
	default:
		return "", false
	}
}
