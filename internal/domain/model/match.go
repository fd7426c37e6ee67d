package model

import "time"

// Match is keyed by the pair key of its two users; UserAID sorts before UserBID.
type Match struct {
	ID        string    `json:"id"`
	UserAID   string    `json:"user_a_id"`
	UserBID   string    `json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (m Match) HasUser(userID string) bool {
	return m.UserAID == userID || m.UserBID == userID
}

func (m Match) OtherUser(userID string) (string, bool) {
	switch userID {
	case m.UserAID:
		return m.UserBID, true
	case m.UserBID:
		return m.UserAID, true
	default:
		return "", false
	}
}
