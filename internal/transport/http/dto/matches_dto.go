package dto

import "time"

type MatchItemResponse struct {
	ID            string    `json:"id"`
	ChatID        string    `json:"chat_id"`
	PeerID        string    `json:"peer_id"`
	DisplayName   string    `json:"display_name"`
	AvatarURL     string    `json:"avatar_url"`
	Vibe          string    `json:"vibe"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
}

type MatchesResponse struct {
	Items []MatchItemResponse `json:"items"`
}

type UnmatchRequest struct {
	TargetID string `json:"target_id"`
}
