package dto

import (
	"github.com/bondly-app/backend/internal/domain/game"
	"github.com/bondly-app/backend/internal/domain/model"
)

type MessagesResponse struct {
	Items []model.Message `json:"items"`
}

type SendTextRequest struct {
	Text string `json:"text"`
}

type SelectGameRequest struct {
	Deck  string `json:"deck"`
	Type  string `json:"type"`
	Level int    `json:"level"`
}

type ChallengeRequest struct {
	Truth string `json:"truth"`
	Dare  string `json:"dare"`
}

type RespondChallengeRequest struct {
	Choice string `json:"choice"`
}

type GameActionResponse struct {
	State    game.View                `json:"state"`
	Messages []model.Message          `json:"messages"`
	Response *model.ChallengeResponse `json:"response,omitempty"`
	Updated  *model.Message           `json:"updated,omitempty"`
}
