package model

import (
	"time"

	"github.com/bondly-app/backend/internal/domain/enums"
)

type Profile struct {
	UserID      string       `json:"user_id"`
	DisplayName string       `json:"display_name"`
	Bio         string       `json:"bio"`
	VibeTags    []enums.Vibe `json:"vibe_tags"`
	Avatar      *Image       `json:"avatar,omitempty"`
	Banner      *Image       `json:"banner,omitempty"`
	Gallery     []Image      `json:"gallery"`
	MatchIDs    []string     `json:"match_ids"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
