package dto

import "time"

type ImageResponse struct {
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

type ProfileResponse struct {
	UserID      string          `json:"user_id"`
	DisplayName string          `json:"display_name"`
	Bio         string          `json:"bio"`
	VibeTags    []string        `json:"vibe_tags"`
	Avatar      *ImageResponse  `json:"avatar"`
	Banner      *ImageResponse  `json:"banner"`
	Gallery     []ImageResponse `json:"gallery"`
	MatchIDs    []string        `json:"match_ids"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type UpdateProfileRequest struct {
	DisplayName string   `json:"display_name"`
	Bio         string   `json:"bio"`
	VibeTags    []string `json:"vibe_tags"`
}
