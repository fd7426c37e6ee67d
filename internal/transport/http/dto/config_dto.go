package dto

import "github.com/bondly-app/backend/internal/domain/vibecheck"

type ConfigResponse struct {
	Limits      ConfigLimitsResponse `json:"limits"`
	DefaultVibe string               `json:"default_vibe"`
	Decks       []ConfigDeckResponse `json:"decks"`
	GameTypes   []string             `json:"game_types"`
	VibeCheck   []vibecheck.Question `json:"vibe_check_questions"`
	Media       ConfigMediaResponse  `json:"media"`
	GameTTL     string               `json:"game_session_ttl"`
}

type ConfigLimitsResponse struct {
	SwipesPerMinute      int `json:"swipes_per_minute"`
	SwipesPerDay         int `json:"swipes_per_day"`
	SuggestionsPerMinute int `json:"suggestions_per_minute"`
	SuggestionsPerDay    int `json:"suggestions_per_day"`
}

type ConfigDeckResponse struct {
	Name     string `json:"name"`
	Vibe     string `json:"vibe"`
	MinLevel int    `json:"min_level"`
	MaxLevel int    `json:"max_level"`
}

type ConfigMediaResponse struct {
	GalleryLimit int   `json:"gallery_limit"`
	MaxBytes     int64 `json:"max_bytes"`
}
