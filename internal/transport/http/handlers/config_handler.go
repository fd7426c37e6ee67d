package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bondly-app/backend/internal/config"
	"github.com/bondly-app/backend/internal/domain/enums"
	"github.com/bondly-app/backend/internal/domain/rules"
	"github.com/bondly-app/backend/internal/transport/http/dto"
	httperrors "github.com/bondly-app/backend/internal/transport/http/errors"
)

// ConfigHandler exposes the client-facing part of the remote config. No auth required.
type ConfigHandler struct {
	remote config.RemoteConfig
}

func NewConfigHandler(remote config.RemoteConfig) *ConfigHandler {
	return &ConfigHandler{remote: remote}
}

func (h *ConfigHandler) Handle(w http.ResponseWriter, _ *http.Request) {
	decks := []enums.Deck{enums.DeckFriends, enums.DeckDate, enums.DeckSpicy}
	deckItems := make([]dto.ConfigDeckResponse, 0, len(decks))
	for _, deck := range decks {
		deckItems = append(deckItems, dto.ConfigDeckResponse{
			Name:     string(deck),
			Vibe:     string(deck.Vibe()),
			MinLevel: rules.MinGameLevel,
			MaxLevel: rules.MaxGameLevel,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.ConfigResponse{
		Limits: dto.ConfigLimitsResponse{
			SwipesPerMinute:      h.remote.Limits.SwipesPerMinute,
			SwipesPerDay:         h.remote.Limits.SwipesPerDay,
			SuggestionsPerMinute: h.remote.Limits.SuggestionsPerMinute,
			SuggestionsPerDay:    h.remote.Limits.SuggestionsPerDay,
		},
		DefaultVibe: h.remote.DefaultVibe,
		Decks:       deckItems,
		GameTypes:   []string{string(enums.GameTypeVibe), string(enums.GameTypeTruthOrDare)},
		VibeCheck:   h.remote.VibeCheck.Questions,
		Media: dto.ConfigMediaResponse{
			GalleryLimit: h.remote.Media.GalleryLimit,
			MaxBytes:     h.remote.Media.MaxBytes,
		},
		GameTTL: formatDuration(h.remote.GameSession.TTL),
	})
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(d/time.Hour))
	}
	if d%time.Minute == 0 {
		return fmt.Sprintf("%dm", int(d/time.Minute))
	}
	return d.String()
}
