package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bondly-app/backend/internal/domain/enums"
	authsvc "github.com/bondly-app/backend/internal/services/auth"
	suggestsvc "github.com/bondly-app/backend/internal/services/suggest"
	"github.com/bondly-app/backend/internal/transport/http/dto"
	httperrors "github.com/bondly-app/backend/internal/transport/http/errors"
)

type SuggestionHandler struct {
	service *suggestsvc.Service
}

func NewSuggestionHandler(service *suggestsvc.Service) *SuggestionHandler {
	return &SuggestionHandler{service: service}
}

func (h *SuggestionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SUGGESTION_SERVICE_UNAVAILABLE", "suggestion service is unavailable")
		return
	}

	var req dto.SuggestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	text, err := h.service.Suggest(r.Context(), identity.UserID, enums.SuggestionKind(req.Kind), suggestsvc.Payload{
		Topic:      req.Topic,
		Transcript: req.Transcript,
		Tags:       req.Tags,
	})
	if err != nil {
		handleSuggestionError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.SuggestionResponse{Text: text})
}

func (h *SuggestionHandler) DeckPrompt(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SUGGESTION_SERVICE_UNAVAILABLE", "suggestion service is unavailable")
		return
	}

	deck, ok := enums.ParseDeck(chi.URLParam(r, "deck"))
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "deck must be Friends, Date or Spicy")
		return
	}
	query := r.URL.Query()
	gameType, ok := enums.ParseGameType(query.Get("type"))
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "type must be vibe or truth-or-dare")
		return
	}
	level, err := strconv.Atoi(query.Get("level"))
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "level must be an integer")
		return
	}

	prompt, err := h.service.DeckPrompt(r.Context(), identity.UserID, deck, gameType, level)
	if err != nil {
		handleSuggestionError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, prompt)
}

func handleSuggestionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, suggestsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, suggestsvc.ErrUnsupportedKind):
		writeBadRequest(w, "UNSUPPORTED_KIND", err.Error())
	case errors.Is(err, suggestsvc.ErrGenerationFailed):
		httperrors.Write(w, http.StatusBadGateway, httperrors.APIError{
			Code:    "GENERATION_FAILED",
			Message: "failed to generate",
		})
	default:
		if writeTooFast(w, err, "too many suggestion requests, slow down") {
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to generate suggestion")
	}
}
