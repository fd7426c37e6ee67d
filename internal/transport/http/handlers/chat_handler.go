package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/bondly-app/backend/internal/services/auth"
	chatsvc "github.com/bondly-app/backend/internal/services/chats"
	"github.com/bondly-app/backend/internal/transport/http/dto"
	httperrors "github.com/bondly-app/backend/internal/transport/http/errors"
)

type ChatHandler struct {
	service *chatsvc.Service
}

func NewChatHandler(service *chatsvc.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.begin(w, r)
	if !ok {
		return
	}

	var after time.Time
	if raw := r.URL.Query().Get("after"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "after must be an RFC3339 timestamp")
			return
		}
		after = parsed
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "limit must be a positive integer")
			return
		}
		limit = n
	}

	items, err := h.service.ListMessages(r.Context(), userID, chatID, after, limit)
	if err != nil {
		handleChatError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.MessagesResponse{Items: items})
}

func (h *ChatHandler) State(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.begin(w, r)
	if !ok {
		return
	}

	view, err := h.service.State(r.Context(), userID, chatID)
	if err != nil {
		handleChatError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, view)
}

func (h *ChatHandler) SendText(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req dto.SendTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	outcome, err := h.service.SendText(r.Context(), userID, chatID, req.Text)
	writeOutcome(w, http.StatusCreated, outcome, err)
}

func (h *ChatHandler) SelectGame(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req dto.SelectGameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	outcome, err := h.service.SelectGame(r.Context(), userID, chatID, req.Deck, req.Type, req.Level)
	writeOutcome(w, http.StatusOK, outcome, err)
}

func (h *ChatHandler) Toss(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.begin(w, r)
	if !ok {
		return
	}

	outcome, err := h.service.Toss(r.Context(), userID, chatID)
	writeOutcome(w, http.StatusOK, outcome, err)
}

func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req dto.SendTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	outcome, err := h.service.AskQuestion(r.Context(), userID, chatID, req.Text)
	writeOutcome(w, http.StatusCreated, outcome, err)
}

func (h *ChatHandler) Answer(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req dto.SendTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	outcome, err := h.service.SubmitAnswer(r.Context(), userID, chatID, req.Text)
	writeOutcome(w, http.StatusCreated, outcome, err)
}

func (h *ChatHandler) Challenge(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req dto.ChallengeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	outcome, err := h.service.SendChallenge(r.Context(), userID, chatID, req.Truth, req.Dare)
	writeOutcome(w, http.StatusCreated, outcome, err)
}

func (h *ChatHandler) Respond(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req dto.RespondChallengeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	outcome, err := h.service.RespondToChallenge(r.Context(), userID, chatID, chi.URLParam(r, "message_id"), req.Choice)
	writeOutcome(w, http.StatusOK, outcome, err)
}

func (h *ChatHandler) EndGame(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.begin(w, r)
	if !ok {
		return
	}

	outcome, err := h.service.EndGame(r.Context(), userID, chatID)
	writeOutcome(w, http.StatusOK, outcome, err)
}

func (h *ChatHandler) begin(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return "", "", false
	}
	if h.service == nil {
		writeInternal(w, "CHAT_SERVICE_UNAVAILABLE", "chat service is unavailable")
		return "", "", false
	}
	return identity.UserID, chi.URLParam(r, "id"), true
}

func writeOutcome(w http.ResponseWriter, status int, outcome chatsvc.Outcome, err error) {
	if err != nil {
		handleChatError(w, err)
		return
	}
	httperrors.Write(w, status, dto.GameActionResponse{
		State:    outcome.View,
		Messages: outcome.Messages,
		Response: outcome.Response,
		Updated:  outcome.Updated,
	})
}

func handleChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, chatsvc.ErrChatNotFound):
		writeNotFound(w, "CHAT_NOT_FOUND", "chat not found")
	case errors.Is(err, chatsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "not a participant of this chat")
	case errors.Is(err, chatsvc.ErrVibeCheckPending):
		writeConflict(w, "COMPOSER_DISABLED", "finish the vibe check before chatting")
	case errors.Is(err, chatsvc.ErrComposerDisabled):
		writeConflict(w, "COMPOSER_DISABLED", "you cannot send a message at this point of the game")
	case errors.Is(err, chatsvc.ErrIllegalTransition):
		writeConflict(w, "ILLEGAL_TRANSITION", err.Error())
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to process chat action")
	}
}
