package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/bondly-app/backend/internal/services/auth"
	vibechecksvc "github.com/bondly-app/backend/internal/services/vibecheck"
	"github.com/bondly-app/backend/internal/transport/http/dto"
	httperrors "github.com/bondly-app/backend/internal/transport/http/errors"
)

type VibeCheckHandler struct {
	service *vibechecksvc.Service
}

func NewVibeCheckHandler(service *vibechecksvc.Service) *VibeCheckHandler {
	return &VibeCheckHandler{service: service}
}

func (h *VibeCheckHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "VIBE_CHECK_SERVICE_UNAVAILABLE", "vibe check service is unavailable")
		return
	}

	snap, err := h.service.Status(r.Context(), identity.UserID, chi.URLParam(r, "id"))
	if err != nil {
		handleVibeCheckError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, snap)
}

func (h *VibeCheckHandler) Answer(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "VIBE_CHECK_SERVICE_UNAVAILABLE", "vibe check service is unavailable")
		return
	}

	var req dto.VibeCheckAnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	snap, err := h.service.Answer(r.Context(), identity.UserID, chi.URLParam(r, "id"), req.Index, req.Choice)
	if err != nil {
		handleVibeCheckError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, snap)
}

func handleVibeCheckError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vibechecksvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid vibe check request")
	case errors.Is(err, vibechecksvc.ErrInvalidChoice):
		writeBadRequest(w, "INVALID_CHOICE", "choice is not one of the question options")
	case errors.Is(err, vibechecksvc.ErrChatNotFound):
		writeNotFound(w, "CHAT_NOT_FOUND", "chat not found")
	case errors.Is(err, vibechecksvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "not a participant of this chat")
	case errors.Is(err, vibechecksvc.ErrOutOfOrder):
		writeConflict(w, "OUT_OF_ORDER", "questions must be answered in order")
	case errors.Is(err, vibechecksvc.ErrAlreadyComplete):
		writeConflict(w, "VIBE_CHECK_COMPLETE", "vibe check is already complete")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to process vibe check")
	}
}
