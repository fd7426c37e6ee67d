package handlers

import (
	"errors"
	"net/http"
	"strconv"

	authsvc "github.com/bondly-app/backend/internal/services/auth"
	matchsvc "github.com/bondly-app/backend/internal/services/matches"
	"github.com/bondly-app/backend/internal/transport/http/dto"
	httperrors "github.com/bondly-app/backend/internal/transport/http/errors"
)

type MatchesHandler struct {
	service *matchsvc.Service
}

func NewMatchesHandler(service *matchsvc.Service) *MatchesHandler {
	return &MatchesHandler{service: service}
}

func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
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

	items, err := h.service.List(r.Context(), identity.UserID, limit)
	if err != nil {
		if errors.Is(err, matchsvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid matches request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to list matches")
		return
	}

	resp := dto.MatchesResponse{Items: make([]dto.MatchItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, dto.MatchItemResponse{
			ID:            item.ID,
			ChatID:        item.ChatID,
			PeerID:        item.PeerID,
			DisplayName:   item.DisplayName,
			AvatarURL:     item.AvatarURL,
			Vibe:          string(item.Vibe),
			LastMessage:   item.LastMessage,
			LastMessageAt: item.LastMessageAt,
			CreatedAt:     item.CreatedAt,
		})
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *MatchesHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	var req dto.UnmatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if err := h.service.Unmatch(r.Context(), identity.UserID, req.TargetID); err != nil {
		switch {
		case errors.Is(err, matchsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "target_id is required")
		case errors.Is(err, matchsvc.ErrMatchNotFound):
			writeNotFound(w, "MATCH_NOT_FOUND", "match not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to unmatch")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}
