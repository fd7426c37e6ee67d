package handlers

import (
	"errors"
	"net/http"
	"path"

	"github.com/bondly-app/backend/internal/domain/model"
	authsvc "github.com/bondly-app/backend/internal/services/auth"
	profilesvc "github.com/bondly-app/backend/internal/services/profiles"
	"github.com/bondly-app/backend/internal/transport/http/dto"
	httperrors "github.com/bondly-app/backend/internal/transport/http/errors"
)

type ProfileHandler struct {
	service *profilesvc.Service
}

func NewProfileHandler(service *profilesvc.Service) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	profile, err := h.service.Get(r.Context(), identity.UserID)
	if err != nil {
		handleProfileError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, profileResponse(profile))
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	var req dto.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	profile, err := h.service.Update(r.Context(), identity.UserID, profilesvc.UpdateInput{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		VibeTags:    req.VibeTags,
	})
	if err != nil {
		handleProfileError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, profileResponse(profile))
}

func handleProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profilesvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, profilesvc.ErrProfileNotFound):
		writeNotFound(w, "PROFILE_NOT_FOUND", "profile not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to process profile")
	}
}

func profileResponse(p model.Profile) dto.ProfileResponse {
	tags := make([]string, 0, len(p.VibeTags))
	for _, tag := range p.VibeTags {
		tags = append(tags, string(tag))
	}
	gallery := make([]dto.ImageResponse, 0, len(p.Gallery))
	for _, img := range p.Gallery {
		gallery = append(gallery, imageResponse(img))
	}
	matchIDs := p.MatchIDs
	if matchIDs == nil {
		matchIDs = []string{}
	}

	resp := dto.ProfileResponse{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		VibeTags:    tags,
		Gallery:     gallery,
		MatchIDs:    matchIDs,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Avatar != nil {
		avatar := imageResponse(*p.Avatar)
		resp.Avatar = &avatar
	}
	if p.Banner != nil {
		banner := imageResponse(*p.Banner)
		resp.Banner = &banner
	}
	return resp
}

func imageResponse(img model.Image) dto.ImageResponse {
	return dto.ImageResponse{
		Kind:      string(img.Kind),
		Name:      path.Base(img.ObjectKey),
		URL:       img.URL,
		Position:  img.Position,
		CreatedAt: img.CreatedAt,
	}
}
