package handlers

import (
	"net/http"

	authsvc "github.com/bondly-app/backend/internal/services/auth"
	httperrors "github.com/bondly-app/backend/internal/transport/http/errors"
)

type MeHandler struct {
	service *authsvc.Service
}

func NewMeHandler(service *authsvc.Service) *MeHandler {
	return &MeHandler{service: service}
}

func (h *MeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	user, err := h.service.CurrentUser(r.Context(), identity.UserID)
	if err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, userResponse(user))
}
