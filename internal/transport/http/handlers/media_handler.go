package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bondly-app/backend/internal/domain/enums"
	authsvc "github.com/bondly-app/backend/internal/services/auth"
	mediasvc "github.com/bondly-app/backend/internal/services/media"
	"github.com/bondly-app/backend/internal/transport/http/dto"
	httperrors "github.com/bondly-app/backend/internal/transport/http/errors"
)

const multipartMemory = 4 << 20

type MediaHandler struct {
	service *mediasvc.Service
}

func NewMediaHandler(service *mediasvc.Service) *MediaHandler {
	return &MediaHandler{service: service}
}

func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}

	kind, ok := enums.ParseImageKind(chi.URLParam(r, "kind"))
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "kind must be avatar, banner or gallery")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.service.MaxBytes()+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	img, err := h.service.Upload(r.Context(), identity.UserID, kind, header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		handleMediaError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.UploadImageResponse{Image: imageResponse(img)})
}

func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}

	kind, ok := enums.ParseImageKind(chi.URLParam(r, "kind"))
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "kind must be avatar, banner or gallery")
		return
	}

	if err := h.service.Delete(r.Context(), identity.UserID, kind, chi.URLParam(r, "key")); err != nil {
		handleMediaError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func handleMediaError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mediasvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid image request")
	case errors.Is(err, mediasvc.ErrUnsupportedType):
		writeBadRequest(w, "UNSUPPORTED_MEDIA_TYPE", "only jpeg, png, webp and gif images are accepted")
	case errors.Is(err, mediasvc.ErrTooLarge):
		httperrors.Write(w, http.StatusRequestEntityTooLarge, httperrors.APIError{Code: "IMAGE_TOO_LARGE", Message: "image is too large"})
	case errors.Is(err, mediasvc.ErrPhotoLimitReached):
		writeConflict(w, "PHOTO_LIMIT_REACHED", "gallery is full")
	case errors.Is(err, mediasvc.ErrImageNotFound):
		writeNotFound(w, "IMAGE_NOT_FOUND", "image not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to process image")
	}
}
