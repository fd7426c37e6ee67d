package media

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bondly-app/backend/internal/domain/enums"
	"github.com/bondly-app/backend/internal/domain/model"
	"github.com/bondly-app/backend/internal/pkg/validate"
	pgrepo "github.com/bondly-app/backend/internal/repo/postgres"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrUnsupportedType   = errors.New("unsupported image type")
	ErrTooLarge          = errors.New("image too large")
	ErrPhotoLimitReached = errors.New("photo limit reached")
	ErrImageNotFound     = errors.New("image not found")
)

const (
	defaultGalleryLimit = 6
	defaultMaxBytes     = 10 << 20
)

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

type Store interface {
	AddImage(ctx context.Context, userID string, img model.Image, galleryLimit int) (model.Image, string, error)
	DeleteImage(ctx context.Context, userID string, kind enums.ImageKind, objectKey string) (bool, error)
	ListImages(ctx context.Context, userID string) ([]model.Image, error)
	AddTombstone(ctx context.Context, objectKey, reason string) error
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

type Config struct {
	GalleryLimit int
	MaxBytes     int64
}

type Service struct {
	store   Store
	storage ObjectStorage
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(store Store, storage ObjectStorage, cfg Config, logger *zap.Logger) *Service {
	if cfg.GalleryLimit <= 0 {
		cfg.GalleryLimit = defaultGalleryLimit
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:   store,
		storage: storage,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) GalleryLimit() int {
	return s.cfg.GalleryLimit
}

func (s *Service) MaxBytes() int64 {
	return s.cfg.MaxBytes
}

// Upload puts the object first and then records it. The object is removed again when the
// record cannot be written; a replaced avatar or banner is deleted after the record commits.
func (s *Service) Upload(ctx context.Context, userID string, kind enums.ImageKind, fileName, contentType string, body io.Reader, size int64) (model.Image, error) {
	if strings.TrimSpace(userID) == "" || body == nil || size <= 0 {
		return model.Image{}, ErrValidation
	}
	if size > s.cfg.MaxBytes {
		return model.Image{}, ErrTooLarge
	}
	if s.store == nil || s.storage == nil {
		return model.Image{}, fmt.Errorf("media dependencies are not configured")
	}

	ext, ctype, err := detectType(fileName, contentType)
	if err != nil {
		return model.Image{}, err
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return model.Image{}, fmt.Errorf("ensure bucket: %w", err)
	}

	objectKey, err := s.buildObjectKey(userID, kind, ext)
	if err != nil {
		return model.Image{}, fmt.Errorf("build object key: %w", err)
	}

	if err := s.storage.Put(ctx, objectKey, body, size, ctype); err != nil {
		return model.Image{}, fmt.Errorf("put object: %w", err)
	}

	img, replaced, err := s.store.AddImage(ctx, userID, model.Image{Kind: kind, ObjectKey: objectKey}, s.cfg.GalleryLimit)
	if err != nil {
		s.removeObject(ctx, objectKey, "orphaned upload")
		if errors.Is(err, pgrepo.ErrLimitReached) {
			return model.Image{}, ErrPhotoLimitReached
		}
		return model.Image{}, fmt.Errorf("create image record: %w", err)
	}
	if replaced != "" {
		s.removeObject(ctx, replaced, "replaced "+string(kind))
	}

	img.URL = s.storage.PublicURL(img.ObjectKey)
	return img, nil
}

// Delete removes one of the user's images by the last segment of its object key.
func (s *Service) Delete(ctx context.Context, userID string, kind enums.ImageKind, name string) error {
	name = strings.TrimSpace(name)
	if strings.TrimSpace(userID) == "" || name == "" || strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return ErrValidation
	}
	if s.store == nil || s.storage == nil {
		return fmt.Errorf("media dependencies are not configured")
	}

	objectKey := path.Join(userPrefix(userID, kind), name)
	deleted, err := s.store.DeleteImage(ctx, userID, kind, objectKey)
	if err != nil {
		return fmt.Errorf("delete image record: %w", err)
	}
	if !deleted {
		return ErrImageNotFound
	}

	s.removeObject(ctx, objectKey, "deleted by user")
	return nil
}

func (s *Service) List(ctx context.Context, userID string) ([]model.Image, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrValidation
	}
	if s.store == nil || s.storage == nil {
		return nil, fmt.Errorf("media dependencies are not configured")
	}

	items, err := s.store.ListImages(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	for i := range items {
		items[i].URL = s.storage.PublicURL(items[i].ObjectKey)
	}
	return items, nil
}

func (s *Service) PublicURL(key string) string {
	if s.storage == nil {
		return ""
	}
	return s.storage.PublicURL(key)
}

// removeObject deletes an object and leaves a tombstone for the cleanup job when that fails.
func (s *Service) removeObject(ctx context.Context, key, reason string) {
	ctx = context.WithoutCancel(ctx)
	err := s.storage.Delete(ctx, key)
	if err == nil {
		return
	}

	s.logger.Warn("delete object failed, scheduling retry", zap.String("object_key", key), zap.Error(err))
	if terr := s.store.AddTombstone(ctx, key, reason); terr != nil {
		s.logger.Error("add media tombstone failed", zap.String("object_key", key), zap.Error(terr))
	}
}

func (s *Service) buildObjectKey(userID string, kind enums.ImageKind, ext string) (string, error) {
	rnd := make([]byte, 8)
	if _, err := rand.Read(rnd); err != nil {
		return "", err
	}

	stamp := s.now().UTC().Format("20060102T150405")
	return path.Join(userPrefix(userID, kind), fmt.Sprintf("%s_%s%s", stamp, hex.EncodeToString(rnd), ext)), nil
}

func userPrefix(userID string, kind enums.ImageKind) string {
	return fmt.Sprintf("users/%s/%s", userID, kind)
}

func detectType(fileName, contentType string) (string, string, error) {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}

	if byExt, ok := allowedExtensions[ext]; ok {
		if validate.OneOf(contentType, "", "application/octet-stream", byExt) {
			return ext, byExt, nil
		}
		return "", "", ErrUnsupportedType
	}
	for e, ct := range allowedExtensions {
		if ct == contentType && e != ".jpeg" {
			return e, ct, nil
		}
	}
	return "", "", ErrUnsupportedType
}
