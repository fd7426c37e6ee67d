package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bondly-app/backend/internal/domain/enums"
	"github.com/bondly-app/backend/internal/domain/model"
	"github.com/bondly-app/backend/internal/pkg/validate"
	pgrepo "github.com/bondly-app/backend/internal/repo/postgres"
)

const (
	maxDisplayNameLength = 40
	maxBioLength         = 500
)

var (
	ErrValidation      = errors.New("validation error")
	ErrProfileNotFound = errors.New("profile not found")
)

type ProfileStore interface {
	Get(ctx context.Context, userID string) (model.Profile, error)
	Update(ctx context.Context, userID string, upd pgrepo.ProfileUpdate, now time.Time) error
}

type ImageLister interface {
	List(ctx context.Context, userID string) ([]model.Image, error)
}

type Service struct {
	store  ProfileStore
	images ImageLister
	now    func() time.Time
}

type UpdateInput struct {
	DisplayName string
	Bio         string
	VibeTags    []string
}

func NewService(store ProfileStore, images ImageLister) *Service {
	return &Service{
		store:  store,
		images: images,
		now:    time.Now,
	}
}

// Get returns the profile with avatar, banner and gallery resolved to public URLs.
func (s *Service) Get(ctx context.Context, userID string) (model.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return model.Profile{}, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.store == nil {
		return model.Profile{}, fmt.Errorf("profile store is nil")
	}

	profile, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrNotFound) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, err
	}

	profile.Gallery = []model.Image{}
	if s.images == nil {
		return profile, nil
	}
	images, err := s.images.List(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}
	for _, img := range images {
		switch img.Kind {
		case enums.ImageKindAvatar:
			avatar := img
			profile.Avatar = &avatar
		case enums.ImageKindBanner:
			banner := img
			profile.Banner = &banner
		case enums.ImageKindGallery:
			profile.Gallery = append(profile.Gallery, img)
		}
	}
	return profile, nil
}

func (s *Service) Update(ctx context.Context, userID string, in UpdateInput) (model.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return model.Profile{}, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.store == nil {
		return model.Profile{}, fmt.Errorf("profile store is nil")
	}

	upd, err := normalizeAndValidateInput(in)
	if err != nil {
		return model.Profile{}, err
	}

	if err := s.store.Update(ctx, userID, upd, s.now()); err != nil {
		if errors.Is(err, pgrepo.ErrNotFound) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, err
	}

	return s.Get(ctx, userID)
}

func normalizeAndValidateInput(in UpdateInput) (pgrepo.ProfileUpdate, error) {
	name := strings.Join(strings.Fields(in.DisplayName), " ")
	if name == "" {
		return pgrepo.ProfileUpdate{}, fmt.Errorf("display name is required: %w", ErrValidation)
	}
	if !validate.MaxLength(name, maxDisplayNameLength) {
		return pgrepo.ProfileUpdate{}, fmt.Errorf("display name exceeds %d characters: %w", maxDisplayNameLength, ErrValidation)
	}

	bio := strings.TrimSpace(in.Bio)
	if !validate.MaxLength(bio, maxBioLength) {
		return pgrepo.ProfileUpdate{}, fmt.Errorf("bio exceeds %d characters: %w", maxBioLength, ErrValidation)
	}

	seen := make(map[enums.Vibe]struct{}, len(in.VibeTags))
	tags := make([]enums.Vibe, 0, len(in.VibeTags))
	for _, raw := range in.VibeTags {
		tag, ok := enums.ParseVibe(raw)
		if !ok {
			return pgrepo.ProfileUpdate{}, fmt.Errorf("unknown vibe tag %q: %w", raw, ErrValidation)
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	return pgrepo.ProfileUpdate{DisplayName: name, Bio: bio, VibeTags: tags}, nil
}
