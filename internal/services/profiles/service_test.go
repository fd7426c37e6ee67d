package profiles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bondly-app/backend/internal/domain/enums"
	"github.com/bondly-app/backend/internal/domain/model"
	pgrepo "github.com/bondly-app/backend/internal/repo/postgres"
)

type fakeStore struct {
	profile  model.Profile
	lastCall *pgrepo.ProfileUpdate
}

func (f *fakeStore) Get(_ context.Context, userID string) (model.Profile, error) {
	if userID != f.profile.UserID {
		return model.Profile{}, pgrepo.ErrNotFound
	}
	return f.profile, nil
}

func (f *fakeStore) Update(_ context.Context, userID string, upd pgrepo.ProfileUpdate, now time.Time) error {
	if userID != f.profile.UserID {
		return pgrepo.ErrNotFound
	}
	f.lastCall = &upd
	f.profile.DisplayName = upd.DisplayName
	f.profile.Bio = upd.Bio
	f.profile.VibeTags = upd.VibeTags
	f.profile.UpdatedAt = now
	return nil
}

type fakeImages struct {
	items []model.Image
}

func (f fakeImages) List(context.Context, string) ([]model.Image, error) {
	return f.items, nil
}

func TestGetGroupsImagesByKind(t *testing.T) {
	store := &fakeStore{profile: model.Profile{UserID: "u1", DisplayName: "Ana"}}
	svc := NewService(store, fakeImages{items: []model.Image{
		{Kind: enums.ImageKindAvatar, ObjectKey: "a", URL: "https://cdn/a"},
		{Kind: enums.ImageKindGallery, ObjectKey: "g1", Position: 1},
		{Kind: enums.ImageKindBanner, ObjectKey: "b"},
		{Kind: enums.ImageKindGallery, ObjectKey: "g2", Position: 2},
	}})

	profile, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if profile.Avatar == nil || profile.Avatar.URL != "https://cdn/a" {
		t.Fatalf("unexpected avatar %+v", profile.Avatar)
	}
	if profile.Banner == nil || profile.Banner.ObjectKey != "b" {
		t.Fatalf("unexpected banner %+v", profile.Banner)
	}
	if len(profile.Gallery) != 2 || profile.Gallery[1].ObjectKey != "g2" {
		t.Fatalf("unexpected gallery %+v", profile.Gallery)
	}

	if _, err := svc.Get(context.Background(), "u2"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateNormalizesInput(t *testing.T) {
	store := &fakeStore{profile: model.Profile{UserID: "u1"}}
	svc := NewService(store, nil)

	profile, err := svc.Update(context.Background(), "u1", UpdateInput{
		DisplayName: "  Ana   Maria ",
		Bio:         " likes hiking ",
		VibeTags:    []string{"Date", "friends", "date"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if store.lastCall == nil {
		t.Fatalf("expected store update call")
	}
	if profile.DisplayName != "Ana Maria" || profile.Bio != "likes hiking" {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if len(profile.VibeTags) != 2 || profile.VibeTags[0] != enums.VibeDate || profile.VibeTags[1] != enums.VibeFriends {
		t.Fatalf("unexpected tags %+v", profile.VibeTags)
	}
}

func TestUpdateValidation(t *testing.T) {
	cases := []struct {
		name string
		in   UpdateInput
	}{
		{name: "empty name", in: UpdateInput{DisplayName: "   "}},
		{name: "unknown tag", in: UpdateInput{DisplayName: "Ana", VibeTags: []string{"work"}}},
		{name: "long bio", in: UpdateInput{DisplayName: "Ana", Bio: string(make([]rune, maxBioLength+1))}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{profile: model.Profile{UserID: "u1"}}
			svc := NewService(store, nil)
			if _, err := svc.Update(context.Background(), "u1", tc.in); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if store.lastCall != nil {
				t.Fatalf("store must not be called on invalid input")
			}
		})
	}
}
