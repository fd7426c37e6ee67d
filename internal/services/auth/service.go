package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bondly-app/backend/internal/domain/enums"
	"github.com/bondly-app/backend/internal/domain/model"
	"github.com/bondly-app/backend/internal/pkg/validate"
	pgrepo "github.com/bondly-app/backend/internal/repo/postgres"
)

const (
	MinRefreshTTL     = 30 * 24 * time.Hour
	MaxRefreshTTL     = 90 * 24 * time.Hour
	MinPasswordLength = 8
	maxPasswordLength = 72
	maxDisplayName    = 64
)

type SessionStore interface {
	Create(ctx context.Context, session SessionRecord, refreshToken string) error
	GetSession(ctx context.Context, sid string) (SessionRecord, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (SessionRecord, error)
	RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, sid string) error
	DeleteAllForUser(ctx context.Context, userID string) error
}

type UserStore interface {
	Create(ctx context.Context, user model.User, passwordHash string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (pgrepo.UserRecord, error)
	GetByID(ctx context.Context, id string) (pgrepo.UserRecord, error)
}

// PhotoResolver turns a stored avatar object key into a retrieval URL.
type PhotoResolver interface {
	PublicURL(key string) string
}

type SessionListener func(ctx context.Context, event SessionEvent)

type Dependencies struct {
	JWT      *JWTManager
	Sessions SessionStore
	Users    UserStore
	Photos   PhotoResolver
	Logger   *zap.Logger
}

type Service struct {
	jwt        *JWTManager
	sessions   SessionStore
	users      UserStore
	photos     PhotoResolver
	logger     *zap.Logger
	refreshTTL time.Duration
	bcryptCost int
	now        func() time.Time

	mu        sync.RWMutex
	listeners []SessionListener
}

func NewService(deps Dependencies, refreshTTL time.Duration) *Service {
	if refreshTTL < MinRefreshTTL {
		refreshTTL = MinRefreshTTL
	}
	if refreshTTL > MaxRefreshTTL {
		refreshTTL = MaxRefreshTTL
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		jwt:        deps.JWT,
		sessions:   deps.Sessions,
		users:      deps.Users,
		photos:     deps.Photos,
		logger:     logger,
		refreshTTL: refreshTTL,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// OnSessionChanged registers fn for sign-in and sign-out events.
func (s *Service) OnSessionChanged(fn SessionListener) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Service) Register(ctx context.Context, email, password, displayName string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return AuthResult{}, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(password) < MinPasswordLength || len(password) > maxPasswordLength {
		return AuthResult{}, fmt.Errorf("%w: password must be %d..%d characters", ErrInvalidInput, MinPasswordLength, maxPasswordLength)
	}
	if !validate.Text(displayName, maxDisplayName) {
		return AuthResult{}, fmt.Errorf("%w: invalid display name", ErrInvalidInput)
	}
	if s.users == nil {
		return AuthResult{}, fmt.Errorf("user store is not configured")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, model.User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		Role:        enums.RoleUser,
		CreatedAt:   s.now().UTC(),
	}, string(hash))
	if err != nil {
		if errors.Is(err, pgrepo.ErrConflict) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	return s.issueForUser(ctx, user)
}

func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return AuthResult{}, ErrInvalidInput
	}
	if s.users == nil {
		return AuthResult{}, fmt.Errorf("user store is not configured")
	}

	rec, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgrepo.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	return s.issueForUser(ctx, s.withPhotoURL(rec.User))
}

// CurrentUser resolves the signed-in user of a validated identity.
func (s *Service) CurrentUser(ctx context.Context, userID string) (model.User, error) {
	if strings.TrimSpace(userID) == "" {
		return model.User{}, ErrUnauthorized
	}
	if s.users == nil {
		return model.User{}, fmt.Errorf("user store is not configured")
	}

	rec, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrNotFound) {
			return model.User{}, ErrUnauthorized
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}

	return s.withPhotoURL(rec.User), nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return AuthResult{}, ErrInvalidInput
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("get refresh token session: %w", err)
	}
	if s.now().After(session.ExpiresAt) {
		return AuthResult{}, ErrUnauthorized
	}

	newRefreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	newExpiresAt := s.now().Add(s.refreshTTL)
	if err := s.sessions.RotateRefresh(ctx, session.SID, refreshToken, newRefreshToken, newExpiresAt); err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(session.UserID, session.SID, session.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  newRefreshToken,
		AccessExpires: accessExpires,
		User: model.User{
			ID:   session.UserID,
			Role: enums.Role(session.Role),
		},
	}, nil
}

func (s *Service) Logout(ctx context.Context, identity Identity) error {
	if strings.TrimSpace(identity.SID) == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteSession(ctx, identity.SID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.emit(ctx, SessionEvent{Kind: SessionEnded, UserID: identity.UserID, SID: identity.SID})
	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete all sessions: %w", err)
	}
	s.emit(ctx, SessionEvent{Kind: SessionEnded, UserID: userID})
	return nil
}

func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (AccessClaims, error) {
	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return AccessClaims{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return AccessClaims{}, ErrUnauthorized
		}
		return AccessClaims{}, fmt.Errorf("get session: %w", err)
	}

	if session.UserID != claims.UserID || session.Role != claims.Role {
		return AccessClaims{}, ErrUnauthorized
	}
	if s.now().After(session.ExpiresAt) {
		return AccessClaims{}, ErrUnauthorized
	}

	return claims, nil
}

func (s *Service) issueForUser(ctx context.Context, user model.User) (AuthResult, error) {
	role := string(user.Role)
	if role == "" {
		role = string(enums.RoleUser)
	}
	sessionID, err := NewSessionID()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session id: %w", err)
	}
	refreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	session := SessionRecord{
		SID:       sessionID,
		UserID:    user.ID,
		Role:      role,
		ExpiresAt: s.now().Add(s.refreshTTL),
	}
	if err := s.sessions.Create(ctx, session, refreshToken); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(user.ID, sessionID, role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	s.emit(ctx, SessionEvent{Kind: SessionStarted, UserID: user.ID, SID: sessionID})
	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpires: accessExpires,
		User:          user,
	}, nil
}

func (s *Service) withPhotoURL(user model.User) model.User {
	if user.PhotoURL != "" && s.photos != nil {
		user.PhotoURL = s.photos.PublicURL(user.PhotoURL)
	}
	return user
}

func (s *Service) emit(ctx context.Context, event SessionEvent) {
	s.mu.RLock()
	listeners := append([]SessionListener(nil), s.listeners...)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(ctx, event)
	}
	s.logger.Debug("session changed", zap.String("kind", string(event.Kind)), zap.String("user_id", event.UserID))
}
