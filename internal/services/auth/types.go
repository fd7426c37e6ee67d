package auth

import (
	"errors"
	"time"

	"github.com/bondly-app/backend/internal/domain/model"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSessionNotFound    = errors.New("session not found")
	ErrRefreshNotFound    = errors.New("refresh token not found")
)

type SessionRecord struct {
	SID       string
	UserID    string
	Role      string
	ExpiresAt time.Time
}

type AccessClaims struct {
	UserID    string
	SID       string
	Role      string
	ExpiresAt time.Time
}

type AuthResult struct {
	AccessToken   string
	RefreshToken  string
	AccessExpires time.Time
	User          model.User
}

type SessionEventKind string

const (
	SessionStarted SessionEventKind = "signed_in"
	SessionEnded   SessionEventKind = "signed_out"
)

type SessionEvent struct {
	Kind   SessionEventKind
	UserID string
	SID    string
}
