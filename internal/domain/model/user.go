package model

import (
	"time"

	"github.com/bondly-app/backend/internal/domain/enums"
)

type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	PhotoURL    string     `json:"photo_url"`
	Role        enums.Role `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
}
