package model

import (
	"time"

	"github.com/bondly-app/backend/internal/domain/enums"
)

type Image struct {
	Kind      enums.ImageKind `json:"kind"`
	ObjectKey string          `json:"object_key"`
	URL       string          `json:"url"`
	Position  int             `json:"position"`
	CreatedAt time.Time       `json:"created_at"`
}

type MediaTombstone struct {
	ID        int64     `json:"id"`
	ObjectKey string    `json:"object_key"`
	Reason    string    `json:"reason"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}
