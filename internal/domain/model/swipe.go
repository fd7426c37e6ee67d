package model

import (
	"time"

	"github.com/bondly-app/backend/internal/domain/enums"
)

type Swipe struct {
	ID        string               `json:"id"`
	SwiperID  string               `json:"swiper_id"`
	SwipedID  string               `json:"swiped_id"`
	Direction enums.SwipeDirection `json:"direction"`
	CreatedAt time.Time            `json:"created_at"`
}
