package enums

import "strings"

type SwipeDirection string

const (
	SwipeDirectionLeft  SwipeDirection = "left"
	SwipeDirectionRight SwipeDirection = "right"
)

func ParseSwipeDirection(input string) (SwipeDirection, bool) {
	switch SwipeDirection(strings.ToLower(strings.TrimSpace(input))) {
	case SwipeDirectionLeft:
		return SwipeDirectionLeft, true
	case SwipeDirectionRight:
		return SwipeDirectionRight, true
	default:
		return "", false
	}
}
