package enums

import "strings"

// Vibe is the thematic mode of a chat. It drives prompt content and front-end theming.
type Vibe string

const (
	VibeDate    Vibe = "date"
	VibeFriends Vibe = "friends"
	VibeSpicy   Vibe = "spicy"
)

func ParseVibe(input string) (Vibe, bool) {
	switch Vibe(strings.ToLower(strings.TrimSpace(input))) {
	case VibeDate:
		return VibeDate, true
	case VibeFriends:
		return VibeFriends, true
	case VibeSpicy:
		return VibeSpicy, true
	default:
		return "", false
	}
}

type Deck string

const (
	DeckFriends Deck = "Friends"
	DeckDate    Deck = "Date"
	DeckSpicy   Deck = "Spicy"
)

func ParseDeck(input string) (Deck, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "friends":
		return DeckFriends, true
	case "date":
		return DeckDate, true
	case "spicy":
		return DeckSpicy, true
	default:
		return "", false
	}
}

func (d Deck) Vibe() Vibe {
	switch d {
	case DeckDate:
		return VibeDate
	case DeckSpicy:
		return VibeSpicy
	default:
		return VibeFriends
	}
}

type GameType string

const (
	GameTypeVibe        GameType = "vibe"
	GameTypeTruthOrDare GameType = "truth-or-dare"
)

func ParseGameType(input string) (GameType, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "vibe":
		return GameTypeVibe, true
	case "truth-or-dare", "truth_or_dare", "tod":
		return GameTypeTruthOrDare, true
	default:
		return "", false
	}
}
