package rules

import (
	"testing"

	"github.com/bondly-app/backend/internal/domain/enums"
)

func TestDeckQuestionCoversEveryDeckAndLevel(t *testing.T) {
	for _, deck := range []enums.Deck{enums.DeckFriends, enums.DeckDate, enums.DeckSpicy} {
		for level := MinGameLevel; level <= MaxGameLevel; level++ {
			q, err := DeckQuestion(deck, level, -7)
			if err != nil {
				t.Fatalf("deck %s level %d: %v", deck, level, err)
			}
			if q == "" {
				t.Fatalf("deck %s level %d: empty question", deck, level)
			}
			pair, err := DeckDare(deck, level, 11)
			if err != nil {
				t.Fatalf("deck %s level %d dare: %v", deck, level, err)
			}
			if pair.Truth == "" || pair.Dare == "" {
				t.Fatalf("deck %s level %d: incomplete pair %+v", deck, level, pair)
			}
		}
	}
}

func TestDeckQuestionRejectsUnknownLevel(t *testing.T) {
	if _, err := DeckQuestion(enums.DeckDate, 4, 0); err == nil {
		t.Fatalf("expected error for level 4")
	}
	if _, err := DeckDare(enums.Deck("Work"), 1, 0); err == nil {
		t.Fatalf("expected error for unknown deck")
	}
}
