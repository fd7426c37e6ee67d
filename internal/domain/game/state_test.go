package game

import (
	"reflect"
	"testing"

	"github.com/bondly-app/backend/internal/domain/enums"
)

func TestStateSnapshotRoundTrip(t *testing.T) {
	states := []State{
		Idle{},
		Toss{Selection: Selection{Deck: enums.DeckFriends, Type: enums.GameTypeTruthOrDare, Level: 1}},
		Playing{
			Selection:      Selection{Deck: enums.DeckDate, Type: enums.GameTypeTruthOrDare, Level: 3},
			Turn:           "",
			AwaitingAnswer: true,
			Pending:        &Pending{MessageID: "m1", Kind: enums.MessageTypeChallenge, From: "a", To: "b"},
		},
	}
	for _, state := range states {
		raw, err := Encode(state)
		if err != nil {
			t.Fatalf("encode %T: %v", state, err)
		}
		got, err := Decode(raw)
		if err != nil {
			t.Fatalf("decode %T: %v", state, err)
		}
		if !reflect.DeepEqual(state, got) {
			t.Fatalf("round trip mismatch: %+v vs %+v", state, got)
		}
	}
}

func TestDecodeRejectsPlayingWithoutSelection(t *testing.T) {
	if _, err := Decode([]byte(`{"phase":"playing","turn":"a"}`)); err == nil {
		t.Fatalf("expected error")
	}
	state, err := Decode(nil)
	if err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if _, ok := state.(Idle); !ok {
		t.Fatalf("expected idle for missing session, got %T", state)
	}
}
