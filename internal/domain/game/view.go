package game

import "github.com/bondly-app/backend/internal/domain/enums"

type TurnView string

const (
	TurnMe   TurnView = "me"
	TurnThem TurnView = "them"
	TurnNone TurnView = "none"
)

type PendingView struct {
	MessageID string                `json:"message_id"`
	Kind      enums.MessageType     `json:"kind"`
	ForMe     bool                  `json:"for_me"`
	Choice    enums.ChallengeChoice `json:"choice,omitempty"`
}

// View is the game state as seen by one participant.
type View struct {
	Phase             Phase        `json:"phase"`
	Selection         *Selection   `json:"selection,omitempty"`
	Turn              TurnView     `json:"turn"`
	AwaitingAnswer    bool         `json:"awaiting_answer"`
	Pending           *PendingView `json:"pending,omitempty"`
	Vibe              enums.Vibe   `json:"vibe"`
	VibeCheckComplete bool         `json:"vibe_check_complete"`
	CanSend           bool         `json:"can_send"`
	CanAnswer         bool         `json:"can_answer"`
	CanAsk            bool         `json:"can_ask"`
}

func (c *Conversation) View(viewer string) View {
	v := View{
		Phase:             c.State.Phase(),
		Turn:              TurnNone,
		Vibe:              c.Chat.Vibe,
		VibeCheckComplete: c.VibeCheckComplete,
		CanSend:           c.CanSend(viewer),
		CanAnswer:         c.CanAnswer(viewer),
		CanAsk:            c.CanAsk(viewer),
	}
	switch st := c.State.(type) {
	case Toss:
		sel := st.Selection
		v.Selection = &sel
	case Playing:
		sel := st.Selection
		v.Selection = &sel
		v.AwaitingAnswer = st.AwaitingAnswer
		switch st.Turn {
		case "":
		case viewer:
			v.Turn = TurnMe
		default:
			v.Turn = TurnThem
		}
		if st.Pending != nil {
			v.Pending = &PendingView{
				MessageID: st.Pending.MessageID,
				Kind:      st.Pending.Kind,
				ForMe:     st.Pending.To == viewer,
				Choice:    st.Pending.Choice,
			}
		}
	}
	return v
}
