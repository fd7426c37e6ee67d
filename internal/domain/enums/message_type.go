package enums

type MessageType string

const (
	MessageTypeQuestion  MessageType = "question"
	MessageTypeAnswer    MessageType = "answer"
	MessageTypeChallenge MessageType = "challenge"
	MessageTypeSystem    MessageType = "system"
	MessageTypeText      MessageType = "text"
)

type ChallengeChoice string

const (
	ChallengeChoiceTruth ChallengeChoice = "truth"
	ChallengeChoiceDare  ChallengeChoice = "dare"
)

func ParseChallengeChoice(input string) (ChallengeChoice, bool) {
	switch ChallengeChoice(input) {
	case ChallengeChoiceTruth, ChallengeChoiceDare:
		return ChallengeChoice(input), true
	default:
		return "", false
	}
}
