package rules

const pairKeySeparator = "_"

// PairKey is the order-independent key of two users. It is the id of their Match and Chat.
func PairKey(userID, otherID string) string {
	a, b := OrderedPair(userID, otherID)
	return a + pairKeySeparator + b
}

func OrderedPair(userID, otherID string) (string, string) {
	if userID > otherID {
		return otherID, userID
	}
	return userID, otherID
}
