package rules

import (
	"fmt"

	"github.com/bondly-app/backend/internal/domain/enums"
)

const (
	MinGameLevel = 1
	MaxGameLevel = 3
)

type DarePair struct {
	Truth string
	Dare  string
}

var vibeQuestions = map[enums.Deck][MaxGameLevel][]string{
	enums.DeckFriends: {
		{
			"What's the best trip you've ever taken?",
			"Which song do you know every word to?",
			"What's your go-to comfort food?",
		},
		{
			"What's a hobby you'd pick up if you had a free month?",
			"Who was your hero growing up?",
			"What's the most useful thing you've learned this year?",
		},
		{
			"What's something you changed your mind about recently?",
			"When do you feel most like yourself?",
			"What's a friendship lesson you learned the hard way?",
		},
	},
	enums.DeckDate: {
		{
			"Coffee date or dinner date?",
			"What's your idea of a perfect Sunday?",
			"Which movie could you watch on repeat?",
		},
		{
			"What's the most romantic thing someone has done for you?",
			"What makes you laugh no matter what?",
			"What's a small gesture that means a lot to you?",
		},
		{
			"What does a good relationship look like to you?",
			"What are you looking for that you haven't found yet?",
			"What's something you want a partner to know early on?",
		},
	},
	enums.DeckSpicy: {
		{
			"What's your most embarrassing first-date story?",
			"What's the boldest pickup line you've heard?",
			"What's your secret talent?",
		},
		{
			"What's the wildest thing on your bucket list?",
			"What's your biggest turn-on in a conversation?",
			"What's a rule you love to break?",
		},
		{
			"What's a fantasy date you've never told anyone about?",
			"What's the most spontaneous thing you've ever done?",
			"What's something that instantly gets your attention?",
		},
	},
}

var darePairs = map[enums.Deck][MaxGameLevel][]DarePair{
	enums.DeckFriends: {
		{
			{Truth: "What's the last thing you googled?", Dare: "Send the third photo in your camera roll."},
			{Truth: "Who do you text the most?", Dare: "Type your next message with your eyes closed."},
		},
		{
			{Truth: "What's a habit you're trying to break?", Dare: "Share your most-played song right now."},
			{Truth: "What's your most irrational fear?", Dare: "Describe your day using only emojis."},
		},
		{
			{Truth: "What's something you've never told a friend?", Dare: "Record a 10 second impression of a celebrity."},
			{Truth: "What's the biggest risk you've taken?", Dare: "Send a voice note singing a chorus."},
		},
	},
	enums.DeckDate: {
		{
			{Truth: "What did you think when you first saw my profile?", Dare: "Send your best selfie from this week."},
			{Truth: "What's your love language?", Dare: "Plan our first date in three messages."},
		},
		{
			{Truth: "What's your biggest dating red flag?", Dare: "Write me a two line poem."},
			{Truth: "When did you last have a crush?", Dare: "Send the song that describes your mood."},
		},
		{
			{Truth: "What's something you'd want on a third date?", Dare: "Tell me something you'd only say in person."},
			{Truth: "What's your relationship deal-breaker?", Dare: "Describe your ideal kiss in five words."},
		},
	},
	enums.DeckSpicy: {
		{
			{Truth: "What's your most daring outfit?", Dare: "Send a flirty emoji combo."},
			{Truth: "What's the cheesiest line that worked on you?", Dare: "Use your best pickup line on me."},
		},
		{
			{Truth: "What's your guilty pleasure?", Dare: "Describe me in three words, honestly."},
			{Truth: "What's the boldest text you've ever sent?", Dare: "Send a voice note saying my name dramatically."},
		},
		{
			{Truth: "What's your biggest fantasy?", Dare: "Tell me what you'd do if I were there right now."},
			{Truth: "What's the riskiest place you've been kissed?", Dare: "Send the most attractive photo of you from this month."},
		},
	},
}

func ValidLevel(level int) bool {
	return level >= MinGameLevel && level <= MaxGameLevel
}

// DeckQuestion picks a built-in vibe question; seed selects the entry deterministically.
func DeckQuestion(deck enums.Deck, level int, seed int) (string, error) {
	levels, ok := vibeQuestions[deck]
	if !ok || !ValidLevel(level) {
		return "", fmt.Errorf("no questions for deck %q level %d", deck, level)
	}
	items := levels[level-1]
	return items[positiveMod(seed, len(items))], nil
}

func DeckDare(deck enums.Deck, level int, seed int) (DarePair, error) {
	levels, ok := darePairs[deck]
	if !ok || !ValidLevel(level) {
		return DarePair{}, fmt.Errorf("no challenges for deck %q level %d", deck, level)
	}
	items := levels[level-1]
	return items[positiveMod(seed, len(items))], nil
}

func positiveMod(v, n int) int {
	m := v % n
	if m < 0 {
		m += n
	}
	return m
}
