package enums

type SuggestionKind string

const (
	SuggestionGenerateQuestion SuggestionKind = "generate-question"
	SuggestionFollowupPrompt   SuggestionKind = "suggest-followup-prompt"
	SuggestionHandleSwipe      SuggestionKind = "handle-swipe"
)
