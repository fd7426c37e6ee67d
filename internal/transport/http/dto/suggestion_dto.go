package dto

type SuggestionRequest struct {
	Kind       string   `json:"kind"`
	Topic      string   `json:"topic"`
	Transcript string   `json:"transcript"`
	Tags       []string `json:"tags"`
}

type SuggestionResponse struct {
	Text string `json:"text"`
}
