package dto

type VibeCheckAnswerRequest struct {
	Index  int    `json:"index"`
	Choice string `json:"choice"`
}
