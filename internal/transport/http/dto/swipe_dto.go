package dto

type SwipeRequest struct {
	TargetID  string `json:"target_id"`
	Direction string `json:"direction"`
}

type SwipeResponse struct {
	OK      bool   `json:"ok"`
	IsMatch bool   `json:"is_match"`
	MatchID string `json:"match_id,omitempty"`
}
