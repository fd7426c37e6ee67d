package dto

type UploadImageResponse struct {
	Image ImageResponse `json:"image"`
}
