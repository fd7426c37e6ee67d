package enums

import "strings"

type ImageKind string

const (
	ImageKindAvatar  ImageKind = "avatar"
	ImageKindBanner  ImageKind = "banner"
	ImageKindGallery ImageKind = "gallery"
)

func ParseImageKind(input string) (ImageKind, bool) {
	switch ImageKind(strings.ToLower(strings.TrimSpace(input))) {
	case ImageKindAvatar:
		return ImageKindAvatar, true
	case ImageKindBanner:
		return ImageKindBanner, true
	case ImageKindGallery:
		return ImageKindGallery, true
	default:
		return "", false
	}
}
