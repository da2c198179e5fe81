package platform

import "strings"

// Known platform names
const (
	PlatformYouTube   = "YouTube"
	PlatformTwitter   = "Twitter"
	PlatformFacebook  = "Facebook"
	PlatformInstagram = "Instagram"
	PlatformTikTok    = "TikTok"
	PlatformVimeo     = "Vimeo"
	PlatformOther     = "Other"
)

// Detect returns the platform name for the given media URL. Unknown hosts
// map to PlatformOther.
func Detect(url string) string {
	lower := strings.ToLower(url)

	switch {
	case strings.Contains(lower, "youtube.com") || strings.Contains(lower, "youtu.be"):
		return PlatformYouTube
	case strings.Contains(lower, "twitter.com") || strings.Contains(lower, "x.com"):
		return PlatformTwitter
	case strings.Contains(lower, "facebook.com") || strings.Contains(lower, "fb.com") || strings.Contains(lower, "fb.me"):
		return PlatformFacebook
	case strings.Contains(lower, "instagram.com"):
		return PlatformInstagram
	case strings.Contains(lower, "tiktok.com"):
		return PlatformTikTok
	case strings.Contains(lower, "vimeo.com"):
		return PlatformVimeo
	default:
		return PlatformOther
	}
}
