package model

// Video quality presets for downloads
const (
	QualityBest  = "best"
	Quality1080p = "1080p"
	Quality720p  = "720p"
	Quality480p  = "480p"
	Quality360p  = "360p"
)

// Container format preferences
const (
	FormatMP4      = "mp4"
	FormatMKV      = "mkv"
	FormatWebM     = "webm"
	FormatOriginal = "original"
)

// OutputOptions describes how a downloaded item should be fetched and stored
type OutputOptions struct {
	VideoQuality   string // best, 1080p, 720p, 480p, 360p
	AudioQuality   string // bitrate in kbps, e.g. "192"
	AudioOnly      bool   // extract audio only (mp3)
	Format         string // mp4, mkv, webm, original
	OutputDir      string // base output directory
	CookiesBrowser string // browser to read cookies from, empty to disable
}

// DownloadRequest is the immutable input for one download task. It is
// created by the caller at submission time and never mutated.
type DownloadRequest struct {
	URL        string
	Options    OutputOptions
	MaxRetries int // additional attempts after the first; must be >= 0
}
