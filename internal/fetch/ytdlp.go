package fetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/udownload/udownload/internal/model"
	"github.com/udownload/udownload/internal/platform"
)

// DefaultProgressInterval is how often yt-dlp progress is sampled.
const DefaultProgressInterval = 500 * time.Millisecond

// OutputTemplate names downloaded files after the media title.
const OutputTemplate = "%(title)s.%(ext)s"

// YTDLP performs one download attempt per Fetch call using the yt-dlp tool.
type YTDLP struct {
	progressInterval time.Duration
}

// NewYTDLP creates the yt-dlp backed fetcher.
func NewYTDLP() *YTDLP {
	return &YTDLP{progressInterval: DefaultProgressInterval}
}

// Fetch runs a single yt-dlp download for the request. Files land in a
// per-platform subdirectory of the configured output directory.
func (f *YTDLP) Fetch(ctx context.Context, req model.DownloadRequest, onProgress func(float64)) (*model.FetchResult, error) {
	dir, err := platform.PlatformDir(req.Options.OutputDir, platform.Detect(req.URL))
	if err != nil {
		return nil, model.NewDownloadError(model.ErrorKindPermanent, "prepare output directory", err)
	}

	dl := ytdlp.New().
		ForceOverwrites().
		RestrictFilenames().
		Output(filepath.Join(dir, OutputTemplate))

	if req.Options.CookiesBrowser != "" {
		dl = dl.CookiesFromBrowser(req.Options.CookiesBrowser)
	}

	if req.Options.AudioOnly {
		dl = dl.ExtractAudio().AudioFormat("mp3")
		if req.Options.AudioQuality != "" {
			dl = dl.AudioQuality(req.Options.AudioQuality + "K")
		}
	} else {
		dl = dl.Format(FormatSelector(req.Options.VideoQuality))
		if req.Options.Format != "" && req.Options.Format != model.FormatOriginal {
			dl = dl.MergeOutputFormat(req.Options.Format)
		}
	}

	if onProgress != nil {
		dl.ProgressFunc(f.progressInterval, func(update ytdlp.ProgressUpdate) {
			if update.TotalBytes > 0 {
				onProgress(float64(update.DownloadedBytes) / float64(update.TotalBytes))
			}
		})
	}

	result, err := dl.Run(ctx, req.URL)
	if err != nil {
		return nil, Classify(ctx, err)
	}

	res := &model.FetchResult{}
	if result != nil {
		if info, err := result.GetExtractedInfo(); err == nil && len(info) > 0 {
			if info[0].Title != nil {
				res.Title = *info[0].Title
			}
			if info[0].Filename != nil {
				res.FilePath = *info[0].Filename
			}
		}
	}
	if res.FilePath != "" {
		if st, err := os.Stat(res.FilePath); err == nil {
			res.FileSizeBytes = st.Size()
		}
	}
	return res, nil
}

// FormatSelector maps a video quality preset to a yt-dlp format selector.
func FormatSelector(quality string) string {
	switch quality {
	case model.Quality1080p:
		return "bestvideo[height<=1080]+bestaudio/best"
	case model.Quality720p:
		return "bestvideo[height<=720]+bestaudio/best"
	case model.Quality480p:
		return "bestvideo[height<=480]+bestaudio/best"
	case model.Quality360p:
		return "bestvideo[height<=360]+bestaudio/best"
	default:
		return "bestvideo+bestaudio/best"
	}
}

// transientMarkers are substrings of yt-dlp output that indicate a failure
// worth retrying.
var transientMarkers = []string{
	"timed out",
	"timeout",
	"temporary failure",
	"connection reset",
	"429",
	"rate limit",
	"500",
	"502",
	"503",
	"504",
}

// permanentMarkers indicate failures that will not improve with retries.
var permanentMarkers = []string{
	"unsupported url",
	"is not a valid url",
	"unable to extract",
	"video unavailable",
	"private video",
	"sign in",
	"login required",
	"account",
	"404",
	"410",
}

// Classify turns a yt-dlp failure into a typed download error. Context
// cancellation wins over message matching; anything unrecognized keeps
// yt-dlp's message but is treated as permanent.
func Classify(ctx context.Context, err error) *model.DownloadError {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return model.NewDownloadError(model.ErrorKindCancelled, "download cancelled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.NewDownloadError(model.ErrorKindTransient, "download timed out", err)
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range permanentMarkers {
		if strings.Contains(msg, marker) {
			return model.NewDownloadError(model.ErrorKindPermanent, err.Error(), err)
		}
	}
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return model.NewDownloadError(model.ErrorKindTransient, err.Error(), err)
		}
	}
	return model.NewDownloadError(model.ErrorKindPermanent, err.Error(), err)
}
