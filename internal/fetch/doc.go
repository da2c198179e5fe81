package fetch

// Package fetch implements the production fetch primitive on top of yt-dlp
// (via github.com/lrstanley/go-ytdlp). It maps output options onto yt-dlp
// flags, forwards progress, and classifies failures for the retry policy.
