package history

// Package history implements the durable, append-only record of download
// outcomes. Records are persisted as JSON Lines so the file stays
// human-inspectable and individual appends are atomic; the full file is
// reloaded on startup and queries and statistics are served from memory.
