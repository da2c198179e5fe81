package download

// Package download implements the core download pipeline: a bounded FIFO
// worker pool that drives each task through its lifecycle, retries transient
// failures per policy, propagates progress to subscribers, and hands terminal
// outcomes to the history store through a single recorder goroutine.
