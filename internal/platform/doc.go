package platform

// Package platform contains platform detection from media URLs and the
// filesystem helpers used to lay out downloaded files.
