package model

// Package model defines domain data structures used across the app: download
// requests and tasks, history records, status enums, and the error taxonomy
// that drives retry decisions. Structures are designed for explicit state
// transitions and safe hand-off to observers as snapshots.
