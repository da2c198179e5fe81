package model

// TaskStatus represents the status of a download task
type TaskStatus string

const (
	// TaskStatusQueued means the task is waiting for a free worker slot
	TaskStatusQueued TaskStatus = "Queued"

	// TaskStatusRunning means a fetch attempt is in progress
	TaskStatusRunning TaskStatus = "Running"

	// TaskStatusRetrying means the task is waiting out a backoff delay
	// before its next attempt
	TaskStatusRetrying TaskStatus = "Retrying"

	// TaskStatusSucceeded means the task finished successfully
	TaskStatusSucceeded TaskStatus = "Succeeded"

	// TaskStatusFailed means the task failed with an error
	TaskStatusFailed TaskStatus = "Failed"

	// TaskStatusCancelled means the task was cancelled by the user
	TaskStatusCancelled TaskStatus = "Cancelled"
)

// String returns the string representation of TaskStatus
func (ts TaskStatus) String() string {
	return string(ts)
}

// IsActive returns true if the task is in an active (non-queued,
// non-terminal) state
func (ts TaskStatus) IsActive() bool {
	return ts == TaskStatusRunning || ts == TaskStatusRetrying
}

// IsTerminal returns true if no further transition can occur
func (ts TaskStatus) IsTerminal() bool {
	return ts == TaskStatusSucceeded || ts == TaskStatusFailed || ts == TaskStatusCancelled
}

// CanTransition reports whether moving from ts to next is a legal
// state machine transition.
func (ts TaskStatus) CanTransition(next TaskStatus) bool {
	if ts.IsTerminal() {
		return false
	}
	switch ts {
	case TaskStatusQueued:
		return next == TaskStatusRunning || next == TaskStatusCancelled
	case TaskStatusRunning:
		return next == TaskStatusSucceeded || next == TaskStatusRetrying ||
			next == TaskStatusFailed || next == TaskStatusCancelled
	case TaskStatusRetrying:
		return next == TaskStatusRunning || next == TaskStatusFailed ||
			next == TaskStatusCancelled
	}
	return false
}
