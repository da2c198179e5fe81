package model

import "testing"

func TestTaskStatus_IsActive(t *testing.T) {
	tests := []struct {
		status   TaskStatus
		expected bool
	}{
		{TaskStatusQueued, false},
		{TaskStatusRunning, true},
		{TaskStatusRetrying, true},
		{TaskStatusSucceeded, false},
		{TaskStatusFailed, false},
		{TaskStatusCancelled, false},
	}

	for _, test := range tests {
		result := test.status.IsActive()
		if result != test.expected {
			t.Errorf("TaskStatus(%s).IsActive() = %v, expected %v", test.status, result, test.expected)
		}
	}
}

func TestTaskStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   TaskStatus
		expected bool
	}{
		{TaskStatusQueued, false},
		{TaskStatusRunning, false},
		{TaskStatusRetrying, false},
		{TaskStatusSucceeded, true},
		{TaskStatusFailed, true},
		{TaskStatusCancelled, true},
	}

	for _, test := range tests {
		result := test.status.IsTerminal()
		if result != test.expected {
			t.Errorf("TaskStatus(%s).IsTerminal() = %v, expected %v", test.status, result, test.expected)
		}
	}
}

func TestTaskStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from     TaskStatus
		to       TaskStatus
		expected bool
	}{
		{TaskStatusQueued, TaskStatusRunning, true},
		{TaskStatusQueued, TaskStatusCancelled, true},
		{TaskStatusQueued, TaskStatusSucceeded, false},
		{TaskStatusQueued, TaskStatusRetrying, false},
		{TaskStatusRunning, TaskStatusSucceeded, true},
		{TaskStatusRunning, TaskStatusRetrying, true},
		{TaskStatusRunning, TaskStatusFailed, true},
		{TaskStatusRunning, TaskStatusCancelled, true},
		{TaskStatusRunning, TaskStatusQueued, false},
		{TaskStatusRetrying, TaskStatusRunning, true},
		{TaskStatusRetrying, TaskStatusFailed, true},
		{TaskStatusRetrying, TaskStatusCancelled, true},
		{TaskStatusRetrying, TaskStatusSucceeded, false},
		{TaskStatusSucceeded, TaskStatusRunning, false},
		{TaskStatusSucceeded, TaskStatusFailed, false},
		{TaskStatusFailed, TaskStatusRunning, false},
		{TaskStatusCancelled, TaskStatusRunning, false},
		{TaskStatusCancelled, TaskStatusCancelled, false},
	}

	for _, test := range tests {
		result := test.from.CanTransition(test.to)
		if result != test.expected {
			t.Errorf("CanTransition(%s -> %s) = %v, expected %v", test.from, test.to, result, test.expected)
		}
	}
}

func TestTaskStatus_String(t *testing.T) {
	status := TaskStatusRetrying
	expected := "Retrying"
	result := status.String()

	if result != expected {
		t.Errorf("TaskStatus.String() = %s, expected %s", result, expected)
	}
}
