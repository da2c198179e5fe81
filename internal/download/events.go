package download

import (
	"sync"

	"github.com/udownload/udownload/internal/model"
)

// EventType identifies what an event reports
type EventType string

const (
	// EventStateChanged is emitted on every task state transition
	EventStateChanged EventType = "state_changed"

	// EventProgress is emitted while a task is running
	EventProgress EventType = "progress"

	// EventTerminal is emitted exactly once when a task reaches a
	// terminal state
	EventTerminal EventType = "terminal"

	// EventStoreWarning reports a failed history append; the download
	// result itself is unaffected
	EventStoreWarning EventType = "store_warning"
)

// Event is delivered to subscribers. Task is a snapshot taken at emission
// time; Err is set only for store warnings.
type Event struct {
	Type EventType
	Task model.DownloadTask
	Err  string
}

type subscription struct {
	taskID string // empty subscribes to all tasks
	ch     chan Event
}

// Subscribe registers an observer. Events are delivered on a buffered
// channel with a non-blocking hand-off: a slow observer loses events
// rather than stalling the download pipeline. The returned function
// unsubscribes and closes the channel.
func (o *Orchestrator) Subscribe(taskID string) (<-chan Event, func()) {
	sub := &subscription{
		taskID: taskID,
		ch:     make(chan Event, o.cfg.EventBuffer),
	}

	o.subMu.Lock()
	o.subs = append(o.subs, sub)
	o.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			o.subMu.Lock()
			for i, s := range o.subs {
				if s == sub {
					o.subs = append(o.subs[:i], o.subs[i+1:]...)
					break
				}
			}
			close(sub.ch)
			o.subMu.Unlock()
		})
	}
	return sub.ch, cancel
}

// publish delivers an event to matching subscribers without blocking.
// Task events are published while the state mutex is still held, so the
// delivery order within a task matches its state transitions; a full
// subscriber buffer drops the event for that subscriber only.
func (o *Orchestrator) publish(ev Event) {
	o.subMu.Lock()
	for _, sub := range o.subs {
		if sub.taskID != "" && sub.taskID != ev.Task.ID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
	o.subMu.Unlock()
}
