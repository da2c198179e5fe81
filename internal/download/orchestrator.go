package download

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/udownload/udownload/internal/history"
	"github.com/udownload/udownload/internal/model"
	"github.com/udownload/udownload/internal/platform"
	"github.com/udownload/udownload/internal/retry"
)

// Parallelism bounds for the worker pool
const (
	MinParallel = 1
	MaxParallel = 10
)

// DefaultEventBuffer is the per-subscriber event channel capacity.
const DefaultEventBuffer = 256

// resultBuffer sizes the hand-off channel to the history recorder.
const resultBuffer = 64

// Sentinel errors for caller-facing operations
var (
	ErrUnknownTask = errors.New("download: unknown task")
	ErrShutdown    = errors.New("download: orchestrator is shut down")
)

// Config configures the orchestrator.
type Config struct {
	// MaxParallel is the worker slot count, 1 to 10 inclusive. Values
	// outside the range are rejected by New, not clamped.
	MaxParallel int

	// EventBuffer is the per-subscriber channel capacity.
	// Default: DefaultEventBuffer.
	EventBuffer int
}

// trackedTask pairs the orchestrator-owned task state with its
// cancellation context and completion signal.
type trackedTask struct {
	task   *model.DownloadTask // guarded by Orchestrator.mu
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{} // closed once the task is terminal
}

// Orchestrator owns a bounded set of concurrent download slots, admits
// submitted tasks FIFO, and aggregates progress and results for observers.
type Orchestrator struct {
	cfg     Config
	fetcher Fetcher
	policy  retry.Policy
	store   *history.Store

	mu       sync.RWMutex
	tasks    map[string]*trackedTask
	queue    []*trackedTask
	shutdown bool

	slots   chan struct{} // worker slot semaphore
	wake    chan struct{} // dispatcher wake signal, capacity 1
	results chan model.HistoryRecord

	subMu sync.Mutex
	subs  []*subscription

	rootCtx      context.Context
	rootCancel   context.CancelFunc
	workers      sync.WaitGroup
	recorderDone chan struct{}
}

// New creates an orchestrator around the given fetch primitive. The
// history store may be nil, in which case no outcomes are persisted. A nil
// policy defaults to the exponential policy.
func New(cfg Config, fetcher Fetcher, policy retry.Policy, store *history.Store) (*Orchestrator, error) {
	if cfg.MaxParallel < MinParallel || cfg.MaxParallel > MaxParallel {
		return nil, fmt.Errorf("download: max parallel must be between %d and %d, got %d",
			MinParallel, MaxParallel, cfg.MaxParallel)
	}
	if fetcher == nil {
		return nil, errors.New("download: fetcher is required")
	}
	if policy == nil {
		policy = retry.NewExponentialPolicy(0, 0)
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultEventBuffer
	}

	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		cfg:          cfg,
		fetcher:      fetcher,
		policy:       policy,
		store:        store,
		tasks:        make(map[string]*trackedTask),
		slots:        make(chan struct{}, cfg.MaxParallel),
		wake:         make(chan struct{}, 1),
		results:      make(chan model.HistoryRecord, resultBuffer),
		rootCtx:      ctx,
		rootCancel:   cancel,
		recorderDone: make(chan struct{}),
	}

	go o.dispatch()
	go o.record()

	return o, nil
}

// Submit enqueues a new download task and returns its ID. It never blocks
// waiting for a slot; the task starts once a worker is free.
func (o *Orchestrator) Submit(req model.DownloadRequest) (string, error) {
	if req.URL == "" {
		return "", errors.New("download: request URL is empty")
	}
	if req.MaxRetries < 0 {
		return "", errors.New("download: max retries must be non-negative")
	}

	o.mu.Lock()
	if o.shutdown {
		o.mu.Unlock()
		return "", ErrShutdown
	}

	taskCtx, cancel := context.WithCancel(o.rootCtx)
	tt := &trackedTask{
		task: &model.DownloadTask{
			ID:       generateTaskID(),
			Request:  req,
			Status:   model.TaskStatusQueued,
			Platform: platform.Detect(req.URL),
		},
		ctx:    taskCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	o.tasks[tt.task.ID] = tt
	o.queue = append(o.queue, tt)
	id := tt.task.ID
	// Published before the unlock so no later event for this task can
	// overtake the Queued one.
	o.publish(Event{Type: EventStateChanged, Task: tt.task.Snapshot()})
	o.mu.Unlock()

	o.wakeDispatcher()
	return id, nil
}

// Cancel requests cancellation of a task. Cancelling an already terminal
// task is a no-op; an unknown ID is an error. Cancel returns once the
// signal is delivered, not once the task has stopped; observe the terminal
// event for that.
func (o *Orchestrator) Cancel(id string) error {
	o.mu.RLock()
	tt, ok := o.tasks[id]
	o.mu.RUnlock()
	if !ok {
		return ErrUnknownTask
	}

	tt.cancel()

	o.mu.RLock()
	status := tt.task.Status
	o.mu.RUnlock()

	// A queued or backing-off task holds no slot, so no worker will
	// observe the cancelled context; finalize it here.
	if status == model.TaskStatusQueued || status == model.TaskStatusRetrying {
		o.finalize(tt, model.TaskStatusCancelled, nil)
	}
	return nil
}

// CancelAll cancels every non-terminal task.
func (o *Orchestrator) CancelAll() {
	o.mu.RLock()
	ids := make([]string, 0, len(o.tasks))
	for id, tt := range o.tasks {
		if !tt.task.Status.IsTerminal() {
			ids = append(ids, id)
		}
	}
	o.mu.RUnlock()

	for _, id := range ids {
		// Unknown IDs cannot happen here; terminal races are no-ops.
		_ = o.Cancel(id)
	}
}

// WaitAll blocks until every task submitted before the call reaches a
// terminal state. Tasks submitted concurrently with the call are not
// awaited, which keeps the contract well-defined.
func (o *Orchestrator) WaitAll() {
	o.mu.RLock()
	chans := make([]chan struct{}, 0, len(o.tasks))
	for _, tt := range o.tasks {
		chans = append(chans, tt.done)
	}
	o.mu.RUnlock()

	for _, ch := range chans {
		<-ch
	}
}

// Task returns a snapshot of a task by ID.
func (o *Orchestrator) Task(id string) (model.DownloadTask, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	tt, ok := o.tasks[id]
	if !ok {
		return model.DownloadTask{}, false
	}
	return tt.task.Snapshot(), true
}

// Tasks returns snapshots of all tasks.
func (o *Orchestrator) Tasks() []model.DownloadTask {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]model.DownloadTask, 0, len(o.tasks))
	for _, tt := range o.tasks {
		out = append(out, tt.task.Snapshot())
	}
	return out
}

// Shutdown stops accepting submissions, cancels all live tasks, and waits
// for workers and the recorder to drain. Safe to call more than once.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	if o.shutdown {
		o.mu.Unlock()
		return
	}
	o.shutdown = true
	o.mu.Unlock()

	o.CancelAll()
	o.WaitAll()
	o.rootCancel()
	o.workers.Wait()
	close(o.results)
	<-o.recorderDone
}

// dispatch assigns queued tasks to free slots in FIFO order.
func (o *Orchestrator) dispatch() {
	for {
		select {
		case <-o.rootCtx.Done():
			return
		case <-o.wake:
		}

		for {
			select {
			case <-o.rootCtx.Done():
				return
			case o.slots <- struct{}{}:
			}

			tt := o.popQueued()
			if tt == nil {
				<-o.slots
				break
			}

			o.workers.Add(1)
			go o.run(tt)
		}
	}
}

// popQueued removes and returns the oldest non-terminal queued task.
func (o *Orchestrator) popQueued() *trackedTask {
	o.mu.Lock()
	defer o.mu.Unlock()
	for len(o.queue) > 0 {
		tt := o.queue[0]
		o.queue = o.queue[1:]
		if tt.task.Status.IsTerminal() {
			continue
		}
		return tt
	}
	return nil
}

// run executes one fetch attempt for the task, holding one slot.
func (o *Orchestrator) run(tt *trackedTask) {
	defer o.workers.Done()

	started := o.transition(tt, model.TaskStatusRunning, func(t *model.DownloadTask) {
		t.Attempt++
		t.Progress = 0
		// Queue wait is not counted as download time.
		if t.StartedAt.IsZero() {
			t.StartedAt = time.Now()
		}
	})
	if !started {
		// Cancelled between dequeue and start.
		o.releaseSlot()
		return
	}

	o.mu.RLock()
	req := tt.task.Request
	attempt := tt.task.Attempt
	o.mu.RUnlock()

	result, err := o.fetcher.Fetch(tt.ctx, req, func(p float64) {
		o.updateProgress(tt, p)
	})

	// A result arriving after the cancellation signal is discarded; the
	// task must never be marked Succeeded once cancel was delivered.
	if tt.ctx.Err() != nil {
		o.finalize(tt, model.TaskStatusCancelled, nil)
		o.releaseSlot()
		return
	}

	if err == nil && result != nil {
		o.finalize(tt, model.TaskStatusSucceeded, func(t *model.DownloadTask) {
			t.Progress = 1.0
			t.Title = result.Title
			t.FilePath = result.FilePath
			t.FileSize = result.FileSizeBytes
		})
		o.releaseSlot()
		return
	}
	if err == nil {
		err = errors.New("fetch returned no result")
	}

	kind := model.KindOf(err)
	if kind == model.ErrorKindCancelled {
		o.finalize(tt, model.TaskStatusCancelled, nil)
		o.releaseSlot()
		return
	}

	if o.policy.ShouldRetry(attempt, kind, req.MaxRetries) {
		delay := o.policy.BackoffDelay(attempt)
		retrying := o.transition(tt, model.TaskStatusRetrying, func(t *model.DownloadTask) {
			t.LastError = err.Error()
		})
		o.releaseSlot()
		if retrying {
			log.Printf("retrying task %s in %v after attempt %d: %v", tt.task.ID, delay, attempt, err)
			time.AfterFunc(delay, func() { o.requeue(tt) })
		}
		return
	}

	o.finalize(tt, model.TaskStatusFailed, func(t *model.DownloadTask) {
		t.LastError = err.Error()
	})
	o.releaseSlot()
}

// requeue re-admits a retrying task at the tail of the FIFO queue once its
// backoff has elapsed.
func (o *Orchestrator) requeue(tt *trackedTask) {
	o.mu.Lock()
	if tt.task.Status != model.TaskStatusRetrying {
		o.mu.Unlock()
		return
	}
	o.queue = append(o.queue, tt)
	o.mu.Unlock()
	o.wakeDispatcher()
}

// transition applies a non-terminal state change, returning false if the
// state machine forbids it.
func (o *Orchestrator) transition(tt *trackedTask, next model.TaskStatus, mutate func(*model.DownloadTask)) bool {
	o.mu.Lock()
	if !tt.task.Status.CanTransition(next) {
		o.mu.Unlock()
		return false
	}
	tt.task.Status = next
	if mutate != nil {
		mutate(tt.task)
	}
	o.publish(Event{Type: EventStateChanged, Task: tt.task.Snapshot()})
	o.mu.Unlock()
	return true
}

// finalize moves a task into a terminal state exactly once, records the
// outcome, and signals completion. Cancelled tasks produce no history
// record.
func (o *Orchestrator) finalize(tt *trackedTask, next model.TaskStatus, mutate func(*model.DownloadTask)) bool {
	o.mu.Lock()
	if !tt.task.Status.CanTransition(next) {
		o.mu.Unlock()
		return false
	}
	tt.task.Status = next
	tt.task.FinishedAt = time.Now()
	if mutate != nil {
		mutate(tt.task)
	}
	snap := tt.task.Snapshot()
	o.publish(Event{Type: EventTerminal, Task: snap})
	o.mu.Unlock()

	tt.cancel()

	if next != model.TaskStatusCancelled {
		o.results <- model.RecordFromTask(&snap)
	}
	close(tt.done)
	return true
}

// updateProgress records fetch progress. Progress is only accepted while
// Running and is monotone within an attempt; stale or regressing updates
// are dropped.
func (o *Orchestrator) updateProgress(tt *trackedTask, p float64) {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}

	o.mu.Lock()
	if tt.task.Status != model.TaskStatusRunning || p < tt.task.Progress {
		o.mu.Unlock()
		return
	}
	tt.task.Progress = p
	o.publish(Event{Type: EventProgress, Task: tt.task.Snapshot()})
	o.mu.Unlock()
}

// record is the single writer funneling terminal outcomes into the history
// store. A failed append is logged and surfaced as a warning event; it
// never fails the originating task.
func (o *Orchestrator) record() {
	defer close(o.recorderDone)
	for rec := range o.results {
		if o.store == nil {
			continue
		}
		if err := o.store.Append(rec); err != nil {
			log.Printf("history append failed for %s: %v", rec.ID, err)
			o.publish(Event{Type: EventStoreWarning, Err: err.Error()})
		}
	}
}

func (o *Orchestrator) releaseSlot() {
	<-o.slots
	o.wakeDispatcher()
}

func (o *Orchestrator) wakeDispatcher() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// generateTaskID generates a unique task ID
func generateTaskID() string {
	return "task-" + uuid.NewString()
}
