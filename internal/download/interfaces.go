package download

import (
	"context"

	"github.com/udownload/udownload/internal/model"
)

// Fetcher is the injected fetch primitive: it performs one download attempt
// for the request, reporting progress as a 0..1 ratio. Implementations must
// stop promptly when ctx is cancelled and classify failures as
// *model.DownloadError; any other error is treated as permanent.
type Fetcher interface {
	Fetch(ctx context.Context, req model.DownloadRequest, onProgress func(float64)) (*model.FetchResult, error)
}

// Manager defines the interface the orchestrator exposes to front-ends.
type Manager interface {
	Submit(req model.DownloadRequest) (string, error)
	Cancel(id string) error
	CancelAll()
	WaitAll()
	Task(id string) (model.DownloadTask, bool)
	Tasks() []model.DownloadTask

	// Subscribe returns a stream of task events. taskID selects a single
	// task; the empty string subscribes to all tasks.
	Subscribe(taskID string) (<-chan Event, func())

	// Shutdown stops accepting submissions, cancels every live task, and
	// waits for the pipeline to drain.
	Shutdown()
}
