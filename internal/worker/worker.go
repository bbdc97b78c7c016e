package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Progress is one step reported by a running job.
type Progress struct {
	Current int
	Total   int
}

// Task is the unit of work run in the background. It reports its steps through
// progress and returns its terminal error.
type Task func(ctx context.Context, progress func(current, total int)) error

// Handle observes a job started with Start. Progress must be drained for the task to
// make headway.
type Handle struct {
	ID       string
	progress chan Progress
	done     chan error
}

// Start runs task on its own goroutine so the caller is not blocked. Cancelling ctx
// is the only way to abort; it is passed to the task as is.
func Start(ctx context.Context, task Task) *Handle {
	h := &Handle{
		ID:       uuid.NewString(),
		progress: make(chan Progress, 16),
		done:     make(chan error, 1),
	}
	go func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("job %s panicked: %v", h.ID, r)
			}
			close(h.progress)
			h.done <- err
		}()
		err = task(ctx, func(current, total int) {
			select {
			case h.progress <- Progress{Current: current, Total: total}:
			case <-ctx.Done():
			}
		})
	}()
	return h
}

func (h *Handle) Progress() <-chan Progress { return h.progress }

// Done delivers the terminal error (nil on success) once Progress is closed.
func (h *Handle) Done() <-chan error { return h.done }
