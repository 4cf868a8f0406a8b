package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Go runs fn in a goroutine with panic recovery and a per-task timeout.
// Errors and panics are logged rather than propagated; callers that need
// the result should use Batch instead.
func Go(parent context.Context, log logrus.FieldLogger, timeout time.Duration, task string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				log.WithFields(logrus.Fields{
					"task":  task,
					"panic": r,
					"stack": string(debug.Stack()),
				}).Error("Background task panicked")
			}
		}()

		if err := fn(ctx); err != nil {
			log.WithField("task", task).WithError(err).Warn("Background task failed")
		}
	}()
}

// Batch runs fn over items with at most workers goroutines in flight.
// Each invocation gets its own timeout-bounded context. Panics in fn are
// converted to errors. The returned slice holds every failure; order is
// not significant.
func Batch[T any](ctx context.Context, items []T, workers int, timeout time.Duration, fn func(context.Context, T) error) []error {
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	work := make(chan T)
	errCh := make(chan error, len(items))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				errCh <- runOne(ctx, timeout, item, fn)
			}
		}()
	}

	for _, item := range items {
		work <- item
	}
	close(work)
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func runOne[T any](parent context.Context, timeout time.Duration, item T, fn func(context.Context, T) error) (err error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return fn(ctx, item)
}
