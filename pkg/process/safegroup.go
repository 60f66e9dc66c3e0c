package process

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/o3de-mps/mpsexport/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// SafeGroup wraps errgroup.Group with panic recovery so a panicking output
// reader cannot take the whole export down with it.
type SafeGroup struct {
	group  *errgroup.Group
	logger logger.Logger
}

// NewSafeGroup creates a SafeGroup whose context is cancelled when any task
// returns an error or panics.
func NewSafeGroup(ctx context.Context, log logger.Logger) (*SafeGroup, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	return &SafeGroup{
		group:  g,
		logger: logger.OrNop(log),
	}, ctx
}

// Go runs fn in a new goroutine. A panic is converted to an error and logged
// with its stack trace.
func (sg *SafeGroup) Go(fn func() error) {
	sg.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				sg.logger.Error("Goroutine panic recovered",
					logger.WithField("panic", r),
					logger.WithField("stack_trace", string(debug.Stack())))
				err = fmt.Errorf("goroutine panic: %v", r)
			}
		}()
		return fn()
	})
}

// Wait blocks until every task has returned and reports the first error.
func (sg *SafeGroup) Wait() error {
	return sg.group.Wait()
}
