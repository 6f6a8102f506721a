// Package safegroup wraps errgroup with panic recovery for long-lived workers
package safegroup

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/gdexport/gdexport/pkg/logger"
)

// Group runs goroutines whose panics are turned into errors
type Group struct {
	group  *errgroup.Group
	logger logger.Logger
}

// New creates a Group bound to ctx. The returned context is cancelled as soon as
// one goroutine returns an error or panics.
func New(ctx context.Context, log logger.Logger) (*Group, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Group{group: g, logger: log}, ctx
}

// Go runs fn in a new goroutine with panic recovery
func (g *Group) Go(fn func() error) {
	g.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				g.logger.Error("Goroutine panic recovered",
					logger.WithField("panic", r),
					logger.WithField("stack_trace", string(debug.Stack())))
				err = fmt.Errorf("goroutine panic: %v", r)
			}
		}()

		return fn()
	})
}

// SetLimit sets the maximum number of concurrent goroutines
func (g *Group) SetLimit(n int) {
	g.group.SetLimit(n)
}

// Wait blocks until every goroutine returned and reports the first error
func (g *Group) Wait() error {
	return g.group.Wait()
}
