package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	// ErrMissingOutput is returned when a finished job left no code unit behind
	ErrMissingOutput = errors.New("compilation produced no output file")
	// ErrCompileTimeout is returned when the queue did not become idle in time
	ErrCompileTimeout = errors.New("timed out waiting for compilation")
)

// Result is the post-condition of a finished job
type Result int

const (
	ResultOK Result = iota
	ResultMissingOutput
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultMissingOutput:
		return "missing output"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// Err returns nil for ResultOK and ErrMissingOutput otherwise
func (r Result) Err() error {
	if r == ResultOK {
		return nil
	}
	return ErrMissingOutput
}

// CheckOutput reports whether job produced its output file
func CheckOutput(job *Job) Result {
	info, err := os.Stat(job.OutputFile)
	if err != nil || info.IsDir() {
		return ResultMissingOutput
	}
	return ResultOK
}

// DefaultWaitInterval is the polling interval used by WaitIdle when none is given
const DefaultWaitInterval = 50 * time.Millisecond

// WaitIdle blocks until q reports it is not busy. Between polls it calls yield, if
// not nil, so that the caller can service its own events. It returns ctx.Err() when
// ctx ends first, wrapped in ErrCompileTimeout on deadline expiry.
func WaitIdle(ctx context.Context, q Queue, interval time.Duration, yield func()) error {
	if interval <= 0 {
		interval = DefaultWaitInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for q.IsBusy() {
		if yield != nil {
			yield()
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %w", ErrCompileTimeout, ctx.Err())
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
