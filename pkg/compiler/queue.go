package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gdexport/gdexport/internal/safegroup"
	"github.com/gdexport/gdexport/pkg/logger"
)

// ErrorLogFile is the file, inside the working directory, collecting compile failures
const ErrorLogFile = "compilationErrors.txt"

// Queue is the compilation service consumed by the exporter
type Queue interface {
	Submit(job *Job)
	IsBusy() bool
	WorkingDirectory() string
}

// TaskQueue compiles submitted jobs one at a time on a background worker
type TaskQueue struct {
	workingDir string
	compiler   Compiler
	logger     logger.Logger
	interval   time.Duration

	mu      sync.Mutex
	pending []*Job
	active  *Job
	done    int

	cancel context.CancelFunc
	group  *safegroup.Group
}

// NewTaskQueue creates a queue compiling jobs with compiler inside workingDir
func NewTaskQueue(workingDir string, compiler Compiler, log logger.Logger) *TaskQueue {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &TaskQueue{
		workingDir: workingDir,
		compiler:   compiler,
		logger:     log,
		interval:   100 * time.Millisecond,
	}
}

// SetPollInterval sets how often the worker looks for new jobs
func (q *TaskQueue) SetPollInterval(d time.Duration) {
	if d > 0 {
		q.interval = d
	}
}

// Start starts the worker. Jobs submitted before Start wait until it runs.
func (q *TaskQueue) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	group, ctx := safegroup.New(ctx, q.logger)

	q.mu.Lock()
	q.cancel = cancel
	q.group = group
	q.mu.Unlock()

	q.logger.Debug("Starting compilation queue", logger.WithField("workdir", q.workingDir))
	group.Go(func() error {
		return q.run(ctx)
	})
}

// Stop stops the worker after the job in progress, if any, and waits for it
func (q *TaskQueue) Stop() error {
	q.mu.Lock()
	cancel, group := q.cancel, q.group
	q.cancel, q.group = nil, nil
	q.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	return group.Wait()
}

// Submit enqueues a job
func (q *TaskQueue) Submit(job *Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, job)
	q.logger.Debug(fmt.Sprintf("Queued %s (queue size: %d)", job, len(q.pending)))
}

// IsBusy reports whether a job is queued or being compiled
func (q *TaskQueue) IsBusy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active != nil || len(q.pending) > 0
}

// WorkingDirectory returns the directory generated sources are written to
func (q *TaskQueue) WorkingDirectory() string {
	return q.workingDir
}

// Size returns the number of queued jobs, excluding the one in progress
func (q *TaskQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Completed returns how many jobs were processed, successfully or not
func (q *TaskQueue) Completed() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.done
}

func (q *TaskQueue) run(ctx context.Context) error {
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			q.logger.Debug("Compilation queue stopping")
			return nil
		case <-ticker.C:
			q.processNext(ctx)
		}
	}
}

func (q *TaskQueue) processNext(ctx context.Context) {
	q.mu.Lock()
	if q.active != nil || len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}
	job := q.pending[0]
	q.pending = q.pending[1:]
	q.active = job
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.active = nil
		q.done++
		q.mu.Unlock()
	}()

	if err := q.execute(ctx, job); err != nil {
		q.recordFailure(job, err)
	}
}

func (q *TaskQueue) execute(ctx context.Context, job *Job) error {
	log := q.logger.WithTarget(job.Scene)
	startTime := time.Now()

	// A stale code unit from a previous run must never pass CheckOutput
	if err := os.Remove(job.OutputFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove previous output: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(job.OutputFile), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if job.PreWork != nil {
		if err := job.PreWork.Execute(ctx); err != nil {
			return fmt.Errorf("code generation failed: %w", err)
		}
	}

	if err := q.compiler.Compile(ctx, job); err != nil {
		return err
	}

	log.Success(fmt.Sprintf("Compiled in %s", time.Since(startTime).Round(time.Millisecond)))
	return nil
}

func (q *TaskQueue) recordFailure(job *Job, err error) {
	q.logger.WithTarget(job.Scene).Error("Compilation failed", logger.WithField("error", err))

	if q.workingDir == "" {
		return
	}
	if mkErr := os.MkdirAll(q.workingDir, 0755); mkErr != nil {
		return
	}
	f, openErr := os.OpenFile(filepath.Join(q.workingDir, ErrorLogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if openErr != nil {
		q.logger.Warn("Failed to open compilation error log", logger.WithField("error", openErr))
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "=== %s %s ===\n%v\n\n", time.Now().Format("2006-01-02 15:04:05"), job, err)
}
