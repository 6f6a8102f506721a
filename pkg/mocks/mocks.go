// Package mocks provides test doubles for the exporter's collaborators.
package mocks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gdexport/gdexport/pkg/compiler"
	"github.com/gdexport/gdexport/pkg/packager"
	"github.com/gdexport/gdexport/pkg/types"
)

// MockQueue is a compiler.Queue that compiles synchronously on Submit.
// Every job writes its output file unless its scene is listed in FailScenes.
type MockQueue struct {
	mu         sync.Mutex
	workingDir string
	jobs       []*compiler.Job
	busyPolls  int

	// FailScenes lists scenes whose output is never written
	FailScenes map[string]bool
	// BusyPolls is how many IsBusy calls report true after each Submit
	BusyPolls int
	// Hang keeps the queue busy forever after Submit
	Hang bool
}

// NewMockQueue creates a queue whose working directory is workingDir
func NewMockQueue(workingDir string) *MockQueue {
	return &MockQueue{
		workingDir: workingDir,
		FailScenes: make(map[string]bool),
	}
}

// Submit runs the job's pre-work and fakes its compilation
func (q *MockQueue) Submit(job *compiler.Job) {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.busyPolls = q.BusyPolls
	fail := q.FailScenes[job.Scene]
	q.mu.Unlock()

	if job.PreWork != nil {
		if err := job.PreWork.Execute(context.Background()); err != nil {
			return
		}
	}
	if fail {
		return
	}
	os.MkdirAll(filepath.Dir(job.OutputFile), 0755)
	os.WriteFile(job.OutputFile, []byte(fmt.Sprintf("code unit of %s", job.Scene)), 0644)
}

// IsBusy implements compiler.Queue
func (q *MockQueue) IsBusy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Hang && len(q.jobs) > 0 {
		return true
	}
	if q.busyPolls > 0 {
		q.busyPolls--
		return true
	}
	return false
}

// WorkingDirectory implements compiler.Queue
func (q *MockQueue) WorkingDirectory() string {
	return q.workingDir
}

// Jobs returns the submitted jobs in order
func (q *MockQueue) Jobs() []*compiler.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*compiler.Job(nil), q.jobs...)
}

// Scenes returns the scene names of the submitted jobs in order
func (q *MockQueue) Scenes() []string {
	var names []string
	for _, job := range q.Jobs() {
		names = append(names, job.Scene)
	}
	return names
}

// Message is one OnMessage call
type Message struct {
	Text   string
	Detail string
}

// MockReporter records every diagnostic.Reporter call
type MockReporter struct {
	mu        sync.Mutex
	Messages  []Message
	Percents  []float64
	ErrorList []string
	Failed    int
	Succeeded int
}

// NewMockReporter creates an empty recording reporter
func NewMockReporter() *MockReporter {
	return &MockReporter{}
}

func (r *MockReporter) OnMessage(text, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, Message{Text: text, Detail: detail})
}

func (r *MockReporter) OnPercentUpdate(percent float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Percents = append(r.Percents, percent)
}

func (r *MockReporter) AddError(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ErrorList = append(r.ErrorList, text)
}

func (r *MockReporter) OnCompilationFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failed++
}

func (r *MockReporter) OnCompilationSucceeded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Succeeded++
}

// GetErrors returns the recorded errors, one per line
func (r *MockReporter) GetErrors() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out string
	for _, e := range r.ErrorList {
		out += e + "\n"
	}
	return out
}

// Errors returns a copy of the recorded errors
func (r *MockReporter) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ErrorList...)
}

// HasMessage reports whether a message with the given text was recorded
func (r *MockReporter) HasMessage(text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.Messages {
		if m.Text == text {
			return true
		}
	}
	return false
}

// MockPackager records packaging calls. FinalizeErr is returned by Finalize.
type MockPackager struct {
	mu          sync.Mutex
	Extensions  []packager.Job
	Finalized   []packager.Job
	StagedFiles []string
	FinalizeErr error
}

// CopyExtensions records the job
func (p *MockPackager) CopyExtensions(job packager.Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Extensions = append(p.Extensions, job)
}

// Finalize records the job and the staging directory content at that time
func (p *MockPackager) Finalize(ctx context.Context, job packager.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Finalized = append(p.Finalized, job)
	entries, _ := os.ReadDir(job.StagingDir)
	p.StagedFiles = nil
	for _, e := range entries {
		p.StagedFiles = append(p.StagedFiles, e.Name())
	}
	return p.FinalizeErr
}

// StaticResolver resolves extensions from a fixed map
type StaticResolver map[string]types.Extension

// Resolve implements packager.ExtensionResolver
func (r StaticResolver) Resolve(name string) (types.Extension, bool) {
	ext, ok := r[name]
	return ext, ok
}
