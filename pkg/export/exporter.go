// Package export drives a full project export: scene compilation, resource
// gathering, container serialization, archiving and platform packaging.
//
// A run is sequential. Fatal problems stop it in the phase they happened in; every
// other problem is reported as an error through the Reporter and the run continues.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gdexport/gdexport/pkg/compiler"
	"github.com/gdexport/gdexport/pkg/container"
	"github.com/gdexport/gdexport/pkg/diagnostic"
	"github.com/gdexport/gdexport/pkg/logger"
	"github.com/gdexport/gdexport/pkg/packager"
	"github.com/gdexport/gdexport/pkg/project"
	"github.com/gdexport/gdexport/pkg/resources"
	"github.com/gdexport/gdexport/pkg/types"
	"github.com/gdexport/gdexport/pkg/utils"
)

// ArchiveFile is the name of the data archive left in the staging directory
const ArchiveFile = "gam.egd"

// Packager adds runtime files to the staged data and writes the distributable
type Packager interface {
	CopyExtensions(job packager.Job)
	Finalize(ctx context.Context, job packager.Job) error
}

// Options configures an Exporter. Queue and Packager are required.
type Options struct {
	Queue     compiler.Queue
	Generator compiler.Generator
	Packager  Packager
	Reporter  diagnostic.Reporter
	Keys      container.KeyProvider
	Logger    logger.Logger

	// WaitInterval is the polling interval while waiting for the queue
	WaitInterval time.Duration
	// CompileTimeout bounds the wait for each scene; zero waits indefinitely
	CompileTimeout time.Duration
	// Yield is called between polls of the queue
	Yield func()
}

// Result describes a finished run
type Result struct {
	RunID      string
	Phase      Phase
	Errors     []string
	Duration   time.Duration
	StagingDir string
	// Err is the fatal error, a *PhaseError, or nil when the run succeeded
	Err error
}

// Succeeded reports whether the run reached the end of the pipeline
func (r Result) Succeeded() bool {
	return r.Phase == PhaseSucceeded
}

// FailedPhase returns the phase a failed run stopped in
func (r Result) FailedPhase() (Phase, bool) {
	var pe *PhaseError
	if errors.As(r.Err, &pe) {
		return pe.Phase, true
	}
	return 0, false
}

// Exporter runs exports. It may run several exports, one at a time.
type Exporter struct {
	opts Options
}

// New creates an exporter
func New(opts Options) (*Exporter, error) {
	if opts.Queue == nil {
		return nil, errors.New("export: a compilation queue is required")
	}
	if opts.Packager == nil {
		return nil, errors.New("export: a packager is required")
	}
	if opts.Generator == nil {
		opts.Generator = compiler.DescriptionGenerator{}
	}
	if opts.Reporter == nil {
		opts.Reporter = diagnostic.NewState()
	}
	if opts.Keys == nil {
		opts.Keys = container.FixedKey{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	return &Exporter{opts: opts}, nil
}

// run holds the state of one export
type run struct {
	ctx     context.Context
	opts    Options
	log     logger.Logger
	rep     *tracker
	req     types.ExportRequest
	game    *types.Project
	resMap  *resources.Map
	staging string
	result  Result
}

// Export exports p for the platforms of req. p is not modified. Only the waits for
// the compilation queue observe ctx. The run id stored in ctx, if any, identifies
// the run; otherwise a new one is generated.
func (e *Exporter) Export(ctx context.Context, p *types.Project, req types.ExportRequest) Result {
	start := time.Now()
	runID, ok := logger.RunIDFromContext(ctx)
	if !ok {
		runID = uuid.New().String()
		ctx = logger.ContextWithRunID(ctx, runID)
	}

	r := &run{
		ctx:    ctx,
		opts:   e.opts,
		log:    logger.FromContext(ctx, e.opts.Logger),
		rep:    newTracker(e.opts.Reporter),
		req:    req,
		result: Result{RunID: runID},
	}

	r.log.Info("Export started", logger.WithField("platforms", req.Platforms))
	err := r.execute(p)

	r.result.Duration = time.Since(start)
	r.result.Errors = r.rep.Errors()
	if err != nil {
		r.result.Phase = PhaseFailed
		r.result.Err = err
		r.log.Error("Export failed", logger.WithField("error", err))
		r.rep.OnCompilationFailed()
		return r.result
	}

	r.result.Phase = PhaseSucceeded
	r.log.Success("Export completed",
		logger.WithField("duration", r.result.Duration),
		logger.WithField("errors", len(r.result.Errors)))
	r.rep.OnCompilationSucceeded()
	return r.result
}

func (r *run) execute(p *types.Project) error {
	steps := []struct {
		phase Phase
		fn    func() error
	}{
		{PhaseValidatingTargets, func() error { return r.validate(p) }},
		{PhaseClearingStaging, r.clearStaging},
		{PhaseAwaitingPriorCompilation, r.awaitPriorCompilation},
		{PhaseDiscoveringResources, func() error { return r.discoverResources(p) }},
		{PhaseCompilingScenes, r.compileScenes},
		{PhaseCopyingResources, r.copyResources},
		{PhaseSerializingContainer, r.serializeContainer},
		{PhaseArchivingStaging, r.archiveStaging},
		{PhasePlatformPackaging, r.copyExtensions},
		{PhaseFinalizing, r.finalize},
	}

	for _, step := range steps {
		r.result.Phase = step.phase
		r.log.Debug("Entering phase", logger.WithField("phase", step.phase))
		if err := step.fn(); err != nil {
			return &PhaseError{Phase: step.phase, Err: err}
		}
	}
	r.rep.OnPercentUpdate(100)
	return nil
}

func (r *run) validate(p *types.Project) error {
	if len(r.req.Platforms) == 0 {
		r.rep.AddError("No target platform selected: choose at least one of Windows, Linux or Mac OS")
		return ErrNoTarget
	}
	if p == nil {
		r.rep.AddError("No project to export")
		return errors.New("no project")
	}
	return nil
}

func (r *run) clearStaging() error {
	r.staging = ResolveStaging(r.req.StagingDir, r.rep)
	r.result.StagingDir = r.staging
	r.log.Debug("Using staging directory", logger.WithField("path", r.staging))

	for _, err := range utils.ClearDirectory(r.staging) {
		r.rep.AddError(fmt.Sprintf("Unable to clear the temporary directory: %v", err))
	}
	return nil
}

func (r *run) awaitPriorCompilation() error {
	if !r.opts.Queue.IsBusy() {
		return nil
	}
	r.rep.OnMessage("Waiting for the end of the current compilation", "")
	if err := compiler.WaitIdle(r.ctx, r.opts.Queue, r.opts.WaitInterval, r.opts.Yield); err != nil {
		r.rep.AddError(fmt.Sprintf("Export aborted while waiting for the current compilation: %v", err))
		return err
	}
	return nil
}

// discoverResources works on a copy of p since resource references are rewritten
func (r *run) discoverResources(p *types.Project) error {
	r.game = project.Clone(p)
	for i := range r.game.Scenes {
		r.game.Scenes[i].Profiling = false
	}

	r.rep.OnMessage("Preparing resources", "")
	r.resMap = resources.NewMap()
	r.resMap.Reserve(container.PlainProjectFile, container.ProjectFile, container.LoadingScreenFile, ArchiveFile)

	// Code units keep their exact name in the archive
	for _, scene := range r.game.Scenes {
		r.resMap.Expose(compiler.CodeUnitFile(r.staging, scene.Name))
	}
	for _, res := range r.game.Resources {
		if res.UseFile() {
			r.rep.OnMessage("Preparing resources", res.Name)
		}
	}
	resources.Discover(r.game, r.resMap)

	r.log.Debug(fmt.Sprintf("Discovered %d resource files", r.resMap.Len()))
	return nil
}
