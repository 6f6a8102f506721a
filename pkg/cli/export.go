package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gdexport/gdexport/pkg/compiler"
	"github.com/gdexport/gdexport/pkg/config"
	"github.com/gdexport/gdexport/pkg/diagnostic"
	"github.com/gdexport/gdexport/pkg/export"
	"github.com/gdexport/gdexport/pkg/logger"
	"github.com/gdexport/gdexport/pkg/notifier"
	"github.com/gdexport/gdexport/pkg/packager"
	"github.com/gdexport/gdexport/pkg/process"
	"github.com/gdexport/gdexport/pkg/project"
	"github.com/gdexport/gdexport/pkg/state"
	"github.com/gdexport/gdexport/pkg/types"
)

type exportFlags struct {
	platforms []string
	output    string
	staging   string
	optimize  bool
	compress  bool
	watch     bool
	timeout   time.Duration
	noNotify  bool
	names     map[string]string
}

// pipeline holds the long lived collaborators of the export command
type pipeline struct {
	cfg      *types.ExportConfig
	queue    *compiler.TaskQueue
	packager *packager.Packager
	states   *state.Manager
	notifier *notifier.ExportNotifier
	timeout  time.Duration
}

func (c *CLI) newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export <project-file>",
		Short: "Export a project",
		Long: `Compile every scene of the project, pack the game data into a single archive
and copy the runtime of each selected platform into the output directory.

Values not given on the command line come from the configuration file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd, args[0], flags)
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&flags.platforms, "platform", "p", nil, "target platforms (windows, linux, macos)")
	f.StringVarP(&flags.output, "output", "o", "", "output directory")
	f.StringVar(&flags.staging, "staging", "", "base directory for temporary files")
	f.BoolVar(&flags.optimize, "optimize", false, "compile scenes with optimizations")
	f.BoolVar(&flags.compress, "compress", false, "produce a self-extracting Windows executable")
	f.BoolVarP(&flags.watch, "watch", "w", false, "export again every time the project file changes")
	f.DurationVar(&flags.timeout, "timeout", 0, "maximum time to wait for each scene to compile (0 waits indefinitely)")
	f.BoolVar(&flags.noNotify, "no-notify", false, "disable desktop notifications")
	f.StringToStringVar(&flags.names, "name", nil, "executable name per platform, e.g. windows=MyGame")

	c.viper.BindPFlag("export.compress", f.Lookup("compress"))
	c.viper.BindPFlag("export.optimize", f.Lookup("optimize"))
	c.viper.BindPFlag("export.no-notify", f.Lookup("no-notify"))

	return cmd
}

func (c *CLI) runExport(cmd *cobra.Command, projectPath string, flags exportFlags) error {
	cfg, _, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	req, err := c.buildRequest(cmd, cfg, flags)
	if err != nil {
		return err
	}

	proj, err := project.Load(projectPath)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	p := c.newPipeline(cfg, flags, proj.Name)

	pm := process.NewManager(c.logger)
	var currentName atomic.Value
	currentName.Store(proj.Name)
	pm.SetHeartbeat(func() {
		if err := p.states.Touch(currentName.Load().(string)); err != nil {
			c.logger.Debug("Failed to refresh export state", logger.WithField("error", err))
		}
	}, 0)
	// Handlers run in reverse: the interrupted run is recorded before the queue stops
	pm.RegisterShutdownHandler(func() {
		if err := p.queue.Stop(); err != nil {
			c.logger.Warn("Compilation queue stopped with an error", logger.WithField("error", err))
		}
	})
	pm.RegisterShutdownHandler(func() {
		if err := p.states.Interrupt(currentName.Load().(string)); err != nil {
			c.logger.Warn("Failed to record export state", logger.WithField("error", err))
		}
	})
	ctx := pm.Start(cmd.Context())
	defer pm.Stop()

	p.queue.Start(ctx)

	if !flags.watch {
		return c.exportOnce(ctx, p, proj, req)
	}

	c.printInfo(fmt.Sprintf("Watching %s, press Ctrl+C to stop", projectPath))
	return c.watchAndExport(ctx, projectPath, func(updated *types.Project) {
		// A change can race with the shutdown signal
		if !pm.IsRunning() {
			return
		}
		currentName.Store(updated.Name)
		if err := c.exportOnce(ctx, p, updated, req); err != nil {
			c.printError(err.Error())
		}
	}, proj)
}

// buildRequest starts from the configured defaults and applies the flags that were set
func (c *CLI) buildRequest(cmd *cobra.Command, cfg *types.ExportConfig, flags exportFlags) (types.ExportRequest, error) {
	req := config.Request(cfg)
	changed := cmd.Flags().Changed

	if changed("platform") {
		req.Platforms = nil
		for _, name := range flags.platforms {
			platform, err := types.ParsePlatform(name)
			if err != nil {
				return req, err
			}
			if !req.HasPlatform(platform) {
				req.Platforms = append(req.Platforms, platform)
			}
		}
	}
	if changed("output") {
		req.OutputDir = flags.output
	}
	if changed("staging") {
		req.StagingDir = flags.staging
	}
	if changed("optimize") || c.viper.IsSet("export.optimize") {
		req.Optimize = c.viper.GetBool("export.optimize")
	}
	if changed("compress") || c.viper.IsSet("export.compress") {
		req.CompressIfPossible = c.viper.GetBool("export.compress")
	}
	for name, exe := range flags.names {
		platform, err := types.ParsePlatform(name)
		if err != nil {
			return req, err
		}
		if req.ExecutableNames == nil {
			req.ExecutableNames = make(map[types.Platform]string)
		}
		req.ExecutableNames[platform] = exe
	}

	if req.OutputDir == "" {
		return req, errors.New("no output directory: use --output or set export.outputDir")
	}
	if abs, err := filepath.Abs(req.OutputDir); err == nil {
		req.OutputDir = abs
	}
	return req, nil
}

func (c *CLI) newPipeline(cfg *types.ExportConfig, flags exportFlags, projectName string) *pipeline {
	comp := compiler.NewCommandCompiler(cfg.Compiler, projectName, c.logger.WithTarget("compiler"))
	queue := compiler.NewTaskQueue(cfg.Compiler.WorkingDirectory, comp, c.logger.WithTarget("queue"))
	if cfg.Compiler.PollInterval > 0 {
		queue.SetPollInterval(time.Duration(cfg.Compiler.PollInterval) * time.Millisecond)
	}

	timeout := time.Duration(cfg.Compiler.Timeout) * time.Second
	if flags.timeout > 0 {
		timeout = flags.timeout
	}

	notifyEnabled := cfg.Notify != nil && cfg.Notify.Enabled && !c.viper.GetBool("export.no-notify")

	return &pipeline{
		cfg:      cfg,
		queue:    queue,
		packager: packager.New(packager.ResolveLayout(cfg.Runtime), packager.NewRegistry(cfg.Extensions), c.logger.WithTarget("packager")),
		states:   state.NewManager(c.config.ProjectRoot, c.logger),
		notifier: notifier.New(notifier.Config{Enabled: notifyEnabled}, c.logger),
		timeout:  timeout,
	}
}

func (c *CLI) exportOnce(ctx context.Context, p *pipeline, proj *types.Project, req types.ExportRequest) error {
	if running, err := p.states.IsRunning(proj.Name); err == nil && running {
		return fmt.Errorf("another export of %s is in progress", proj.Name)
	}

	var rep diagnostic.Reporter = diagnostic.NewConsoleReporterWithOutput(c.output)
	rep = diagnostic.NewNotifyReporter(rep, p.notifier, proj.Name)

	exp, err := export.New(export.Options{
		Queue:          p.queue,
		Generator:      compiler.NewGenerator(p.cfg.Compiler, c.logger.WithTarget("generator")),
		Packager:       p.packager,
		Reporter:       rep,
		Logger:         c.logger,
		WaitInterval:   compiler.DefaultWaitInterval,
		CompileTimeout: p.timeout,
	})
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	if _, err := p.states.Begin(proj.Name, runID, req); err != nil {
		c.logger.Warn("Failed to record export state", logger.WithField("error", err))
	}

	p.notifier.NotifyExportStart(proj.Name)
	result := exp.Export(logger.ContextWithRunID(ctx, runID), proj, req)

	status, phase := types.ExportStatusSucceeded, result.Phase
	if failed, ok := result.FailedPhase(); ok {
		status, phase = types.ExportStatusFailed, failed
	}
	if err := p.states.Finish(proj.Name, status, phase.String(), result.Duration, result.Errors); err != nil {
		c.logger.Warn("Failed to record export state", logger.WithField("error", err))
	}

	if result.Err != nil {
		return fmt.Errorf("export of %s failed: %w", proj.Name, result.Err)
	}
	if len(result.Errors) > 0 {
		c.printWarning(fmt.Sprintf("Exported %s to %s with %d error(s)", proj.Name, req.OutputDir, len(result.Errors)))
		return nil
	}
	c.printSuccess(fmt.Sprintf("Exported %s to %s in %s", proj.Name, req.OutputDir, result.Duration.Round(time.Millisecond)))
	return nil
}

// watchAndExport runs run for the initial project and then for every reloaded one
// until ctx ends. Changes arriving during an export collapse into one.
func (c *CLI) watchAndExport(ctx context.Context, path string, run func(*types.Project), initial *types.Project) error {
	changes := make(chan *types.Project, 1)
	w := project.NewWatcher(path, func(p *types.Project, err error) {
		if err != nil {
			c.printWarning(fmt.Sprintf("Project not reloaded: %v", err))
			return
		}
		select {
		case <-changes:
		default:
		}
		select {
		case changes <- p:
		default:
		}
	}, c.logger.WithTarget("watch"))

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	run(initial)
	for {
		select {
		case <-ctx.Done():
			c.printInfo("Stopped watching")
			return nil
		case p := <-changes:
			c.printInfo(fmt.Sprintf("%s changed, exporting again", filepath.Base(path)))
			run(p)
		}
	}
}
