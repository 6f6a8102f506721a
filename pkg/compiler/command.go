package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gdexport/gdexport/pkg/logger"
	"github.com/gdexport/gdexport/pkg/resources"
	"github.com/gdexport/gdexport/pkg/types"
)

//go:generate mockgen -source=command.go -destination=mock_command_test.go -package=compiler

// Compiler compiles a job's input file into its output file
type Compiler interface {
	Compile(ctx context.Context, job *Job) error
}

// CommandCompiler runs an external compiler command for every job
type CommandCompiler struct {
	Config  *types.CompilerConfig
	Project string
	Logger  logger.Logger
}

// NewCommandCompiler creates a compiler running config.Command
func NewCommandCompiler(config *types.CompilerConfig, project string, log logger.Logger) *CommandCompiler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &CommandCompiler{Config: config, Project: project, Logger: log}
}

// Compile runs the compiler command for job
func (c *CommandCompiler) Compile(ctx context.Context, job *Job) error {
	if c.Config == nil || c.Config.Command == "" {
		return fmt.Errorf("no compiler command configured")
	}

	args := append([]string{}, c.Config.Args...)
	if job.Optimize {
		args = append(args, c.Config.OptimizeArgs...)
	}
	vars := map[string]string{
		"{input}":   job.InputFile,
		"{output}":  job.OutputFile,
		"{project}": c.Project,
		"{scene}":   job.Scene,
	}

	return runCommand(ctx, c.Logger.WithTarget(job.Scene), c.Config, c.Config.Command, expandArgs(args, vars))
}

// Generator writes the compilable source of one scene
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) error
}

// GenerateRequest is everything a generator needs to produce a scene's source
type GenerateRequest struct {
	Project    *types.Project
	Scene      *types.Scene
	Resources  *resources.Map
	OutputFile string
}

// sceneDescription is the document handed to generators
type sceneDescription struct {
	Project   string                 `json:"project"`
	Scene     *types.Scene           `json:"scene"`
	Resources []resources.Relocation `json:"resources"`
}

func writeDescription(path string, req GenerateRequest) error {
	desc := sceneDescription{
		Project: req.Project.Name,
		Scene:   req.Scene,
	}
	if req.Resources != nil {
		desc.Resources = req.Resources.GetAll()
	}

	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode scene %q: %w", req.Scene.Name, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// DescriptionGenerator writes the scene description itself as the generated source.
// It is used when no generator command is configured and the compiler consumes the
// description directly.
type DescriptionGenerator struct{}

// Generate writes the scene description to req.OutputFile
func (DescriptionGenerator) Generate(ctx context.Context, req GenerateRequest) error {
	return writeDescription(req.OutputFile, req)
}

// CommandGenerator runs an external code generator on a scene description
type CommandGenerator struct {
	Config *types.CompilerConfig
	Logger logger.Logger
}

// NewCommandGenerator creates a generator running config.GeneratorCommand
func NewCommandGenerator(config *types.CompilerConfig, log logger.Logger) *CommandGenerator {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &CommandGenerator{Config: config, Logger: log}
}

// Generate writes the scene description next to the output file, runs the generator
// on it and removes it again
func (g *CommandGenerator) Generate(ctx context.Context, req GenerateRequest) error {
	descPath := req.OutputFile + ".json"
	if err := writeDescription(descPath, req); err != nil {
		return err
	}
	defer os.Remove(descPath)

	vars := map[string]string{
		"{input}":   descPath,
		"{output}":  req.OutputFile,
		"{project}": req.Project.Name,
		"{scene}":   req.Scene.Name,
	}
	return runCommand(ctx, g.Logger.WithTarget(req.Scene.Name), g.Config, g.Config.GeneratorCommand, expandArgs(g.Config.GeneratorArgs, vars))
}

// NewGenerator returns a CommandGenerator when config names a generator command,
// and a DescriptionGenerator otherwise
func NewGenerator(config *types.CompilerConfig, log logger.Logger) Generator {
	if config != nil && config.GeneratorCommand != "" {
		return NewCommandGenerator(config, log)
	}
	return DescriptionGenerator{}
}

// EventsPreWork generates a scene's source before the scene is compiled
type EventsPreWork struct {
	Generator  Generator
	Project    *types.Project
	Scene      *types.Scene
	Resources  *resources.Map
	OutputFile string
}

// Execute runs the generator
func (p *EventsPreWork) Execute(ctx context.Context) error {
	return p.Generator.Generate(ctx, GenerateRequest{
		Project:    p.Project,
		Scene:      p.Scene,
		Resources:  p.Resources,
		OutputFile: p.OutputFile,
	})
}

// expandArgs substitutes every placeholder in a single pass, so values are never
// expanded again
func expandArgs(args []string, vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, vars[k])
	}
	r := strings.NewReplacer(pairs...)

	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = r.Replace(arg)
	}
	return out
}

func runCommand(ctx context.Context, log logger.Logger, config *types.CompilerConfig, command string, args []string) error {
	startTime := time.Now()

	cmd := exec.CommandContext(ctx, command, args...)
	if env := config.Environment; env != nil {
		cmd.Env = os.Environ()
		for k, v := range env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}
	if config.WorkingDirectory != "" {
		cmd.Dir = config.WorkingDirectory
	}

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	log.Debug(fmt.Sprintf("Executing: %s %s", command, strings.Join(args, " ")))

	if err := cmd.Run(); err != nil {
		log.Error("Command failed",
			logger.WithField("error", err),
			logger.WithField("output", output.String()))
		return fmt.Errorf("%s failed: %w\n%s", filepath.Base(command), err, output.String())
	}

	log.Debug(fmt.Sprintf("Command completed in %s", time.Since(startTime).Round(time.Millisecond)))
	return nil
}
