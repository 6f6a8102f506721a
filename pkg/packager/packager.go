package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gdexport/gdexport/pkg/diagnostic"
	"github.com/gdexport/gdexport/pkg/logger"
	"github.com/gdexport/gdexport/pkg/types"
	"github.com/gdexport/gdexport/pkg/utils"
)

// ErrSelfExtracting is wrapped by every fatal error of self-extracting packaging
var ErrSelfExtracting = errors.New("unable to build self-extracting package")

// Job is one packaging request
type Job struct {
	Request    types.ExportRequest
	Project    *types.Project
	StagingDir string
	Reporter   diagnostic.Reporter
}

// Packager copies runtime and extension files next to the exported data and
// produces the final output
type Packager struct {
	layout     Layout
	extensions ExtensionResolver
	archiver   Archiver
	icons      IconEmbedder
	logger     logger.Logger
}

// Option configures a Packager
type Option func(*Packager)

// WithArchiver replaces the 7-Zip archiver
func WithArchiver(a Archiver) Option {
	return func(p *Packager) { p.archiver = a }
}

// WithIconEmbedder sets the tool used to change the Windows executable icon
func WithIconEmbedder(e IconEmbedder) Option {
	return func(p *Packager) { p.icons = e }
}

// New creates a packager for an installation layout
func New(layout Layout, extensions ExtensionResolver, log logger.Logger, opts ...Option) *Packager {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if extensions == nil {
		extensions = NewRegistry(nil)
	}
	p := &Packager{
		layout:     layout,
		extensions: extensions,
		archiver:   SevenZip{Path: layout.Archiver},
		logger:     log,
	}
	if layout.IconEmbedder != "" {
		p.icons = CommandIconEmbedder{Path: layout.IconEmbedder}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Compressed reports whether req produces a self-extracting Windows executable
func Compressed(req types.ExportRequest) bool {
	return req.CompressIfPossible && req.HasPlatform(types.PlatformWindows)
}

// CopyExtensions copies into the staging directory the extension binaries and
// supplementary files of every selected platform, and the external sources bundle
// when the project uses it. Failures are reported and never stop the export.
func (p *Packager) CopyExtensions(job Job) {
	for _, name := range job.Project.UsedExtensions {
		ext, ok := p.extensions.Resolve(name)
		if !ok {
			p.logger.Debug("Extension has no descriptor", logger.WithField("extension", name))
			continue
		}

		for _, platform := range types.AllPlatforms {
			if !job.Request.HasPlatform(platform) {
				continue
			}
			if ShipsBinary(ext) {
				p.copyExtensionBinary(job, name, platform)
			}
			p.copySupplementaryFiles(job, ext, platform)
		}
	}

	if job.Project.UseExternalSourceFiles {
		dst := filepath.Join(job.StagingDir, filepath.Base(p.layout.ExternalSourcesBundle))
		if err := utils.CopyFile(p.layout.ExternalSourcesBundle, dst); err != nil {
			job.Reporter.AddError(fmt.Sprintf("Unable to copy the compiled external sources (%s) into the staging directory: %v",
				filepath.Base(p.layout.ExternalSourcesBundle), err))
		}
	}
}

func (p *Packager) copyExtensionBinary(job Job, name string, platform types.Platform) {
	file := name + extensionSuffix(platform)
	if err := utils.CopyFile(filepath.Join(p.layout.ExtensionsDir, file), filepath.Join(job.StagingDir, file)); err != nil {
		job.Reporter.AddError(fmt.Sprintf("Unable to copy extension %s for %s into the staging directory: %v",
			name, platform.DisplayName(), err))
	}
}

func (p *Packager) copySupplementaryFiles(job Job, ext types.Extension, platform types.Platform) {
	for _, supplementary := range ext.SupplementaryFiles {
		if supplementary.Platform != platform.Tag() {
			continue
		}

		// Absolute paths are staged relative to their last fixed directory
		root, pattern := p.layout.Root, supplementary.Path
		if filepath.IsAbs(pattern) {
			root, pattern = doublestar.SplitPattern(filepath.ToSlash(pattern))
			root = filepath.FromSlash(root)
		}

		files, err := utils.ExpandPattern(root, pattern)
		if err != nil {
			job.Reporter.AddError(fmt.Sprintf("Invalid supplementary file pattern %s of extension %s: %v",
				supplementary.Path, ext.Name, err))
			continue
		}
		if len(files) == 0 {
			job.Reporter.AddError(fmt.Sprintf("No file matches %s for %s", supplementary.Path, platform.DisplayName()))
			continue
		}

		for _, rel := range files {
			if !filepath.IsLocal(filepath.FromSlash(rel)) {
				job.Reporter.AddError(fmt.Sprintf("Supplementary file %s of extension %s is outside the runtime directory",
					rel, ext.Name))
				continue
			}
			src := filepath.Join(root, filepath.FromSlash(rel))
			dst := filepath.Join(job.StagingDir, filepath.FromSlash(rel))
			if err := utils.CopyFile(src, dst); err != nil {
				job.Reporter.AddError(fmt.Sprintf("Unable to copy %s for %s into the staging directory: %v",
					rel, platform.DisplayName(), err))
			}
		}
	}
}

// Finalize adds the runtime files and writes the distributable into the output
// directory. Only the self-extracting step can fail fatally; its error is returned.
func (p *Packager) Finalize(ctx context.Context, job Job) error {
	req := job.Request
	rep := job.Reporter

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		rep.AddError(fmt.Sprintf("Unable to create the output directory %s: %v", req.OutputDir, err))
	}

	uncompressed := req.Platforms
	if req.CompressIfPossible {
		if Compressed(req) {
			if err := p.buildSelfExtracting(ctx, job); err != nil {
				return err
			}
			uncompressed = withoutPlatform(req.Platforms, types.PlatformWindows)
			if len(uncompressed) > 0 {
				rep.OnMessage("Compression is only available for Windows", "other platforms are exported uncompressed")
			}
		} else {
			rep.OnMessage("Compression is only available for Windows", "exporting uncompressed")
		}
	}

	if len(uncompressed) > 0 {
		for _, platform := range types.AllPlatforms {
			if containsPlatform(uncompressed, platform) {
				p.copyRuntime(job, platform, false)
			}
		}
		p.copyStagingToOutput(job)
	}

	p.embedIcon(ctx, job)
	return nil
}

func (p *Packager) copyRuntime(job Job, platform types.Platform, compressed bool) {
	for _, f := range p.layout.runtimeFiles(platform, job.Request, compressed) {
		if err := utils.CopyFile(f.src, filepath.Join(job.StagingDir, f.dst)); err != nil {
			job.Reporter.AddError(fmt.Sprintf("Unable to create %s in the staging directory: %v", f.label, err))
		}
	}
}

func (p *Packager) copyStagingToOutput(job Job) {
	files, err := utils.WalkFiles(job.StagingDir)
	if err != nil {
		job.Reporter.AddError(fmt.Sprintf("Unable to list the staging directory: %v", err))
		return
	}

	for _, rel := range files {
		src := filepath.Join(job.StagingDir, filepath.FromSlash(rel))
		dst := filepath.Join(job.Request.OutputDir, filepath.FromSlash(rel))
		if err := utils.CopyFile(src, dst); err != nil {
			job.Reporter.AddError(fmt.Sprintf("Unable to copy %s from the staging directory to the output directory: %v", rel, err))
		}
	}
	p.logger.Debug(fmt.Sprintf("Copied %d files to %s", len(files), job.Request.OutputDir))
}

// buildSelfExtracting packs the staging directory with the Windows player and
// writes stub, configuration and archive, in that order, as the Windows executable
func (p *Packager) buildSelfExtracting(ctx context.Context, job Job) error {
	job.Reporter.OnMessage("Exporting the game", "compression")
	p.copyRuntime(job, types.PlatformWindows, true)

	archivePath := filepath.Join(job.StagingDir, CompressedArchive)
	defer func() {
		for _, name := range []string{CompressedArchive, InternalStart, WindowsLibrary} {
			if err := utils.RemoveFile(filepath.Join(job.StagingDir, name)); err != nil {
				p.logger.Warn("Unable to clean the staging directory", logger.WithField("file", name), logger.WithField("error", err))
			}
		}
	}()

	staged, err := utils.WalkFiles(job.StagingDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSelfExtracting, err)
	}
	files := windowsFiles(staged)
	if err := p.archiver.Archive(ctx, archivePath, job.StagingDir, files); err != nil {
		return fmt.Errorf("%w: %v", ErrSelfExtracting, err)
	}

	exe := filepath.Join(job.Request.OutputDir, job.Request.ExecutableName(types.PlatformWindows))
	if err := utils.Concatenate(exe, p.layout.SFXStub, p.layout.SFXConfig, archivePath); err != nil {
		os.Remove(exe)
		return fmt.Errorf("%w: %v", ErrSelfExtracting, err)
	}

	p.logger.WithTarget(string(types.PlatformWindows)).Info("Self-extracting executable written", logger.WithField("path", exe))
	return nil
}

func (p *Packager) embedIcon(ctx context.Context, job Job) {
	icon := job.Project.WinIconFile
	if icon == "" || p.icons == nil || !job.Request.HasPlatform(types.PlatformWindows) {
		return
	}

	exe := filepath.Join(job.Request.OutputDir, job.Request.ExecutableName(types.PlatformWindows))
	if err := p.icons.Embed(ctx, exe, icon); err != nil {
		job.Reporter.AddError(fmt.Sprintf("Unable to change the icon of %s: %v", filepath.Base(exe), err))
	}
}

// windowsFiles drops the extension binaries built for the other platforms
func windowsFiles(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		foreign := false
		for _, platform := range types.AllPlatforms {
			if platform != types.PlatformWindows && strings.EqualFold(path.Ext(f), extensionSuffix(platform)) {
				foreign = true
				break
			}
		}
		if !foreign {
			out = append(out, f)
		}
	}
	return out
}

func withoutPlatform(platforms []types.Platform, excluded types.Platform) []types.Platform {
	var out []types.Platform
	for _, p := range platforms {
		if p != excluded {
			out = append(out, p)
		}
	}
	return out
}

func containsPlatform(platforms []types.Platform, p types.Platform) bool {
	for _, candidate := range platforms {
		if candidate == p {
			return true
		}
	}
	return false
}
