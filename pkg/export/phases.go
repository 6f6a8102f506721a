package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gdexport/gdexport/pkg/archive"
	"github.com/gdexport/gdexport/pkg/compiler"
	"github.com/gdexport/gdexport/pkg/container"
	"github.com/gdexport/gdexport/pkg/logger"
	"github.com/gdexport/gdexport/pkg/packager"
	"github.com/gdexport/gdexport/pkg/utils"
)

// compileScenes compiles every scene in order. The first failure stops the phase
// and the remaining scenes are never submitted.
func (r *run) compileScenes() error {
	queue := r.opts.Queue
	count := len(r.game.Scenes)

	for i := range r.game.Scenes {
		scene := &r.game.Scenes[i]
		log := r.log.WithTarget(scene.Name)

		r.rep.OnMessage(fmt.Sprintf("Compiling scene %s", scene.Name), "")
		input := compiler.SourceFile(queue.WorkingDirectory(), scene.Name)
		job := compiler.NewJob(input, compiler.CodeUnitFile(r.staging, scene.Name), scene.Name, r.req.Optimize,
			&compiler.EventsPreWork{
				Generator:  r.opts.Generator,
				Project:    r.game,
				Scene:      scene,
				Resources:  r.resMap,
				OutputFile: input,
			})

		log.Debug("Submitting compilation", logger.WithField("job", job.ID))
		queue.Submit(job)

		if err := r.waitFor(job); err != nil {
			r.rep.AddError(fmt.Sprintf("Compilation of scene %s failed: %v\nDetails may be found in %s",
				scene.Name, err, filepath.Join(queue.WorkingDirectory(), compiler.ErrorLogFile)))
			return fmt.Errorf("scene %s: %w", scene.Name, err)
		}

		r.rep.OnMessage(fmt.Sprintf("Scene %s compiled", scene.Name), "")
		r.resMap.Expose(job.OutputFile)
		r.rep.OnPercentUpdate(float64(i+1) / float64(count) * 50)
	}
	r.rep.OnPercentUpdate(50)
	return nil
}

func (r *run) waitFor(job *compiler.Job) error {
	ctx := r.ctx
	if r.opts.CompileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.CompileTimeout)
		defer cancel()
	}

	if err := compiler.WaitIdle(ctx, r.opts.Queue, r.opts.WaitInterval, r.opts.Yield); err != nil {
		return err
	}
	return compiler.CheckOutput(job).Err()
}

func (r *run) copyResources() error {
	r.rep.OnMessage("Copying resources", "")
	relocations := r.resMap.GetAll()

	for i, rel := range relocations {
		dst := filepath.Join(r.staging, rel.NewFilename)
		if rel.OriginalPath != "" && !utils.SamePath(rel.OriginalPath, dst) {
			if err := utils.CopyFile(rel.OriginalPath, dst); err != nil {
				r.rep.AddError(fmt.Sprintf("Unable to copy %s into the temporary directory: %v", rel.OriginalPath, err))
			}
		}
		r.rep.OnPercentUpdate(50 + float64(i+1)/float64(len(relocations))*25)
	}
	r.rep.OnPercentUpdate(75)
	return nil
}

func (r *run) serializeContainer() error {
	r.rep.OnMessage("Compiling the game", "step 1 of 3")
	plain, err := container.WritePlainProject(r.staging, r.game)
	if err != nil {
		r.rep.AddError(fmt.Sprintf("Unable to save the game: %v", err))
		return err
	}
	r.rep.OnPercentUpdate(80)

	r.rep.OnMessage("Compiling the game", "step 2 of 3")
	if err := container.EncryptFile(plain, filepath.Join(r.staging, container.ProjectFile), r.opts.Keys); err != nil {
		r.rep.AddError(fmt.Sprintf("Unable to encrypt the game: %v", err))
		return err
	}
	r.rep.OnPercentUpdate(85)

	if err := container.WriteLoadingScreen(filepath.Join(r.staging, container.LoadingScreenFile), r.game.LoadingScreen); err != nil {
		r.rep.AddError(fmt.Sprintf("Unable to save the loading screen: %v", err))
		return err
	}
	return nil
}

// archiveStaging packs every staged file into the archive and removes the rest
func (r *run) archiveStaging() error {
	r.rep.OnMessage("Compiling the game", "step 3 of 3")

	files, err := utils.ListFiles(r.staging)
	if err != nil {
		r.rep.AddError(fmt.Sprintf("Unable to list the temporary directory: %v", err))
		return err
	}
	if err := archive.Create(files, r.staging, filepath.Join(r.staging, ArchiveFile)); err != nil {
		r.rep.AddError(fmt.Sprintf("Unable to create the game archive: %v", err))
		return err
	}

	entries, err := os.ReadDir(r.staging)
	if err != nil {
		r.rep.AddError(fmt.Sprintf("Unable to list the temporary directory: %v", err))
	}
	for _, entry := range entries {
		if entry.Name() == ArchiveFile {
			continue
		}
		path := filepath.Join(r.staging, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			r.rep.AddError(fmt.Sprintf("Unable to remove %s from the temporary directory: %v", path, err))
		}
	}

	r.log.Debug(fmt.Sprintf("Archived %d files", len(files)))
	r.rep.OnPercentUpdate(90)
	return nil
}

func (r *run) packagerJob() packager.Job {
	return packager.Job{
		Request:    r.req,
		Project:    r.game,
		StagingDir: r.staging,
		Reporter:   r.rep,
	}
}

func (r *run) copyExtensions() error {
	r.rep.OnMessage("Exporting the game", "")
	r.opts.Packager.CopyExtensions(r.packagerJob())
	return nil
}

// finalize is not interrupted by cancellation so the output is never left half written
func (r *run) finalize() error {
	if err := r.opts.Packager.Finalize(context.WithoutCancel(r.ctx), r.packagerJob()); err != nil {
		r.rep.AddError(err.Error())
		return err
	}
	return nil
}
