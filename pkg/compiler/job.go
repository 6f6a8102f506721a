// Package compiler turns scene event logic into loadable code units.
//
// Jobs are processed one at a time by a Queue. The queue reports no result: a job
// succeeded when its output file exists afterwards, which CheckOutput turns into a
// typed Result.
package compiler

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// PreWork runs before a job is compiled, typically writing the job's input file
type PreWork interface {
	Execute(ctx context.Context) error
}

// PreWorkFunc adapts a function to PreWork
type PreWorkFunc func(ctx context.Context) error

// Execute calls f(ctx)
func (f PreWorkFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Job compiles one scene's generated source into a code unit
type Job struct {
	ID         string
	InputFile  string
	OutputFile string
	Scene      string
	Optimize   bool
	PreWork    PreWork
}

// NewJob creates a job with a fresh identifier
func NewJob(inputFile, outputFile, scene string, optimize bool, preWork PreWork) *Job {
	return &Job{
		ID:         uuid.New().String(),
		InputFile:  inputFile,
		OutputFile: outputFile,
		Scene:      scene,
		Optimize:   optimize,
		PreWork:    preWork,
	}
}

func (j *Job) String() string {
	return fmt.Sprintf("job %s (scene %q)", j.ID, j.Scene)
}

// MangleSceneName turns a scene name into a string usable in file names.
// ASCII letters and digits are kept, '_' becomes "__" and every other rune becomes
// its decimal code point wrapped in '_', so distinct names never collide.
func MangleSceneName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_':
			b.WriteString("__")
		default:
			b.WriteByte('_')
			b.WriteString(strconv.Itoa(int(r)))
			b.WriteByte('_')
		}
	}
	return b.String()
}

// SourceFile returns the generated source path of a scene inside the compiler working directory
func SourceFile(workingDir, scene string) string {
	return filepath.Join(workingDir, MangleSceneName(scene)+"events.cpp")
}

// CodeUnitFile returns the code unit path of a scene inside the staging directory
func CodeUnitFile(stagingDir, scene string) string {
	return filepath.Join(stagingDir, "GDpriv"+MangleSceneName(scene)+".ir")
}
