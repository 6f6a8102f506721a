package packager

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Archiver compresses files of a directory into a single archive
type Archiver interface {
	Archive(ctx context.Context, archivePath, sourceDir string, files []string) error
}

// SevenZip runs the 7-Zip command line archiver
type SevenZip struct {
	Path string
}

// Archive runs "7za a <archive> <files...>" inside sourceDir
func (z SevenZip) Archive(ctx context.Context, archivePath, sourceDir string, files []string) error {
	path := z.Path
	if path == "" {
		path = "7za"
	}
	args := append([]string{"a", "-y", archivePath}, files...)
	return run(ctx, sourceDir, path, args...)
}

// IconEmbedder replaces the icon of a Windows executable
type IconEmbedder interface {
	Embed(ctx context.Context, executable, icon string) error
}

// CommandIconEmbedder runs "<path> <executable> <icon>"
type CommandIconEmbedder struct {
	Path string
}

// Embed runs the icon embedding command
func (e CommandIconEmbedder) Embed(ctx context.Context, executable, icon string) error {
	if e.Path == "" {
		return fmt.Errorf("no icon embedder configured")
	}
	return run(ctx, "", e.Path, executable, icon)
}

func run(ctx context.Context, dir, command string, args ...string) error {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", command, err, strings.TrimSpace(output.String()))
	}
	return nil
}
