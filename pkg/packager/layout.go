// Package packager turns a staged export into the final per-platform distributable
package packager

import (
	"path/filepath"

	"github.com/gdexport/gdexport/pkg/types"
)

// Runtime file names, relative to the runtime directories of the installation
const (
	WindowsPlayer   = "PlayWin.exe"
	WindowsLibrary  = "gdl.dll"
	LinuxExecutable = "ExeLinux"
	LinuxLauncher   = "PlayLinux"
	LinuxLibrary    = "libgdl.so"
	MacExecutable   = "MacExe"
	MacLibrary      = "libgdl.dylib"

	// InternalStart is the name of the Windows player inside a self-extracting package
	InternalStart = "internalstart.exe"
	// CompressedArchive is the archive appended to the self-extracting stub
	CompressedArchive = "archive.7z"
)

// Layout locates the prebuilt runtime files of an installation. Every path is
// absolute or relative to the working directory.
type Layout struct {
	Root                  string
	RuntimeDir            string
	MacRuntimeDir         string
	ExtensionsDir         string
	ExternalSourcesBundle string
	SFXStub               string
	SFXConfig             string
	Archiver              string
	IconEmbedder          string
}

// ResolveLayout applies the default installation layout to l and resolves relative
// paths against its root. A nil l yields the default layout rooted at the working
// directory.
func ResolveLayout(l *types.RuntimeLayout) Layout {
	var cfg types.RuntimeLayout
	if l != nil {
		cfg = *l
	}

	root := cfg.Root
	if root == "" {
		root = "."
	}
	resolve := func(value, def string) string {
		if value == "" {
			value = def
		}
		if value == "" || filepath.IsAbs(value) {
			return value
		}
		return filepath.Join(root, value)
	}

	return Layout{
		Root:                  root,
		RuntimeDir:            resolve(cfg.RuntimeDir, "Runtime"),
		MacRuntimeDir:         resolve(cfg.MacRuntimeDir, "MacRuntime"),
		ExtensionsDir:         resolve(cfg.ExtensionsDir, "Extensions"),
		ExternalSourcesBundle: resolve(cfg.ExternalSourcesBundle, "dynext.dxgd"),
		SFXStub:               resolve(cfg.SFXStub, "7zS.sfx"),
		SFXConfig:             resolve(cfg.SFXConfig, "config.txt"),
		Archiver:              resolveTool(root, cfg.Archiver, "7za"),
		IconEmbedder:          resolveTool(root, cfg.IconEmbedder, ""),
	}
}

// resolveTool keeps bare command names as is so they are looked up in PATH
func resolveTool(root, value, def string) string {
	if value == "" {
		value = def
	}
	if value == "" || filepath.IsAbs(value) || filepath.Base(value) == value {
		return value
	}
	return filepath.Join(root, value)
}

// runtimeFile is one runtime file copied into the staging directory
type runtimeFile struct {
	src, dst string
	label    string
}

// runtimeFiles lists the runtime files of platform. compressed selects the Windows
// player name used inside a self-extracting package.
func (l Layout) runtimeFiles(platform types.Platform, req types.ExportRequest, compressed bool) []runtimeFile {
	switch platform {
	case types.PlatformWindows:
		exe := req.ExecutableName(types.PlatformWindows)
		if compressed {
			exe = InternalStart
		}
		return []runtimeFile{
			{filepath.Join(l.RuntimeDir, WindowsPlayer), exe, "the Windows executable"},
			{filepath.Join(l.RuntimeDir, WindowsLibrary), WindowsLibrary, WindowsLibrary},
		}
	case types.PlatformLinux:
		return []runtimeFile{
			{filepath.Join(l.RuntimeDir, LinuxExecutable), LinuxExecutable, "the Linux executable"},
			{filepath.Join(l.RuntimeDir, LinuxLauncher), req.ExecutableName(types.PlatformLinux), "the Linux launcher script"},
			{filepath.Join(l.RuntimeDir, LinuxLibrary), LinuxLibrary, LinuxLibrary},
		}
	case types.PlatformMacOS:
		return []runtimeFile{
			{filepath.Join(l.MacRuntimeDir, MacExecutable), req.ExecutableName(types.PlatformMacOS), "the Mac OS executable"},
			{filepath.Join(l.MacRuntimeDir, MacLibrary), MacLibrary, MacLibrary},
		}
	}
	return nil
}

// extensionSuffix returns the file extension of platform specific extension binaries
func extensionSuffix(platform types.Platform) string {
	switch platform {
	case types.PlatformWindows:
		return ".xgdw"
	case types.PlatformLinux:
		return ".xgdl"
	case types.PlatformMacOS:
		return ".xgdm"
	}
	return ""
}
