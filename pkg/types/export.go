// Package types provides the core types shared by the exporter packages
package types

import (
	"fmt"
	"strings"
)

// Platform represents a supported export target
type Platform string

const (
	PlatformWindows Platform = "windows"
	PlatformLinux   Platform = "linux"
	PlatformMacOS   Platform = "macos"
)

// AllPlatforms lists every platform in packaging order
var AllPlatforms = []Platform{PlatformWindows, PlatformLinux, PlatformMacOS}

// ParsePlatform parses a platform name, accepting a few common aliases
func ParsePlatform(name string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "windows", "win", "win32", "win64":
		return PlatformWindows, nil
	case "linux":
		return PlatformLinux, nil
	case "macos", "mac", "darwin", "osx":
		return PlatformMacOS, nil
	}
	return "", fmt.Errorf("unknown platform: %q", name)
}

// Tag returns the platform tag used by extension supplementary file declarations
func (p Platform) Tag() string {
	switch p {
	case PlatformWindows:
		return "Windows"
	case PlatformLinux:
		return "Linux"
	case PlatformMacOS:
		return "Mac"
	}
	return string(p)
}

// DisplayName returns a human readable platform name
func (p Platform) DisplayName() string {
	switch p {
	case PlatformWindows:
		return "Windows"
	case PlatformLinux:
		return "Linux"
	case PlatformMacOS:
		return "Mac OS"
	}
	return string(p)
}

// ExportRequest is the immutable configuration of one export run.
// The pipeline receives it by value and never modifies it.
type ExportRequest struct {
	Platforms          []Platform          `json:"platforms" yaml:"platforms"`
	OutputDir          string              `json:"outputDir" yaml:"outputDir"`
	StagingDir         string              `json:"stagingDir,omitempty" yaml:"stagingDir,omitempty"`
	Optimize           bool                `json:"optimize,omitempty" yaml:"optimize,omitempty"`
	CompressIfPossible bool                `json:"compress,omitempty" yaml:"compress,omitempty"`
	ExecutableNames    map[Platform]string `json:"executableNames,omitempty" yaml:"executableNames,omitempty"`
}

// HasPlatform reports whether p is one of the requested targets
func (r ExportRequest) HasPlatform(p Platform) bool {
	for _, candidate := range r.Platforms {
		if candidate == p {
			return true
		}
	}
	return false
}

// ExecutableName returns the file name of the main executable for a platform.
// Custom Windows names get the .exe extension appended.
func (r ExportRequest) ExecutableName(p Platform) string {
	custom := strings.TrimSpace(r.ExecutableNames[p])
	switch p {
	case PlatformWindows:
		if custom == "" {
			return "GameWin.exe"
		}
		return custom + ".exe"
	case PlatformLinux:
		if custom == "" {
			return "GameLinux"
		}
		return custom
	case PlatformMacOS:
		if custom == "" {
			return "GameMac"
		}
		return custom
	}
	return custom
}

// ExportStatus represents the terminal state of an export run
type ExportStatus string

const (
	ExportStatusPending   ExportStatus = "pending"
	ExportStatusSucceeded ExportStatus = "succeeded"
	ExportStatusFailed    ExportStatus = "failed"
)
