package export

import (
	"os"
	"path/filepath"

	"github.com/gdexport/gdexport/pkg/diagnostic"
	"github.com/gdexport/gdexport/pkg/utils"
)

// StagingDirName is appended to the chosen base directory. The base directory itself
// is never cleared.
const StagingDirName = "GDDeploymentTemporaries"

// stagingCandidates lists the fallback base directories in order of preference
func stagingCandidates() []string {
	candidates := []string{os.TempDir()}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, wd)
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, home)
	}
	return candidates
}

// ResolveStaging returns the staging directory below forced when one is given, creating
// forced if needed. A forced directory that cannot be written is reported before the
// fallbacks are tried. When no candidate is writable a warning is reported and the home
// directory is used.
func ResolveStaging(forced string, rep diagnostic.Reporter) string {
	if forced != "" {
		if err := utils.EnsureDirectory(forced); err == nil && utils.IsDirWritable(forced) {
			return filepath.Join(forced, StagingDirName)
		}
		rep.OnMessage("No writable directory found for temporary files", forced+" is not writable")
	}

	for _, dir := range stagingCandidates() {
		if utils.IsDirWritable(dir) {
			return filepath.Join(dir, StagingDirName)
		}
	}

	home, _ := os.UserHomeDir()
	rep.OnMessage("No writable directory found for temporary files", "using "+home)
	return filepath.Join(home, StagingDirName)
}
