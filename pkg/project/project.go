// Package project loads game project descriptions and copies them for export
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gdexport/gdexport/pkg/resources"
	"github.com/gdexport/gdexport/pkg/types"
)

// Load reads a project description in JSON or YAML. Relative resource paths are
// resolved against the directory of the file.
func Load(path string) (*types.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}

	project, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	ResolvePaths(project, abs)
	return project, nil
}

// Parse decodes a project description. YAML is used for the .yaml and .yml
// extensions; otherwise JSON is tried first, then YAML.
func Parse(data []byte, ext string) (*types.Project, error) {
	var project types.Project

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &project); err != nil {
			return nil, fmt.Errorf("failed to parse project: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &project); err != nil {
			if yerr := yaml.Unmarshal(data, &project); yerr != nil {
				return nil, fmt.Errorf("failed to parse project as JSON or YAML: %w", err)
			}
		}
	}

	if err := Validate(&project); err != nil {
		return nil, err
	}
	return &project, nil
}

// Validate checks the structural rules the exporter relies on
func Validate(p *types.Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("project has no name")
	}

	scenes := make(map[string]bool, len(p.Scenes))
	for i, scene := range p.Scenes {
		if scene.Name == "" {
			return fmt.Errorf("scene %d has no name", i)
		}
		if scenes[scene.Name] {
			return fmt.Errorf("duplicate scene name: %s", scene.Name)
		}
		scenes[scene.Name] = true
	}
	return nil
}

// ResolvePaths makes every relative resource reference of p, and its icon, relative
// to baseDir
func ResolvePaths(p *types.Project, baseDir string) {
	resolve := func(field *string) {
		if !filepath.IsAbs(*field) {
			*field = filepath.Join(baseDir, filepath.FromSlash(*field))
		}
	}
	resources.VisitPaths(p, resolve)
	if p.WinIconFile != "" {
		resolve(&p.WinIconFile)
	}
}
