// Package config handles configuration loading and management
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gdexport/gdexport/pkg/types"
)

// CurrentVersion is the only configuration version understood
const CurrentVersion = "1.0"

// FileNames are the configuration files looked up by FindConfig, in order
var FileNames = []string{
	"gdexport.config.json",
	"gdexport.config.yaml",
	"gdexport.config.yml",
}

// Manager handles configuration operations
type Manager struct{}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{}
}

// FindConfig returns the first configuration file present in dir
func (m *Manager) FindConfig(dir string) (string, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("no configuration file found in %s", dir)
}

// LoadConfig loads configuration from a file. Relative runtime and compiler paths
// are resolved against the directory of the file.
func (m *Manager) LoadConfig(path string) (*types.ExportConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := m.ParseConfig(data)
	if err != nil {
		return nil, err
	}

	absDir, err := filepath.Abs(filepath.Dir(path))
	if err == nil {
		resolvePaths(cfg, absDir)
	}
	return cfg, nil
}

// ParseConfig parses, completes and validates configuration data
func (m *Manager) ParseConfig(data []byte) (*types.ExportConfig, error) {
	var cfg types.ExportConfig

	// Try JSON first
	if err := json.Unmarshal(data, &cfg); err != nil {
		cfg = types.ExportConfig{}
		if yamlErr := yaml.Unmarshal(data, &cfg); yamlErr != nil {
			return nil, fmt.Errorf("failed to parse config as JSON or YAML: %w", yamlErr)
		}
	}

	m.ApplyDefaults(&cfg)
	if err := m.ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes cfg to path, as YAML when the extension asks for it and JSON otherwise
func (m *Manager) SaveConfig(path string, cfg *types.ExportConfig) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ValidateConfig validates a configuration
func (m *Manager) ValidateConfig(config *types.ExportConfig) error {
	if config.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %s", config.Version)
	}

	if config.Compiler == nil || config.Compiler.Command == "" {
		return fmt.Errorf("compiler: missing command")
	}
	if config.Compiler.PollInterval < 0 {
		return fmt.Errorf("compiler: negative poll interval")
	}
	if config.Compiler.Timeout < 0 {
		return fmt.Errorf("compiler: negative timeout")
	}

	names := make(map[string]bool)
	for i, ext := range config.Extensions {
		if ext.Name == "" {
			return fmt.Errorf("extension %d: missing name", i)
		}
		if names[ext.Name] {
			return fmt.Errorf("duplicate extension name: %s", ext.Name)
		}
		names[ext.Name] = true

		for j, file := range ext.SupplementaryFiles {
			if err := validateSupplementaryFile(file); err != nil {
				return fmt.Errorf("extension '%s': supplementary file %d: %w", ext.Name, j, err)
			}
		}
	}

	if config.Export != nil {
		for _, p := range config.Export.Platforms {
			if _, err := types.ParsePlatform(string(p)); err != nil {
				return fmt.Errorf("export: %w", err)
			}
		}
	}

	if config.Logging != nil && config.Logging.Level != "" {
		switch config.Logging.Level {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("logging: invalid level: %s", config.Logging.Level)
		}
	}

	return nil
}

// ApplyDefaults fills the sections left out of cfg
func (m *Manager) ApplyDefaults(cfg *types.ExportConfig) {
	defaults := m.GetDefaultConfig()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.Runtime == nil {
		cfg.Runtime = defaults.Runtime
	}
	if cfg.Compiler == nil {
		cfg.Compiler = defaults.Compiler
	} else if cfg.Compiler.PollInterval == 0 {
		cfg.Compiler.PollInterval = defaults.Compiler.PollInterval
	}
	if cfg.Export == nil {
		cfg.Export = defaults.Export
	}
	if cfg.Notify == nil {
		cfg.Notify = defaults.Notify
	}
	if cfg.Logging == nil {
		cfg.Logging = defaults.Logging
	}

	// Platforms are stored normalized
	if cfg.Export != nil {
		for i, p := range cfg.Export.Platforms {
			if parsed, err := types.ParsePlatform(string(p)); err == nil {
				cfg.Export.Platforms[i] = parsed
			}
		}
	}
}

// GetDefaultConfig returns a default configuration
func (m *Manager) GetDefaultConfig() *types.ExportConfig {
	return &types.ExportConfig{
		Version: CurrentVersion,
		Runtime: &types.RuntimeLayout{},
		Compiler: &types.CompilerConfig{
			WorkingDirectory: filepath.Join(os.TempDir(), "gdexport-compiler"),
			Command:          "clang++",
			Args:             []string{"-c", "-emit-llvm", "{input}", "-o", "{output}"},
			OptimizeArgs:     []string{"-O2"},
			PollInterval:     100,
		},
		Extensions: []types.Extension{
			{Name: "BuiltinCommonInstructions"},
			{Name: "CommonDialogs"},
			{Name: "Sprite"},
		},
		Export: &types.ExportDefaults{
			Platforms: []types.Platform{types.PlatformWindows, types.PlatformLinux},
			OutputDir: "export",
		},
		Notify: &types.NotifyConfig{
			Enabled: true,
		},
		Logging: &types.LoggingConfig{
			Level: "info",
		},
	}
}

// Request builds an export request from the configured defaults
func Request(cfg *types.ExportConfig) types.ExportRequest {
	if cfg == nil || cfg.Export == nil {
		return types.ExportRequest{}
	}
	d := cfg.Export
	req := types.ExportRequest{
		Platforms:          append([]types.Platform(nil), d.Platforms...),
		OutputDir:          d.OutputDir,
		StagingDir:         d.StagingDir,
		Optimize:           d.Optimize,
		CompressIfPossible: d.Compress,
	}
	if len(d.ExecutableNames) > 0 {
		req.ExecutableNames = make(map[types.Platform]string, len(d.ExecutableNames))
		for k, v := range d.ExecutableNames {
			req.ExecutableNames[k] = v
		}
	}
	return req
}

func validateSupplementaryFile(file types.SupplementaryFile) error {
	switch file.Platform {
	case "Windows", "Linux", "Mac":
	default:
		return fmt.Errorf("invalid platform: %q", file.Platform)
	}
	if file.Path == "" {
		return fmt.Errorf("missing path")
	}
	return nil
}

func resolvePaths(cfg *types.ExportConfig, baseDir string) {
	abs := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(baseDir, *p)
		}
	}

	if cfg.Runtime != nil {
		if cfg.Runtime.Root == "" {
			cfg.Runtime.Root = baseDir
		}
		abs(&cfg.Runtime.Root)
	}
	if cfg.Compiler != nil {
		abs(&cfg.Compiler.WorkingDirectory)
	}
	if cfg.Export != nil {
		abs(&cfg.Export.OutputDir)
		abs(&cfg.Export.StagingDir)
	}
	if cfg.Logging != nil {
		abs(&cfg.Logging.File)
	}
}
