package types

// ExportConfig is the on-disk configuration of the exporter
type ExportConfig struct {
	Version    string          `json:"version" yaml:"version"`
	Runtime    *RuntimeLayout  `json:"runtime,omitempty" yaml:"runtime,omitempty"`
	Compiler   *CompilerConfig `json:"compiler,omitempty" yaml:"compiler,omitempty"`
	Extensions []Extension     `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	Export     *ExportDefaults `json:"export,omitempty" yaml:"export,omitempty"`
	Notify     *NotifyConfig   `json:"notifications,omitempty" yaml:"notifications,omitempty"`
	Logging    *LoggingConfig  `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// RuntimeLayout locates the prebuilt runtime files shipped with the exporter.
// Relative paths are resolved against Root.
type RuntimeLayout struct {
	Root                  string `json:"root,omitempty" yaml:"root,omitempty"`
	RuntimeDir            string `json:"runtimeDir,omitempty" yaml:"runtimeDir,omitempty"`
	MacRuntimeDir         string `json:"macRuntimeDir,omitempty" yaml:"macRuntimeDir,omitempty"`
	ExtensionsDir         string `json:"extensionsDir,omitempty" yaml:"extensionsDir,omitempty"`
	ExternalSourcesBundle string `json:"externalSourcesBundle,omitempty" yaml:"externalSourcesBundle,omitempty"`
	SFXStub               string `json:"sfxStub,omitempty" yaml:"sfxStub,omitempty"`
	SFXConfig             string `json:"sfxConfig,omitempty" yaml:"sfxConfig,omitempty"`
	Archiver              string `json:"archiver,omitempty" yaml:"archiver,omitempty"`
	IconEmbedder          string `json:"iconEmbedder,omitempty" yaml:"iconEmbedder,omitempty"`
}

// CompilerConfig configures the external code generator and compiler commands.
// Arguments may contain the placeholders {input}, {output}, {project}, {scene}.
type CompilerConfig struct {
	WorkingDirectory string            `json:"workingDirectory,omitempty" yaml:"workingDirectory,omitempty"`
	GeneratorCommand string            `json:"generatorCommand,omitempty" yaml:"generatorCommand,omitempty"`
	GeneratorArgs    []string          `json:"generatorArgs,omitempty" yaml:"generatorArgs,omitempty"`
	Command          string            `json:"command" yaml:"command"`
	Args             []string          `json:"args,omitempty" yaml:"args,omitempty"`
	OptimizeArgs     []string          `json:"optimizeArgs,omitempty" yaml:"optimizeArgs,omitempty"`
	Environment      map[string]string `json:"environment,omitempty" yaml:"environment,omitempty"`
	PollInterval     int               `json:"pollInterval,omitempty" yaml:"pollInterval,omitempty"`
	Timeout          int               `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Extension describes a platform extension the runtime may need
type Extension struct {
	Name               string              `json:"name" yaml:"name"`
	Namespace          string              `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	SupplementaryFiles []SupplementaryFile `json:"supplementaryFiles,omitempty" yaml:"supplementaryFiles,omitempty"`
}

// SupplementaryFile is an extra runtime file an extension needs on one platform.
// Platform is one of "Windows", "Linux" or "Mac".
type SupplementaryFile struct {
	Platform string `json:"platform" yaml:"platform"`
	Path     string `json:"path" yaml:"path"`
}

// ExportDefaults provides default values for export requests
type ExportDefaults struct {
	Platforms       []Platform          `json:"platforms,omitempty" yaml:"platforms,omitempty"`
	OutputDir       string              `json:"outputDir,omitempty" yaml:"outputDir,omitempty"`
	StagingDir      string              `json:"stagingDir,omitempty" yaml:"stagingDir,omitempty"`
	Optimize        bool                `json:"optimize,omitempty" yaml:"optimize,omitempty"`
	Compress        bool                `json:"compress,omitempty" yaml:"compress,omitempty"`
	ExecutableNames map[Platform]string `json:"executableNames,omitempty" yaml:"executableNames,omitempty"`
}

// NotifyConfig configures desktop notifications
type NotifyConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// LoggingConfig configures log output
type LoggingConfig struct {
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	File  string `json:"file,omitempty" yaml:"file,omitempty"`
}
