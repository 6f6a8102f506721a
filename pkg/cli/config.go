package cli

// Config holds the global CLI settings shared by every command
type Config struct {
	ConfigFile  string
	ProjectRoot string
	Verbosity   string
	LogFile     string
	Version     string
}

// NewConfig creates a new CLI configuration with defaults
func NewConfig() *Config {
	return &Config{
		ProjectRoot: ".",
		Verbosity:   "info",
		Version:     "dev",
	}
}
