// Package cliconfig provides configuration types and loading for the netty
// console runner.
package cliconfig

// CLIConfig is the complete configuration of the console runner.
// Values come from several sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Config file given with --config, or .nettyrc.yaml in the current directory
// 4. Default values (lowest priority)
type CLIConfig struct {
	// Application settings
	Path           string `yaml:"path" json:"path"`
	VirtualPath    string `yaml:"virtualPath" json:"virtualPath"`
	Port           int    `yaml:"port" json:"port"`
	ConfigFileName string `yaml:"configFileName,omitempty" json:"configFileName,omitempty"`

	// Settings are application settings applied to the configuration file
	// before the server starts, keyed by setting name.
	Settings map[string]string `yaml:"settings,omitempty" json:"settings,omitempty"`

	// Request history size
	MaxLogEntries int `yaml:"maxLogEntries" json:"maxLogEntries"`

	// MetricsAddr, when set, exposes request metrics over HTTP at /metrics.
	MetricsAddr string `yaml:"metricsAddr,omitempty" json:"metricsAddr,omitempty"`

	// Logging settings
	LogLevel  string `yaml:"logLevel" json:"logLevel"`
	LogFormat string `yaml:"logFormat" json:"logFormat"`

	// Sources tracks where each value came from (for debugging)
	Sources map[string]string `yaml:"-" json:"-"`
}

// ConfigSource identifies where a config value originated.
const (
	SourceDefault = "default"
	SourceEnv     = "env"
	SourceFile    = "file"
	SourceFlag    = "flag"
)
