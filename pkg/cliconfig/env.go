package cliconfig

import (
	"os"
	"strconv"
)

// Environment variable names
const (
	EnvPath          = "NETTY_PATH"
	EnvVirtualPath   = "NETTY_VPATH"
	EnvPort          = "NETTY_PORT"
	EnvConfig        = "NETTY_CONFIG"
	EnvMaxLogEntries = "NETTY_MAX_LOG_ENTRIES"
	EnvMetricsAddr   = "NETTY_METRICS_ADDR"
	EnvLogLevel      = "NETTY_LOG_LEVEL"
	EnvLogFormat     = "NETTY_LOG_FORMAT"
)

// LoadEnvConfig loads configuration from environment variables.
// It only sets values that are present in the environment; numbers that do
// not parse are ignored.
func LoadEnvConfig(cfg *CLIConfig) {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}

	if v := os.Getenv(EnvPath); v != "" {
		cfg.Path = v
		cfg.Sources["path"] = SourceEnv
	}
	if v := os.Getenv(EnvVirtualPath); v != "" {
		cfg.VirtualPath = v
		cfg.Sources["virtualPath"] = SourceEnv
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
			cfg.Sources["port"] = SourceEnv
		}
	}
	if v := os.Getenv(EnvMaxLogEntries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxLogEntries = n
			cfg.Sources["maxLogEntries"] = SourceEnv
		}
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		cfg.MetricsAddr = v
		cfg.Sources["metricsAddr"] = SourceEnv
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
		cfg.Sources["logLevel"] = SourceEnv
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
		cfg.Sources["logFormat"] = SourceEnv
	}
}

// ConfigPathFromEnv returns the config file named by NETTY_CONFIG, if any.
func ConfigPathFromEnv() string {
	return os.Getenv(EnvConfig)
}
