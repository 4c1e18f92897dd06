package cliconfig

import (
	"fmt"
	"strings"

	"github.com/getmockd/netty/pkg/ports"
)

// DefaultPath is the default physical path: the current directory.
const DefaultPath = "."

// DefaultVirtualPath is the default virtual path.
const DefaultVirtualPath = "/"

// DefaultPort allocates a free port.
const DefaultPort = 0

// DefaultMaxLogEntries is the default maximum request log entries.
const DefaultMaxLogEntries = 1000

// DefaultLogLevel is the default log level.
const DefaultLogLevel = "info"

// DefaultLogFormat is the default log format.
const DefaultLogFormat = "text"

// NewDefault creates a new CLIConfig with default values.
func NewDefault() *CLIConfig {
	cfg := &CLIConfig{
		Path:          DefaultPath,
		VirtualPath:   DefaultVirtualPath,
		Port:          DefaultPort,
		MaxLogEntries: DefaultMaxLogEntries,
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		Sources:       make(map[string]string),
	}

	for _, key := range []string{"path", "virtualPath", "port", "maxLogEntries", "logLevel", "logFormat"} {
		cfg.Sources[key] = SourceDefault
	}
	return cfg
}

// Validate checks the merged configuration.
func (c *CLIConfig) Validate() error {
	if c.Port != 0 && (c.Port < ports.MinPort || c.Port > ports.MaxPort) {
		return fmt.Errorf("port %d is out of range (%d-%d, or 0 to allocate)", c.Port, ports.MinPort, ports.MaxPort)
	}
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("path is required")
	}
	if strings.TrimSpace(c.VirtualPath) == "" {
		return fmt.Errorf("virtualPath is required")
	}
	if c.MaxLogEntries < 0 {
		return fmt.Errorf("maxLogEntries %d must not be negative", c.MaxLogEntries)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logLevel %q is not one of debug, info, warn, error", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logFormat %q is not one of text, json", c.LogFormat)
	}
	return nil
}
