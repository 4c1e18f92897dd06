package cliconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LocalConfigFileNames are the names to search for local config (in order).
var LocalConfigFileNames = []string{".nettyrc.yaml", ".nettyrc.yml"}

// FindLocalConfig searches dir for a local config file. It returns "" when
// none exists.
func FindLocalConfig(dir string) (string, error) {
	for _, name := range LocalConfigFileNames {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", nil
}

// LoadConfigFile loads a CLIConfig from a YAML file. Unknown keys are
// rejected.
func LoadConfigFile(path string) (*CLIConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg CLIConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, newConfigError(path, err)
	}

	cfg.Sources = make(map[string]string)
	return &cfg, nil
}

// ConfigError represents a configuration file error with location info.
type ConfigError struct {
	Path    string
	Line    int
	Message string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return e.Path + " (line " + strconv.Itoa(e.Line) + "): " + e.Message
	}
	return e.Path + ": " + e.Message
}

// newConfigError extracts the line number yaml.v3 embeds in its messages,
// e.g. "yaml: line 3: mapping values are not allowed in this context".
func newConfigError(path string, err error) *ConfigError {
	var typeErr *yaml.TypeError
	msg := err.Error()
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		msg = typeErr.Errors[0]
	}
	msg = strings.TrimPrefix(msg, "yaml: ")

	ce := &ConfigError{Path: path, Message: msg}
	if rest, ok := strings.CutPrefix(msg, "line "); ok {
		if num, tail, ok := strings.Cut(rest, ":"); ok {
			if line, err := strconv.Atoi(num); err == nil {
				ce.Line = line
				ce.Message = strings.TrimSpace(tail)
			}
		}
	}
	return ce
}

// LoadAll loads configuration from all sources except flags and merges them.
// explicitPath, when set, replaces the local config lookup in dir; a missing
// explicit file is an error.
// Precedence: env > config file > defaults
func LoadAll(dir, explicitPath string) (*CLIConfig, error) {
	cfg := NewDefault()

	path := explicitPath
	if path == "" {
		path = ConfigPathFromEnv()
	}
	if path == "" {
		found, err := FindLocalConfig(dir)
		if err != nil {
			return nil, err
		}
		path = found
	}

	if path != "" {
		fileCfg, err := LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		MergeConfig(cfg, fileCfg, SourceFile)
		cfg.Sources["configFile"] = path
	}

	LoadEnvConfig(cfg)
	return cfg, nil
}

// FormatSources renders the provenance of every tracked value, one per line,
// sorted by key.
func (c *CLIConfig) FormatSources() string {
	keys := make([]string, 0, len(c.Sources))
	for k := range c.Sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, c.Sources[k])
	}
	return b.String()
}
