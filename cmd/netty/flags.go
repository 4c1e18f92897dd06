package main

import (
	"fmt"
	"strings"

	"github.com/getmockd/netty/pkg/cliconfig"
	"github.com/spf13/cobra"
)

// runnerFlags are the flags shared by serve and config.
type runnerFlags struct {
	path          string
	virtualPath   string
	port          int
	configFile    string
	webConfig     string
	settings      []string
	maxLogEntries int
	metricsAddr   string
	logLevel      string
	logFormat     string
}

func (f *runnerFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.path, "path", cliconfig.DefaultPath, "Physical directory of the application")
	fl.StringVar(&f.virtualPath, "vpath", cliconfig.DefaultVirtualPath, "Virtual path the application is mounted at")
	fl.IntVarP(&f.port, "port", "p", cliconfig.DefaultPort, "Port to listen on (7000-10000, 0 to allocate)")
	fl.StringVarP(&f.configFile, "config", "c", "", "Runner config file (default: .nettyrc.yaml)")
	fl.StringVar(&f.webConfig, "web-config", "", "Configuration file name inside the physical path (default: web.config)")
	fl.StringArrayVar(&f.settings, "set", nil, "Application setting as key=value (repeatable)")
	fl.IntVar(&f.maxLogEntries, "max-log-entries", cliconfig.DefaultMaxLogEntries, "Requests kept in the request log")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "Expose request metrics at http://<addr>/metrics")
	fl.StringVar(&f.logLevel, "log-level", cliconfig.DefaultLogLevel, "Log level (debug, info, warn, error)")
	fl.StringVar(&f.logFormat, "log-format", cliconfig.DefaultLogFormat, "Log format (text, json)")
}

// resolve loads every configuration source and applies the flags the user
// set explicitly on top.
func (f *runnerFlags) resolve(cmd *cobra.Command) (*cliconfig.CLIConfig, error) {
	cfg, err := cliconfig.LoadAll(".", f.configFile)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	flagCfg := &cliconfig.CLIConfig{}
	if changed("path") {
		flagCfg.Path = f.path
	}
	if changed("vpath") {
		flagCfg.VirtualPath = f.virtualPath
	}
	if changed("port") {
		flagCfg.Port = f.port
	}
	if changed("web-config") {
		flagCfg.ConfigFileName = f.webConfig
	}
	if changed("max-log-entries") {
		flagCfg.MaxLogEntries = f.maxLogEntries
	}
	if changed("metrics-addr") {
		flagCfg.MetricsAddr = f.metricsAddr
	}
	if changed("log-level") {
		flagCfg.LogLevel = f.logLevel
	}
	if changed("log-format") {
		flagCfg.LogFormat = f.logFormat
	}
	settings, err := parseSettings(f.settings)
	if err != nil {
		return nil, err
	}
	flagCfg.Settings = settings

	cliconfig.MergeConfig(cfg, flagCfg, cliconfig.SourceFlag)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func parseSettings(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --set %q: expected key=value", p)
		}
		out[k] = v
	}
	return out, nil
}
