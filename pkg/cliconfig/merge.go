package cliconfig

// MergeConfig merges source config into target, updating sources tracking.
// Only non-zero values from source are applied. Settings are merged key by
// key.
func MergeConfig(target, source *CLIConfig, sourceType string) {
	if source == nil {
		return
	}
	if target.Sources == nil {
		target.Sources = make(map[string]string)
	}

	if source.Path != "" {
		target.Path = source.Path
		target.Sources["path"] = sourceType
	}
	if source.VirtualPath != "" {
		target.VirtualPath = source.VirtualPath
		target.Sources["virtualPath"] = sourceType
	}
	if source.Port != 0 {
		target.Port = source.Port
		target.Sources["port"] = sourceType
	}
	if source.ConfigFileName != "" {
		target.ConfigFileName = source.ConfigFileName
		target.Sources["configFileName"] = sourceType
	}
	if source.MaxLogEntries != 0 {
		target.MaxLogEntries = source.MaxLogEntries
		target.Sources["maxLogEntries"] = sourceType
	}
	if source.MetricsAddr != "" {
		target.MetricsAddr = source.MetricsAddr
		target.Sources["metricsAddr"] = sourceType
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
		target.Sources["logLevel"] = sourceType
	}
	if source.LogFormat != "" {
		target.LogFormat = source.LogFormat
		target.Sources["logFormat"] = sourceType
	}
	if len(source.Settings) > 0 {
		if target.Settings == nil {
			target.Settings = make(map[string]string, len(source.Settings))
		}
		for k, v := range source.Settings {
			target.Settings[k] = v
			target.Sources["settings."+k] = sourceType
		}
	}
}
