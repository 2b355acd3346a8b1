package config

const (
	defaultConfigPath               = "~/.config/autocombine/config.toml"
	defaultStateDir                 = "~/.local/share/autocombine"
	defaultLogDir                   = "~/.local/share/autocombine/logs"
	defaultLogFormat                = "json"
	defaultLogLevel                 = "info"
	defaultLogRetentionDays         = 30
	defaultSchedule                 = "@every 5m"
	defaultDebounceSeconds          = 10
	defaultCombinedFastqPermissions = "0664"

	// EnvRunParentDirs supplies run parent directories when the config file lists none.
	EnvRunParentDirs = "AUTOCOMBINE_RUN_PARENT_DIRS"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Scan: Scan{
			CheckUploadComplete: true,
			Schedule:            defaultSchedule,
			WatchFilesystem:     true,
			DebounceSeconds:     defaultDebounceSeconds,
		},
		Combine: Combine{
			CombinedFastqPermissions: defaultCombinedFastqPermissions,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
