package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateCombine(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateScan() error {
	if len(c.Scan.RunParentDirs) == 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return &ConfigError{
			Key:    "scan.run_parent_dirs",
			Reason: fmt.Sprintf("at least one directory is required. Set %s or edit %s (create with 'autocombine config init')", EnvRunParentDirs, defaultPath),
		}
	}
	if _, err := cron.ParseStandard(c.Scan.Schedule); err != nil {
		return &ConfigError{Key: "scan.schedule", Reason: err.Error()}
	}
	return nil
}

func (c *Config) validateCombine() error {
	if _, err := ParseFileMode(c.Combine.CombinedFastqPermissions); err != nil {
		return &ConfigError{Key: "combine.combined_fastq_permissions", Reason: err.Error()}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "json", "console":
	default:
		return &ConfigError{Key: "logging.format", Reason: fmt.Sprintf("unsupported format %q (use json or console)", c.Logging.Format)}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return &ConfigError{Key: "logging.level", Reason: fmt.Sprintf("unsupported level %q", c.Logging.Level)}
	}
}

// ParseFileMode parses an octal permission string such as "0664" or "664".
// Only permission bits are accepted, and the mode must grant some access:
// a zero mode would leave the combined files unreadable.
func ParseFileMode(value string) (os.FileMode, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0o")
	if trimmed == "" {
		return 0, fmt.Errorf("empty file mode")
	}
	parsed, err := strconv.ParseUint(trimmed, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("file mode %q is not an octal number", value)
	}
	if parsed > 0o777 {
		return 0, fmt.Errorf("file mode %q exceeds 0777", value)
	}
	if parsed == 0 {
		return 0, fmt.Errorf("file mode %q grants no access", value)
	}
	return os.FileMode(parsed), nil
}
