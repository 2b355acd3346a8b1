package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeScan(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCombine()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeScan() error {
	if len(c.Scan.RunParentDirs) == 0 {
		if value, ok := os.LookupEnv(EnvRunParentDirs); ok {
			c.Scan.RunParentDirs = filepath.SplitList(value)
		}
	}
	dirs := make([]string, 0, len(c.Scan.RunParentDirs))
	seen := make(map[string]struct{}, len(c.Scan.RunParentDirs))
	for idx, dir := range c.Scan.RunParentDirs {
		trimmed := strings.TrimSpace(dir)
		if trimmed == "" {
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("scan.run_parent_dirs[%d]: %w", idx, err)
		}
		if _, exists := seen[expanded]; exists {
			continue
		}
		seen[expanded] = struct{}{}
		dirs = append(dirs, expanded)
	}
	c.Scan.RunParentDirs = dirs

	c.Scan.Schedule = strings.TrimSpace(c.Scan.Schedule)
	if c.Scan.Schedule == "" {
		c.Scan.Schedule = defaultSchedule
	}
	if c.Scan.DebounceSeconds < 0 {
		c.Scan.DebounceSeconds = 0
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCombine() {
	c.Combine.CombinedFastqPermissions = strings.TrimSpace(c.Combine.CombinedFastqPermissions)
	if c.Combine.CombinedFastqPermissions == "" {
		c.Combine.CombinedFastqPermissions = defaultCombinedFastqPermissions
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
