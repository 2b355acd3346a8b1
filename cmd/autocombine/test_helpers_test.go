package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autocombine/internal/config"
	"autocombine/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	parentDir  string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		parentDir:  testsupport.ParentDir(cfg),
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	quoted := make([]string, 0, len(cfg.Scan.RunParentDirs))
	for _, dir := range cfg.Scan.RunParentDirs {
		quoted = append(quoted, fmt.Sprintf("%q", dir))
	}
	content := fmt.Sprintf(
		"[scan]\nrun_parent_dirs = [%s]\ncheck_upload_complete = %t\n\n[combine]\ncombined_fastq_permissions = %q\n\n[paths]\nstate_dir = %q\nlog_dir = %q\n",
		strings.Join(quoted, ", "),
		cfg.Scan.CheckUploadComplete,
		cfg.Combine.CombinedFastqPermissions,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
