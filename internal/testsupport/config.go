package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"autocombine/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test:
// one run parent directory plus state and log directories. Upload marker
// checks are off unless WithUploadCheck is applied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Scan.RunParentDirs = []string{filepath.Join(base, "runs")}
	cfgVal.Scan.CheckUploadComplete = false
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	for _, dir := range builder.cfg.Scan.RunParentDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir run parent: %v", err)
		}
	}
	return builder.cfg
}

// WithUploadCheck toggles scan.check_upload_complete.
func WithUploadCheck(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.CheckUploadComplete = enabled
	}
}

// WithPermissions overrides combine.combined_fastq_permissions.
func WithPermissions(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Combine.CombinedFastqPermissions = mode
	}
}

// WithExtraParent appends another run parent directory below the temp root.
func WithExtraParent(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.RunParentDirs = append(b.cfg.Scan.RunParentDirs, filepath.Join(b.baseDir, name))
	}
}

// ParentDir returns the first run parent directory of cfg.
func ParentDir(cfg *config.Config) string {
	return cfg.Scan.RunParentDirs[0]
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
