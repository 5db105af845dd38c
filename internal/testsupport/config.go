package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"curaextract/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test:
// an empty install tree, an empty user-data root and a state directory.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InstallDir = filepath.Join(base, "cura-5.6.0")
	cfgVal.Paths.UserDataDir = filepath.Join(base, "userdata")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.History.Path = filepath.Join(cfgVal.Paths.StateDir, "history.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	for _, dir := range []string{
		builder.cfg.DefinitionsDir(),
		builder.cfg.QualityDir(),
		builder.cfg.Paths.UserDataDir,
	} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	return builder.cfg
}

// WithManufacturer sets the manual manufacturer override.
func WithManufacturer(tag string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Manual.Manufacturer = tag
	}
}

// WithQualitySubdir sets the manual quality subdirectory override.
func WithQualitySubdir(sub string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Manual.QualitySubdir = sub
	}
}

// WithExtraManufacturers appends vendor prefixes to the classifier list.
func WithExtraManufacturers(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Manual.ExtraManufacturers = append(b.cfg.Manual.ExtraManufacturers, names...)
	}
}

// WithoutHistory disables the run history database.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithoutUserData points the user-data root at a directory that does not
// exist.
func WithoutUserData() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.UserDataDir = ""
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
