package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the slicer directories and local state location.
type Paths struct {
	InstallDir  string `toml:"install_dir"`
	UserDataDir string `toml:"user_data_dir"`
	StateDir    string `toml:"state_dir"`
}

// OverrideSettings holds manual fallbacks for values the extractor would
// otherwise derive on its own.
type OverrideSettings struct {
	Manufacturer       string   `toml:"manufacturer"`
	QualitySubdir      string   `toml:"quality_subdir"`
	StartSequenceKey   string   `toml:"start_sequence_key"`
	EndSequenceKey     string   `toml:"end_sequence_key"`
	ExtraManufacturers []string `toml:"extra_manufacturers"`
}

// Extraction toggles the report sections produced by an extraction run.
type Extraction struct {
	Preferences      bool `toml:"preferences"`
	MachineSettings  bool `toml:"machine_settings"`
	StartupSequences bool `toml:"startup_sequences"`
	Extruders        bool `toml:"extruders"`
	QualityBuiltin   bool `toml:"quality_builtin"`
	QualityCustom    bool `toml:"quality_custom"`
}

// History contains configuration for the run history database.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for curaextract.
//
// Configuration sections:
//   - Paths: slicer install/user-data roots and local state directory
//   - Manual: [overrides] fallbacks for manufacturer, quality subdir, g-code keys
//   - Extraction: report sections to produce
//   - History: SQLite run history
//   - Logging: log format and level
type Config struct {
	Paths      Paths            `toml:"paths"`
	Manual     OverrideSettings `toml:"overrides"`
	Extraction Extraction       `toml:"extraction"`
	History    History          `toml:"history"`
	Logging    Logging          `toml:"logging"`
}

// Overrides is the immutable override bundle threaded through one
// extraction run. Empty fields mean "derive automatically".
type Overrides struct {
	Manufacturer       string
	QualitySubdir      string
	StartSequenceKey   string
	EndSequenceKey     string
	ExtraManufacturers []string
}

// Overrides returns a copy of the configured override bundle.
func (c *Config) Overrides() Overrides {
	extra := make([]string, len(c.Manual.ExtraManufacturers))
	copy(extra, c.Manual.ExtraManufacturers)
	return Overrides{
		Manufacturer:       c.Manual.Manufacturer,
		QualitySubdir:      c.Manual.QualitySubdir,
		StartSequenceKey:   c.Manual.StartSequenceKey,
		EndSequenceKey:     c.Manual.EndSequenceKey,
		ExtraManufacturers: extra,
	}
}

// Flags carries explicit command-line values. Non-empty fields replace the
// corresponding configuration values.
type Flags struct {
	InstallDir    string
	UserDataDir   string
	Manufacturer  string
	QualitySubdir string
}

// ApplyFlags overlays explicit values onto the configuration.
func (c *Config) ApplyFlags(flags Flags) error {
	var err error
	if v := strings.TrimSpace(flags.InstallDir); v != "" {
		if c.Paths.InstallDir, err = expandPath(v); err != nil {
			return fmt.Errorf("install dir flag: %w", err)
		}
	}
	if v := strings.TrimSpace(flags.UserDataDir); v != "" {
		if c.Paths.UserDataDir, err = expandPath(v); err != nil {
			return fmt.Errorf("user data dir flag: %w", err)
		}
	}
	if v := strings.TrimSpace(flags.Manufacturer); v != "" {
		c.Manual.Manufacturer = v
	}
	if v := strings.TrimSpace(flags.QualitySubdir); v != "" {
		c.Manual.QualitySubdir = filepath.ToSlash(v)
	}
	return nil
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/curaextract/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("curaextract.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the local state directory.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.StateDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.StateDir, err)
	}
	if c.History.Enabled {
		if err := os.MkdirAll(filepath.Dir(c.History.Path), 0o755); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}
	return nil
}

// ResourcesDir returns the slicer resources directory inside the install tree.
func (c *Config) ResourcesDir() string {
	return filepath.Join(c.Paths.InstallDir, "share", "cura", "resources")
}

// DefinitionsDir returns the directory holding *.def.json documents.
func (c *Config) DefinitionsDir() string {
	return filepath.Join(c.ResourcesDir(), "definitions")
}

// QualityDir returns the generic quality profile root.
func (c *Config) QualityDir() string {
	return filepath.Join(c.ResourcesDir(), "quality")
}

// LockPath returns the run lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "curaextract.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
