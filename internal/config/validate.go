package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// ErrMisconfigured reports that the slicer install or user-data root cannot
// be resolved. It is the only condition that prevents an extraction from
// starting.
var ErrMisconfigured = errors.New("misconfigured")

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOverrides(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOverrides() error {
	if c.Manual.StartSequenceKey == c.Manual.EndSequenceKey {
		return errors.New("overrides.start_sequence_key and overrides.end_sequence_key must differ")
	}
	if strings.Contains(c.Manual.QualitySubdir, "..") {
		return errors.New("overrides.quality_subdir must stay inside the quality directory")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

// RequireRoots verifies that both slicer roots resolve to readable
// directories. The returned error wraps ErrMisconfigured.
func (c *Config) RequireRoots() error {
	if err := requireDir("paths.install_dir", c.Paths.InstallDir, "CURA_INSTALL_DIR"); err != nil {
		return err
	}
	if err := requireDir("paths.user_data_dir", c.Paths.UserDataDir, "CURA_USER_DATA_DIR"); err != nil {
		return err
	}
	return nil
}

func requireDir(field, path, envName string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: %s is not set (use a flag, %s, or the config file)", ErrMisconfigured, field, envName)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrMisconfigured, field, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s %q is not a directory", ErrMisconfigured, field, path)
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return fmt.Errorf("%w: %s %q is not readable: %v", ErrMisconfigured, field, path, err)
	}
	return nil
}
