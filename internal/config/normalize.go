package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOverrides()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.InstallDir) == "" {
		if value, ok := os.LookupEnv("CURA_INSTALL_DIR"); ok {
			c.Paths.InstallDir = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Paths.UserDataDir) == "" {
		if value, ok := os.LookupEnv("CURA_USER_DATA_DIR"); ok {
			c.Paths.UserDataDir = strings.TrimSpace(value)
		}
	}
	if c.Paths.InstallDir, err = expandPath(strings.TrimSpace(c.Paths.InstallDir)); err != nil {
		return fmt.Errorf("paths.install_dir: %w", err)
	}
	if c.Paths.UserDataDir, err = expandPath(strings.TrimSpace(c.Paths.UserDataDir)); err != nil {
		return fmt.Errorf("paths.user_data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOverrides() {
	c.Manual.Manufacturer = strings.TrimSpace(c.Manual.Manufacturer)
	c.Manual.QualitySubdir = strings.Trim(filepath.ToSlash(strings.TrimSpace(c.Manual.QualitySubdir)), "/")
	c.Manual.StartSequenceKey = strings.TrimSpace(c.Manual.StartSequenceKey)
	if c.Manual.StartSequenceKey == "" {
		c.Manual.StartSequenceKey = defaultStartSequenceKey
	}
	c.Manual.EndSequenceKey = strings.TrimSpace(c.Manual.EndSequenceKey)
	if c.Manual.EndSequenceKey == "" {
		c.Manual.EndSequenceKey = defaultEndSequenceKey
	}

	vendors := make([]string, 0, len(c.Manual.ExtraManufacturers))
	seen := make(map[string]struct{}, len(c.Manual.ExtraManufacturers))
	for _, vendor := range c.Manual.ExtraManufacturers {
		normalized := strings.ToLower(strings.TrimSpace(vendor))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		vendors = append(vendors, normalized)
	}
	c.Manual.ExtraManufacturers = vendors
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, defaultHistoryFile)
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
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
}
