package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"curaextract/internal/config"
)

func TestLoadDefaultConfigUsesEnvRootsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	install := filepath.Join(tempHome, "cura-install")
	t.Setenv("CURA_INSTALL_DIR", install)
	t.Setenv("CURA_USER_DATA_DIR", "~/cura-data")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Paths.InstallDir != install {
		t.Fatalf("unexpected install dir: got %q want %q", cfg.Paths.InstallDir, install)
	}
	if want := filepath.Join(tempHome, "cura-data"); cfg.Paths.UserDataDir != want {
		t.Fatalf("unexpected user data dir: got %q want %q", cfg.Paths.UserDataDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "curaextract"); cfg.Paths.StateDir != want {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, want)
	}
	if want := filepath.Join(cfg.Paths.StateDir, "history.db"); cfg.History.Path != want {
		t.Fatalf("unexpected history path: got %q want %q", cfg.History.Path, want)
	}
	if cfg.Manual.StartSequenceKey != "machine_start_gcode" || cfg.Manual.EndSequenceKey != "machine_end_gcode" {
		t.Fatalf("unexpected sequence keys: %q %q", cfg.Manual.StartSequenceKey, cfg.Manual.EndSequenceKey)
	}
	if !cfg.Extraction.MachineSettings || !cfg.Extraction.QualityBuiltin {
		t.Fatal("expected extraction sections enabled by default")
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadExplicitValuesBeatEnvironment(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("CURA_INSTALL_DIR", filepath.Join(tempHome, "from-env"))

	explicit := filepath.Join(tempHome, "from-file")
	cfgVal := config.Default()
	cfgVal.Paths.InstallDir = explicit
	cfgVal.Manual.Manufacturer = "  Creality "
	cfgVal.Manual.QualitySubdir = "/creality/base/"
	cfgVal.Manual.ExtraManufacturers = []string{"BIQU", "biqu", " ", "tronxy"}

	path := writeConfig(t, tempHome, cfgVal)
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected existing config at %q, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.Paths.InstallDir != explicit {
		t.Fatalf("expected explicit install dir, got %q", cfg.Paths.InstallDir)
	}
	overrides := cfg.Overrides()
	if overrides.Manufacturer != "Creality" {
		t.Fatalf("expected trimmed manufacturer with case kept, got %q", overrides.Manufacturer)
	}
	if overrides.QualitySubdir != "creality/base" {
		t.Fatalf("expected trimmed quality subdir, got %q", overrides.QualitySubdir)
	}
	if got := strings.Join(overrides.ExtraManufacturers, ","); got != "biqu,tronxy" {
		t.Fatalf("unexpected extra manufacturers: %q", got)
	}
}

func TestOverridesReturnsIndependentCopy(t *testing.T) {
	cfg := config.Default()
	cfg.Manual.ExtraManufacturers = []string{"biqu"}

	overrides := cfg.Overrides()
	overrides.ExtraManufacturers[0] = "mutated"

	if cfg.Manual.ExtraManufacturers[0] != "biqu" {
		t.Fatal("mutating the override bundle must not change the config")
	}
}

func TestApplyFlagsOverridesConfiguredValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg := config.Default()
	cfg.Paths.InstallDir = "/configured/install"
	if err := cfg.ApplyFlags(config.Flags{InstallDir: "~/flag-install", Manufacturer: "Prusa"}); err != nil {
		t.Fatalf("ApplyFlags: %v", err)
	}
	if want := filepath.Join(tempHome, "flag-install"); cfg.Paths.InstallDir != want {
		t.Fatalf("unexpected install dir: got %q want %q", cfg.Paths.InstallDir, want)
	}
	if cfg.Manual.Manufacturer != "Prusa" {
		t.Fatalf("unexpected manufacturer: %q", cfg.Manual.Manufacturer)
	}
}

func TestValidateRejectsBadLogging(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfgVal := config.Default()
	cfgVal.Logging.Format = "xml"
	path := writeConfig(t, tempHome, cfgVal)

	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("expected logging.format error, got %v", err)
	}
}

func TestValidateRejectsIdenticalSequenceKeys(t *testing.T) {
	cfg := config.Default()
	cfg.Manual.EndSequenceKey = cfg.Manual.StartSequenceKey
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for identical start/end keys")
	}
}

func TestRequireRootsReportsMisconfigured(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()

	err := cfg.RequireRoots()
	if !errors.Is(err, config.ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured for empty roots, got %v", err)
	}

	cfg.Paths.InstallDir = base
	cfg.Paths.UserDataDir = filepath.Join(base, "missing")
	err = cfg.RequireRoots()
	if !errors.Is(err, config.ErrMisconfigured) || !strings.Contains(err.Error(), "user_data_dir") {
		t.Fatalf("expected ErrMisconfigured for missing user data dir, got %v", err)
	}

	if err := os.MkdirAll(cfg.Paths.UserDataDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := cfg.RequireRoots(); err != nil {
		t.Fatalf("expected roots to resolve, got %v", err)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	path := filepath.Join(tempHome, "nested", "config.toml")

	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled in sample")
	}
}

func writeConfig(t *testing.T, dir string, cfg config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
