// Package quality finds the quality preset documents that apply to a machine.
package quality

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"curaextract/internal/logging"
)

// BaseSubdir is the conventional shared subdirectory of a vendor folder.
const BaseSubdir = "base"

// Locator resolves quality directories under one generic quality root.
type Locator struct {
	base   string
	logger *slog.Logger
}

// NewLocator returns a Locator rooted at base
// (<install>/share/cura/resources/quality).
func NewLocator(base string, logger *slog.Logger) *Locator {
	return &Locator{
		base:   filepath.Clean(base),
		logger: logging.NewComponentLogger(logger, "quality"),
	}
}

// Base returns the generic quality root.
func (l *Locator) Base() string {
	return l.base
}

// LocateDirectories returns the directories to search, most specific first:
// the override subdirectory, the vendor directory, its base subdirectory and
// finally the generic root. Only existing directories are listed and none
// appears twice.
func (l *Locator) LocateDirectories(tag, overrideSubdir string) []string {
	var paths []string
	add := func(path string) {
		path = filepath.Clean(path)
		for _, existing := range paths {
			if existing == path {
				return
			}
		}
		paths = append(paths, path)
	}

	if sub := strings.Trim(filepath.ToSlash(overrideSubdir), "/"); sub != "" {
		overridePath := filepath.Join(l.base, filepath.FromSlash(sub))
		if isDir(overridePath) {
			add(overridePath)
		} else {
			logging.WarnWithContext(l.logger, "quality override directory not found", "quality_override_missing",
				logging.String(logging.FieldPath, overridePath),
				logging.String(logging.FieldErrorHint, "check overrides.quality_subdir against the install tree"),
				logging.String(logging.FieldImpact, "override directory skipped; vendor and generic profiles still searched"))
		}
	}

	if tag = strings.TrimSpace(tag); tag != "" {
		vendorDir := filepath.Join(l.base, tag)
		if isDir(vendorDir) {
			add(vendorDir)
			if baseDir := filepath.Join(vendorDir, BaseSubdir); isDir(baseDir) {
				add(baseDir)
			}
		}
	}

	if isDir(l.base) {
		add(l.base)
	}

	l.logger.Debug("quality search path resolved",
		logging.String("manufacturer", tag),
		logging.String("override_subdir", overrideSubdir),
		logging.Strings("directories", paths))
	return paths
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
