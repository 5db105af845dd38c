package extract

import (
	"fmt"
	"os"
	"path/filepath"

	"curaextract/internal/quality"
	"curaextract/internal/userdata"
)

// Discovery lists what an install and user-data root contain.
type Discovery struct {
	CuraVersion      string   `json:"cura_version"`
	Machines         []string `json:"machines"`
	CustomProfiles   []string `json:"custom_profiles"`
	BuiltinQualities []string `json:"builtin_qualities"`
}

// Discover lists machines, custom presets and built-in preset names.
func (e *Extractor) Discover() Discovery {
	store := userdata.New(e.cfg.Paths.UserDataDir, e.logger, nil)
	return Discovery{
		CuraVersion:      userdata.CuraVersion(e.cfg.Paths.InstallDir),
		Machines:         nonNil(store.Machines()),
		CustomProfiles:   nonNil(quality.CustomNames(e.cfg.Paths.UserDataDir)),
		BuiltinQualities: nonNil(e.locator.Names()),
	}
}

// ActiveMachine returns the machine cura.cfg marks as active, or "".
func (e *Extractor) ActiveMachine() string {
	return userdata.New(e.cfg.Paths.UserDataDir, e.logger, nil).ActiveMachine()
}

// ValidatePaths checks that the install tree and user-data root have the
// expected layout. It returns one message per problem; an empty result means
// the paths look usable.
func (e *Extractor) ValidatePaths() []string {
	var problems []string

	resources := e.cfg.ResourcesDir()
	if !isDir(resources) {
		problems = append(problems, fmt.Sprintf("install path missing resources: %s", resources))
	} else if !isFile(e.definitions.PathFor("fdmprinter")) {
		problems = append(problems, "missing fdmprinter.def.json in definitions")
	}

	if !isFile(filepath.Join(e.cfg.Paths.UserDataDir, userdata.PreferencesFile)) {
		problems = append(problems, fmt.Sprintf("missing %s in user data directory", userdata.PreferencesFile))
	}
	return problems
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
