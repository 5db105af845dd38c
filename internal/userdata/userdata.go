// Package userdata reads the slicer's per-user data directory: machine
// instances, their definition_changes documents, extruder stacks and the
// global preferences file.
package userdata

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"curaextract/internal/diagnostic"
	"curaextract/internal/logging"
	"curaextract/internal/profile"
)

// Directory and file names inside the user-data root.
const (
	MachineInstancesDir  = "machine_instances"
	DefinitionChangesDir = "definition_changes"
	ExtrudersDir         = "extruders"
	PreferencesFile      = "cura.cfg"

	machineSuffix       = ".global.cfg"
	extruderSuffix      = ".extruder.cfg"
	settingsSuffix      = "_settings.inst.cfg"
	containerChanges    = "6"
	containerDefinition = "7"
)

// ErrMachineNotFound reports that no instance file decodes to the requested
// machine name.
var ErrMachineNotFound = errors.New("machine not found")

var versionPattern = regexp.MustCompile(`(\d+\.\d+\.?\d*)`)

// Store reads one user-data root. Unreadable documents met during lookups
// are recorded in the diagnostics list once and skipped.
type Store struct {
	root   string
	logger *slog.Logger
	diags  *diagnostic.List

	mu     sync.Mutex
	loaded map[string]*profile.Document
}

// New returns a Store for root. diags may be nil.
func New(root string, logger *slog.Logger, diags *diagnostic.List) *Store {
	if diags == nil {
		diags = &diagnostic.List{}
	}
	return &Store{
		root:   root,
		logger: logging.NewComponentLogger(logger, "userdata"),
		diags:  diags,
		loaded: make(map[string]*profile.Document),
	}
}

// Root returns the user-data directory.
func (s *Store) Root() string {
	return s.root
}

// Diagnostics returns the list lookups report into.
func (s *Store) Diagnostics() *diagnostic.List {
	return s.diags
}

// Instance is a machine's global stack file.
type Instance struct {
	Name string
	Path string
	Doc  *profile.Document
}

// Containers returns the container stack section.
func (i *Instance) Containers() map[string]string {
	return i.Doc.Containers()
}

// DefinitionChangesName is the general.name of the machine's
// definition_changes document (container 6).
func (i *Instance) DefinitionChangesName() string {
	return strings.TrimSpace(i.Containers()[containerChanges])
}

// LeafDefinition is the machine's base definition (container 7, falling back
// to metadata.definition).
func (i *Instance) LeafDefinition() string {
	if name := strings.TrimSpace(i.Containers()[containerDefinition]); name != "" {
		return name
	}
	return strings.TrimSpace(i.Doc.Metadata()["definition"])
}

// DecodeMachineName turns an instance file name into the machine name.
func DecodeMachineName(filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), machineSuffix)
	decoded, err := url.PathUnescape(stem)
	if err != nil {
		return stem
	}
	return decoded
}

func (s *Store) glob(dir, pattern string) []string {
	paths, err := filepath.Glob(filepath.Join(s.root, dir, pattern))
	if err != nil {
		return nil
	}
	sort.Strings(paths)
	return paths
}

// Machines lists the machine names with an instance file, sorted.
func (s *Store) Machines() []string {
	paths := s.glob(MachineInstancesDir, "*"+machineSuffix)
	names := make([]string, 0, len(paths))
	for _, path := range paths {
		names = append(names, DecodeMachineName(path))
	}
	sort.Strings(names)
	return names
}

// Machine loads the instance whose decoded file name equals name.
func (s *Store) Machine(name string) (*Instance, error) {
	for _, path := range s.glob(MachineInstancesDir, "*"+machineSuffix) {
		if DecodeMachineName(path) != name {
			continue
		}
		doc, err := profile.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load machine instance: %w", err)
		}
		return &Instance{Name: name, Path: path, Doc: doc}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMachineNotFound, name)
}

// DefinitionChanges finds the definition_changes document whose general.name
// equals name. It returns nil when name is empty or nothing matches.
func (s *Store) DefinitionChanges(name string) *profile.Document {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	for _, path := range s.glob(DefinitionChangesDir, "*.inst.cfg") {
		doc := s.load(path)
		if doc != nil && doc.Name() == name {
			return doc
		}
	}
	return nil
}

// NormalizeName folds a machine or file name for fuzzy matching: lower-case
// with spaces and their URL encodings turned into underscores.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	return strings.NewReplacer("+", "_", "%20", "_", " ", "_").Replace(name)
}

// SettingsOverride returns the first *_settings.inst.cfg document in
// definition_changes whose normalized file name contains the normalized
// machine name.
func (s *Store) SettingsOverride(machine string) *profile.Document {
	want := NormalizeName(machine)
	if want == "" {
		return nil
	}
	for _, path := range s.glob(DefinitionChangesDir, "*"+settingsSuffix) {
		if !strings.Contains(NormalizeName(filepath.Base(path)), want) {
			continue
		}
		if doc := s.load(path); doc != nil {
			return doc
		}
	}
	return nil
}

// Extruder is one extruder stack belonging to a machine.
type Extruder struct {
	Position string
	Doc      *profile.Document
	Settings *profile.Document
}

// Extruders returns the machine's extruder stacks ordered by position.
func (s *Store) Extruders(machine string) []Extruder {
	var out []Extruder
	for _, path := range s.glob(ExtrudersDir, "*"+extruderSuffix) {
		doc := s.load(path)
		if doc == nil {
			continue
		}
		if doc.Metadata()["machine"] != machine && !strings.Contains(path, machine) {
			continue
		}
		position := strings.TrimSpace(doc.Metadata()["position"])
		if position == "" {
			position = "0"
		}
		out = append(out, Extruder{
			Position: position,
			Doc:      doc,
			Settings: s.DefinitionChanges(doc.Containers()[containerChanges]),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// Preferences loads cura.cfg.
func (s *Store) Preferences() (*profile.Document, error) {
	doc, err := profile.Load(filepath.Join(s.root, PreferencesFile))
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	return doc, nil
}

// ActiveMachine returns the machine selected in cura.cfg, or "" when the
// preferences are missing or name none.
func (s *Store) ActiveMachine() string {
	doc, err := s.Preferences()
	if err != nil {
		return ""
	}
	for _, section := range []string{"cura", profile.SectionGeneral} {
		if name, ok := doc.Get(section, "active_machine"); ok && strings.TrimSpace(name) != "" {
			return strings.TrimSpace(name)
		}
	}
	return ""
}

// load parses path once per Store; failures are cached as nil.
func (s *Store) load(path string) *profile.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.loaded[path]; ok {
		return doc
	}
	doc, err := profile.Load(path)
	s.loaded[path] = doc
	if err != nil {
		s.diags.Add(diagnostic.FromError(filepath.Base(path), path, err))
		logging.WarnWithContext(s.logger, "user profile unreadable", "profile_malformed",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "open the file in the slicer and re-save it"),
			logging.String(logging.FieldImpact, "document skipped"))
		return nil
	}
	return doc
}

// CuraVersion extracts a version number from the install path, or
// "unknown".
func CuraVersion(installDir string) string {
	if match := versionPattern.FindString(installDir); match != "" {
		return match
	}
	return "unknown"
}
