// Package profile reads the INI-style .cfg and .inst.cfg documents the slicer
// keeps for machine instances, user overrides, extruders and quality presets.
package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

var (
	// ErrNotFound reports that a profile file is absent.
	ErrNotFound = errors.New("profile not found")
	// ErrMalformed reports that a profile exists but cannot be parsed.
	ErrMalformed = errors.New("profile malformed")
)

// Well-known section names.
const (
	SectionGeneral    = "general"
	SectionMetadata   = "metadata"
	SectionValues     = "values"
	SectionContainers = "containers"
)

// Compound suffixes stripped when deriving a fallback name.
var knownSuffixes = []string{".global.cfg", ".extruder.cfg", ".inst.cfg", ".cfg"}

// Document is one parsed profile. Section and key names are lower-case.
type Document struct {
	Path     string
	Sections map[string]map[string]string
	order    []string
}

var loadOptions = ini.LoadOptions{
	AllowPythonMultilineValues: true,
	Insensitive:                true,
	IgnoreInlineComment:        true,
	IgnoreContinuation:         true,
	PreserveSurroundedQuote:    true,
}

// Load reads and parses the profile at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse decodes profile content. path is recorded for diagnostics and the
// fallback name.
func Parse(path string, data []byte) (*Document, error) {
	file, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}

	doc := &Document{Path: path, Sections: make(map[string]map[string]string)}
	for _, section := range file.Sections() {
		name := section.Name()
		keys := section.Keys()
		if strings.EqualFold(name, ini.DefaultSection) && len(keys) == 0 {
			continue
		}
		values := make(map[string]string, len(keys))
		for _, key := range keys {
			values[key.Name()] = joinContinuation(key.Value())
		}
		doc.Sections[name] = values
		doc.order = append(doc.order, name)
	}
	return doc, nil
}

// joinContinuation rewrites a multi-line value the way the slicer's own
// reader does: continuation lines lose their indent, indented comment lines
// are dropped and trailing blank lines are trimmed.
func joinContinuation(value string) string {
	if !strings.Contains(value, "\n") {
		return value
	}
	lines := strings.Split(value, "\n")
	out := make([]string, 1, len(lines))
	out[0] = lines[0]
	for _, line := range lines[1:] {
		line = strings.TrimLeft(line, " \t\f")
		if strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, strings.TrimRight(line, " \t\f\r"))
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}

// Name returns general.name, falling back to the file name without its
// profile suffix.
func (d *Document) Name() string {
	if name, ok := d.Get(SectionGeneral, "name"); ok && strings.TrimSpace(name) != "" {
		return name
	}
	return StemOf(d.Path)
}

// Filename returns the base name of the profile path.
func (d *Document) Filename() string {
	return filepath.Base(d.Path)
}

// Section returns the named section or nil.
func (d *Document) Section(name string) map[string]string {
	if d == nil {
		return nil
	}
	return d.Sections[strings.ToLower(name)]
}

// Get returns one value.
func (d *Document) Get(section, key string) (string, bool) {
	values := d.Section(section)
	if values == nil {
		return "", false
	}
	value, ok := values[strings.ToLower(key)]
	return value, ok
}

// SectionNames returns section names in file order.
func (d *Document) SectionNames() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

func (d *Document) General() map[string]string { return d.Section(SectionGeneral) }
func (d *Document) Metadata() map[string]string { return d.Section(SectionMetadata) }
func (d *Document) Values() map[string]string { return d.Section(SectionValues) }
func (d *Document) Containers() map[string]string { return d.Section(SectionContainers) }

// SortedKeys returns the keys of a section in lexical order.
func SortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// StemOf strips the directory and any known profile suffix from path.
func StemOf(path string) string {
	base := filepath.Base(path)
	lower := strings.ToLower(base)
	for _, suffix := range knownSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return base[:len(base)-len(suffix)]
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
