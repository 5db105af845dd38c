package quality

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"curaextract/internal/diagnostic"
	"curaextract/internal/logging"
	"curaextract/internal/profile"
)

const (
	// GlobalPattern matches global quality presets.
	GlobalPattern = "*global*.inst.cfg"
	// UnknownType keys presets without metadata.quality_type.
	UnknownType = "unknown"
	// CustomDir is the user-data directory of custom presets.
	CustomDir = "quality_changes"
)

// Profile is one built-in quality preset.
type Profile struct {
	QualityType string            `json:"-"`
	Name        string            `json:"name"`
	File        string            `json:"file"`
	Settings    map[string]string `json:"settings"`
}

// Candidate is a preset file found while scanning, with the index of the
// search directory it came from.
type Candidate struct {
	Rank  int
	Depth int
	Path  string
}

// Precedes reports whether a wins over b for the same quality_type: lower
// directory rank first, then the shallower file, then the lexically smaller
// path.
func Precedes(a, b Candidate) bool {
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	if a.Depth != b.Depth {
		return a.Depth < b.Depth
	}
	return a.Path < b.Path
}

// BuiltinResult is the outcome of ScanBuiltin.
type BuiltinResult struct {
	Profiles    map[string]*Profile
	Diagnostics []diagnostic.Diagnostic
}

// Types returns the resolved quality types in lexical order.
func (r BuiltinResult) Types() []string {
	keys := make([]string, 0, len(r.Profiles))
	for key := range r.Profiles {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

type scanned struct {
	candidate Candidate
	doc       *profile.Document
}

// ScanBuiltin walks dirs recursively for global presets and keeps one per
// quality_type. A file reachable from several directories is attributed to
// the first one.
func (l *Locator) ScanBuiltin(dirs []string) BuiltinResult {
	result := BuiltinResult{Profiles: make(map[string]*Profile)}
	seen := make(map[string]struct{})
	groups := make(map[string][]scanned)

	for rank, dir := range dirs {
		for _, candidate := range l.collect(rank, dir) {
			if _, ok := seen[candidate.Path]; ok {
				continue
			}
			seen[candidate.Path] = struct{}{}

			doc, err := profile.Load(candidate.Path)
			if err != nil {
				result.Diagnostics = append(result.Diagnostics, diagnostic.FromError(filepath.Base(candidate.Path), candidate.Path, err))
				logging.WarnWithContext(l.logger, "quality profile unreadable", "quality_profile_malformed",
					logging.String(logging.FieldPath, candidate.Path),
					logging.Error(err),
					logging.String(logging.FieldImpact, "profile skipped"))
				continue
			}
			qualityType := strings.TrimSpace(doc.Metadata()["quality_type"])
			if qualityType == "" {
				qualityType = UnknownType
			}
			groups[qualityType] = append(groups[qualityType], scanned{candidate: candidate, doc: doc})
		}
	}

	types := make([]string, 0, len(groups))
	for qualityType := range groups {
		types = append(types, qualityType)
	}
	sort.Strings(types)

	for _, qualityType := range types {
		group := groups[qualityType]
		sort.Slice(group, func(i, j int) bool { return Precedes(group[i].candidate, group[j].candidate) })
		winner := group[0]
		result.Profiles[qualityType] = &Profile{
			QualityType: qualityType,
			Name:        winner.doc.Name(),
			File:        winner.candidate.Path,
			Settings:    copyValues(winner.doc.Values()),
		}
		for _, loser := range group[1:] {
			result.Diagnostics = append(result.Diagnostics, diagnostic.Diagnostic{
				Kind:    diagnostic.KindAmbiguous,
				Subject: qualityType,
				Path:    loser.candidate.Path,
				Detail:  fmt.Sprintf("shadowed by %s", winner.candidate.Path),
			})
		}
		if len(group) > 1 {
			attrs := append(logging.DecisionAttrs("quality_precedence", winner.candidate.Path, "highest ranked search directory"),
				logging.String("quality_type", qualityType),
				logging.Int("candidates", len(group)))
			l.logger.Debug("quality type resolved by precedence", logging.Args(attrs...)...)
		}
	}
	return result
}

// collect lists preset files under dir in walk order. Unreadable
// subdirectories are skipped.
func (l *Locator) collect(rank int, dir string) []Candidate {
	var out []Candidate
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			l.logger.Debug("skipping unreadable quality path", logging.String(logging.FieldPath, path), logging.Error(err))
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(GlobalPattern, entry.Name()); !ok {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = entry.Name()
		}
		out = append(out, Candidate{Rank: rank, Depth: strings.Count(filepath.ToSlash(rel), "/"), Path: path})
		return nil
	})
	if err != nil {
		logging.WarnWithContext(l.logger, "quality directory unreadable", "quality_dir_unreadable",
			logging.String(logging.FieldPath, dir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "profiles in this directory are skipped"))
	}
	return out
}

// Names lists the distinct general.name values of every global preset under
// the generic root, in walk order.
func (l *Locator) Names() []string {
	var names []string
	seen := make(map[string]struct{})
	for _, candidate := range l.collect(0, l.base) {
		doc, err := profile.Load(candidate.Path)
		if err != nil {
			continue
		}
		name := doc.Name()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// CustomProfile groups the files of one user preset by general.name.
type CustomProfile struct {
	Files    []string          `json:"files"`
	Settings map[string]string `json:"settings"`
}

// CustomResult is the outcome of ScanCustom.
type CustomResult struct {
	Profiles    map[string]*CustomProfile
	Diagnostics []diagnostic.Diagnostic
}

// ScanCustom reads <userDataDir>/quality_changes/*.inst.cfg. Files sharing a
// name (global and per-extruder parts) are merged in path order.
func ScanCustom(userDataDir string) CustomResult {
	result := CustomResult{Profiles: make(map[string]*CustomProfile)}
	paths, err := filepath.Glob(filepath.Join(userDataDir, CustomDir, "*.inst.cfg"))
	if err != nil || len(paths) == 0 {
		return result
	}
	sort.Strings(paths)
	for _, path := range paths {
		doc, err := profile.Load(path)
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, diagnostic.FromError(filepath.Base(path), path, err))
			continue
		}
		name := doc.Name()
		entry, ok := result.Profiles[name]
		if !ok {
			entry = &CustomProfile{Settings: make(map[string]string)}
			result.Profiles[name] = entry
		}
		entry.Files = append(entry.Files, path)
		for key, value := range doc.Values() {
			entry.Settings[key] = value
		}
	}
	return result
}

// CustomNames returns the distinct custom preset names in lexical order.
func CustomNames(userDataDir string) []string {
	result := ScanCustom(userDataDir)
	names := make([]string, 0, len(result.Profiles))
	for name := range result.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func copyValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for key, value := range values {
		out[key] = value
	}
	return out
}
