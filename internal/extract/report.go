package extract

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"curaextract/internal/config"
	"curaextract/internal/diagnostic"
	"curaextract/internal/logging"
	"curaextract/internal/profile"
	"curaextract/internal/quality"
	"curaextract/internal/settings"
	"curaextract/internal/startup"
	"curaextract/internal/userdata"
)

// Report is the full extraction document. Field order is the output order.
type Report struct {
	Summary        Summary                           `json:"_summary"`
	KeySettings    map[string]KeySetting             `json:"_key_settings"`
	Metadata       Metadata                          `json:"metadata"`
	Preferences    *ProfileSection                   `json:"preferences,omitempty"`
	Machine        *MachineSection                   `json:"machine,omitempty"`
	Startup        *startup.Resolution               `json:"startup_sequences,omitempty"`
	Extruders      map[string]*ProfileSection        `json:"extruders,omitempty"`
	QualityBuiltin map[string]*quality.Profile       `json:"quality_builtin,omitempty"`
	QualityCustom  map[string]*quality.CustomProfile `json:"quality_custom,omitempty"`
	Diagnostics    []diagnostic.Diagnostic           `json:"diagnostics"`

	// Resolved is nil when the machine could not be resolved; ResolveError
	// then says why.
	Resolved     *Resolution `json:"-"`
	ResolveError string      `json:"-"`
}

// Metadata describes the run.
type Metadata struct {
	RunID            string `json:"run_id"`
	Machine          string `json:"machine"`
	CuraVersion      string `json:"cura_version"`
	ExtractedAt      string `json:"extracted_at"`
	ExtractorVersion string `json:"extractor_version"`
	InstallDir       string `json:"install_dir"`
	UserDataDir      string `json:"user_data_dir"`
}

// ProfileSection is a profile document as it appears in the report. Error is
// set instead of Sections when the document could not be read.
type ProfileSection struct {
	File     string                       `json:"file"`
	Filename string                       `json:"filename"`
	Sections map[string]map[string]string `json:"sections,omitempty"`
	Error    string                       `json:"error,omitempty"`
}

// ChainEntry is one definition of the inheritance chain.
type ChainEntry struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	File        string `json:"file"`
}

// MachineSection holds the machine's instance, chain and merged settings.
type MachineSection struct {
	Name                 string            `json:"name"`
	Instance             *ProfileSection   `json:"instance,omitempty"`
	ContainerStack       map[string]string `json:"container_stack,omitempty"`
	LeafDefinition       string            `json:"leaf_definition,omitempty"`
	InheritanceChain     []ChainEntry      `json:"inheritance_chain"`
	ChainComplete        bool              `json:"chain_complete"`
	DetectedManufacturer string            `json:"detected_manufacturer,omitempty"`
	DefinitionChanges    *ProfileSection   `json:"definition_changes,omitempty"`
	EffectiveSettings    settings.Map      `json:"effective_settings"`
	QualityDirectories   []string          `json:"quality_directories"`
	Error                string            `json:"error,omitempty"`
}

func sectionOf(doc *profile.Document) *ProfileSection {
	if doc == nil {
		return nil
	}
	return &ProfileSection{File: doc.Path, Filename: doc.Filename(), Sections: doc.Sections}
}

func sectionError(path string, err error) *ProfileSection {
	return &ProfileSection{File: path, Filename: filepath.Base(path), Error: err.Error()}
}

// Extract resolves machine and assembles the report sections enabled in
// sections. An unknown machine is recorded in the machine section's error
// field; the remaining sections are still produced.
func (e *Extractor) Extract(machine string, sections config.Extraction) (*Report, error) {
	runID := uuid.NewString()
	started := e.now()
	logger := e.logger.With(logging.String(logging.FieldRunID, runID), logging.String(logging.FieldMachine, machine))
	logger.Info("extraction started")

	diags := &diagnostic.List{}
	store := userdata.New(e.cfg.Paths.UserDataDir, logger, diags)

	report := &Report{
		Metadata: Metadata{
			RunID:            runID,
			Machine:          machine,
			CuraVersion:      userdata.CuraVersion(e.cfg.Paths.InstallDir),
			ExtractedAt:      started.Format(time.RFC3339),
			ExtractorVersion: Version,
			InstallDir:       e.cfg.Paths.InstallDir,
			UserDataDir:      e.cfg.Paths.UserDataDir,
		},
	}

	if sections.Preferences {
		report.Preferences = e.preferences(store, diags)
	}

	res, err := e.resolve(machine, store)
	var resolveDiags []diagnostic.Diagnostic
	report.Resolved = res
	if err != nil {
		report.ResolveError = err.Error()
		if !errors.Is(err, userdata.ErrMachineNotFound) && !errors.Is(err, profile.ErrMalformed) {
			return nil, err
		}
		logging.WarnWithContext(logger, "machine could not be resolved", "machine_not_found",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run `curaextract machines` to list available names"),
			logging.String(logging.FieldImpact, "machine, startup and extruder sections are empty"))
		if sections.MachineSettings {
			report.Machine = &MachineSection{Name: machine, Error: err.Error()}
		}
		kind := diagnostic.KindOf(err)
		if errors.Is(err, userdata.ErrMachineNotFound) {
			kind = diagnostic.KindNotFound
		}
		diags.Add(diagnostic.Diagnostic{Kind: kind, Subject: machine, Detail: err.Error()})
	} else {
		resolveDiags = res.Diagnostics
		if sections.MachineSettings {
			report.Machine = machineSection(res)
		}
		if sections.StartupSequences {
			sequences := res.Startup
			report.Startup = &sequences
		}
	}

	if sections.Extruders {
		report.Extruders = extruderSections(store.Extruders(machine))
	}

	tag := e.overrides.Manufacturer
	if res != nil {
		tag = res.Manufacturer
	}
	if sections.QualityBuiltin {
		var dirs []string
		if res != nil {
			dirs = res.QualityDirs
		} else {
			dirs = e.locator.LocateDirectories(tag, e.overrides.QualitySubdir)
		}
		scan := e.locator.ScanBuiltin(dirs)
		report.QualityBuiltin = scan.Profiles
		diags.Add(scan.Diagnostics...)
	}
	if sections.QualityCustom {
		custom := quality.ScanCustom(e.cfg.Paths.UserDataDir)
		report.QualityCustom = custom.Profiles
		diags.Add(custom.Diagnostics...)
	}

	report.Diagnostics = mergeDiagnostics(resolveDiags, diags.Items())
	report.Summary = buildSummary(report, res)
	report.KeySettings = buildKeySettings(res)

	logger.Info("extraction complete",
		logging.Duration("elapsed", e.now().Sub(started)),
		logging.Int("diagnostics", len(report.Diagnostics)))
	return report, nil
}

// mergeDiagnostics concatenates lists, dropping exact duplicates produced
// when the resolution and the report share one user-data store.
func mergeDiagnostics(lists ...[]diagnostic.Diagnostic) []diagnostic.Diagnostic {
	out := []diagnostic.Diagnostic{}
	seen := make(map[diagnostic.Diagnostic]struct{})
	for _, list := range lists {
		for _, item := range list {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

func (e *Extractor) preferences(store *userdata.Store, diags *diagnostic.List) *ProfileSection {
	doc, err := store.Preferences()
	if err != nil {
		path := filepath.Join(store.Root(), userdata.PreferencesFile)
		diags.Add(diagnostic.FromError(userdata.PreferencesFile, path, err))
		return sectionError(path, err)
	}
	return sectionOf(doc)
}

func machineSection(res *Resolution) *MachineSection {
	section := &MachineSection{
		Name:                 res.Machine,
		Instance:             sectionOf(res.Instance.Doc),
		ContainerStack:       res.Instance.Containers(),
		LeafDefinition:       res.Leaf,
		InheritanceChain:     []ChainEntry{},
		ChainComplete:        res.Chain.Complete(),
		DetectedManufacturer: res.Manufacturer,
		DefinitionChanges:    sectionOf(res.Changes),
		EffectiveSettings:    res.Settings,
		QualityDirectories:   res.QualityDirs,
	}
	for _, doc := range res.Chain.Documents {
		section.InheritanceChain = append(section.InheritanceChain, ChainEntry{
			Name:        doc.Name,
			DisplayName: doc.DisplayName,
			File:        doc.Path,
		})
	}
	if section.QualityDirectories == nil {
		section.QualityDirectories = []string{}
	}
	return section
}

func extruderSections(extruders []userdata.Extruder) map[string]*ProfileSection {
	out := make(map[string]*ProfileSection, len(extruders))
	for _, extruder := range extruders {
		key := "extruder_" + strings.TrimSpace(extruder.Position)
		out[key] = sectionOf(extruder.Doc)
		if extruder.Settings != nil {
			out[key+"_settings"] = sectionOf(extruder.Settings)
		}
	}
	return out
}
