package extract_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"curaextract/internal/config"
	"curaextract/internal/diagnostic"
	"curaextract/internal/extract"
	"curaextract/internal/logging"
	"curaextract/internal/settings"
	"curaextract/internal/startup"
	"curaextract/internal/testsupport"
	"curaextract/internal/userdata"
)

func newExtractor(t *testing.T, cfg *config.Config) *extract.Extractor {
	t.Helper()
	extractor, err := extract.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("extract.New: %v", err)
	}
	return extractor
}

func allSections() config.Extraction {
	return config.Default().Extraction
}

func TestNewRejectsMissingRoots(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutUserData())
	if _, err := extract.New(cfg, logging.NewNop()); !errors.Is(err, config.ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured, got %v", err)
	}
}

func TestResolveMachine(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.SeedFixture(t, cfg)
	extractor := newExtractor(t, cfg)

	res, err := extractor.ResolveMachine(testsupport.FixtureMachine)
	if err != nil {
		t.Fatalf("ResolveMachine: %v", err)
	}

	if got, want := res.Chain.Names(), []string{testsupport.FixtureLeaf, "creality_base", "fdmprinter"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected chain %v", got)
	}
	if res.Manufacturer != testsupport.FixtureVendorTag {
		t.Fatalf("unexpected manufacturer %q", res.Manufacturer)
	}

	nozzle := res.Settings["machine_nozzle_size"]
	if nozzle.Attributes[settings.EffectiveValue] != testsupport.FixtureNozzleSize {
		t.Fatalf("unexpected nozzle effective value %v", nozzle.Attributes)
	}
	if want := []string{"fdmprinter", settings.OverrideSource}; !reflect.DeepEqual(nozzle.Provenance, want) {
		t.Fatalf("unexpected nozzle provenance %v", nozzle.Provenance)
	}
	width := res.Settings["machine_width"]
	if width.Attributes["default_value"] != json.Number("220") || width.PatchedBy != testsupport.FixtureLeaf {
		t.Fatalf("unexpected machine_width %+v", width)
	}

	if res.Startup.Start.Text != testsupport.FixtureStartGcode || res.Startup.Start.Source.Kind != startup.SourceOverride {
		t.Fatalf("unexpected start sequence %+v", res.Startup.Start)
	}
	if res.Startup.End.Text != testsupport.FixtureEndGcode || res.Startup.End.Source.Name != "creality_base" {
		t.Fatalf("unexpected end sequence %+v", res.Startup.End)
	}

	wantDirs := []string{
		filepath.Join(cfg.QualityDir(), "creality"),
		filepath.Join(cfg.QualityDir(), "creality", "base"),
		cfg.QualityDir(),
	}
	if !reflect.DeepEqual(res.QualityDirs, wantDirs) {
		t.Fatalf("unexpected quality dirs %v", res.QualityDirs)
	}
	if len(res.Diagnostics) != 0 {
		t.Fatalf("expected no diagnostics, got %v", res.Diagnostics)
	}
}

func TestResolveMachineHonorsOverrides(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithManufacturer("acme"), testsupport.WithQualitySubdir("creality/base"))
	testsupport.SeedFixture(t, cfg)
	extractor := newExtractor(t, cfg)

	res, err := extractor.ResolveMachine(testsupport.FixtureMachine)
	if err != nil {
		t.Fatalf("ResolveMachine: %v", err)
	}
	if res.Manufacturer != "acme" {
		t.Fatalf("override must win, got %q", res.Manufacturer)
	}
	want := []string{filepath.Join(cfg.QualityDir(), "creality", "base"), cfg.QualityDir()}
	if !reflect.DeepEqual(res.QualityDirs, want) {
		t.Fatalf("unexpected quality dirs %v", res.QualityDirs)
	}
}

func TestResolveMachineKeepsManufacturerOverrideCase(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithManufacturer("Acme_Special"))
	testsupport.SeedFixture(t, cfg)
	vendorDir := filepath.Join(cfg.QualityDir(), "Acme_Special")
	if err := os.MkdirAll(vendorDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	extractor := newExtractor(t, cfg)

	res, err := extractor.ResolveMachine(testsupport.FixtureMachine)
	if err != nil {
		t.Fatalf("ResolveMachine: %v", err)
	}
	if res.Manufacturer != "Acme_Special" {
		t.Fatalf("override must be returned as given, got %q", res.Manufacturer)
	}
	want := []string{vendorDir, cfg.QualityDir()}
	if !reflect.DeepEqual(res.QualityDirs, want) {
		t.Fatalf("unexpected quality dirs %v", res.QualityDirs)
	}
}

func TestResolveMachineUnknown(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.SeedFixture(t, cfg)
	extractor := newExtractor(t, cfg)

	if _, err := extractor.ResolveMachine("Ghost"); !errors.Is(err, userdata.ErrMachineNotFound) {
		t.Fatalf("expected ErrMachineNotFound, got %v", err)
	}
}

func TestResolveMachineReportsTruncationAndCycles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.SeedFixture(t, cfg)
	testsupport.WriteDefinition(t, cfg, "orphan_leaf", `{"name": "Orphan", "inherits": "missing_base"}`)
	testsupport.WriteDefinition(t, cfg, "loop_a", `{"inherits": "loop_b"}`)
	testsupport.WriteDefinition(t, cfg, "loop_b", `{"inherits": "loop_a"}`)
	testsupport.WriteMachine(t, cfg, "Orphan", "orphan_leaf", "")
	testsupport.WriteMachine(t, cfg, "Loop", "loop_a", "")
	extractor := newExtractor(t, cfg)

	orphan, err := extractor.ResolveMachine("Orphan")
	if err != nil {
		t.Fatalf("ResolveMachine Orphan: %v", err)
	}
	if orphan.Chain.Len() != 1 {
		t.Fatalf("expected truncated chain, got %v", orphan.Chain.Names())
	}
	if len(orphan.Diagnostics) != 1 || orphan.Diagnostics[0].Kind != diagnostic.KindNotFound || orphan.Diagnostics[0].Subject != "missing_base" {
		t.Fatalf("unexpected diagnostics %v", orphan.Diagnostics)
	}

	loop, err := extractor.ResolveMachine("Loop")
	if err != nil {
		t.Fatalf("ResolveMachine Loop: %v", err)
	}
	if loop.Chain.Len() != 2 || len(loop.Diagnostics) != 1 || loop.Diagnostics[0].Kind != diagnostic.KindCycle {
		t.Fatalf("expected cycle diagnostic, got chain %v diagnostics %v", loop.Chain.Names(), loop.Diagnostics)
	}
}

func TestResolveMachineSharesChainCache(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.SeedFixture(t, cfg)
	extractor := newExtractor(t, cfg)

	results := make([]*extract.Resolution, 4)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := extractor.ResolveMachine(testsupport.FixtureMachine)
			if err != nil {
				t.Errorf("ResolveMachine: %v", err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()
	for _, res := range results {
		if res == nil || res.Chain != results[0].Chain {
			t.Fatal("expected every resolution to reuse the cached chain")
		}
	}
	if extractor.Chain(testsupport.FixtureLeaf) != results[0].Chain {
		t.Fatal("Chain must return the cached chain")
	}
}

func TestExtractReport(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.SeedFixture(t, cfg)
	extractor := newExtractor(t, cfg)

	report, err := extractor.Extract(testsupport.FixtureMachine, allSections())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if report.Metadata.RunID == "" || report.Metadata.CuraVersion != "5.6.0" {
		t.Fatalf("unexpected metadata %+v", report.Metadata)
	}
	if report.Preferences == nil || report.Preferences.Error != "" {
		t.Fatalf("unexpected preferences %+v", report.Preferences)
	}
	if report.Machine == nil || report.Machine.DetectedManufacturer != "creality" || !report.Machine.ChainComplete {
		t.Fatalf("unexpected machine section %+v", report.Machine)
	}
	if report.Machine.DefinitionChanges == nil || report.Machine.ContainerStack["7"] != testsupport.FixtureLeaf {
		t.Fatalf("expected instance and definition changes, got %+v", report.Machine)
	}
	if report.Startup == nil || report.Startup.End.Text != testsupport.FixtureEndGcode {
		t.Fatalf("unexpected startup section %+v", report.Startup)
	}
	if _, ok := report.Extruders["extruder_0_settings"]; !ok {
		t.Fatalf("expected extruder settings, got %v", report.Extruders)
	}

	standard := report.QualityBuiltin["standard"]
	if standard == nil || standard.Name != "Standard Quality" {
		t.Fatalf("expected vendor standard quality, got %+v", standard)
	}
	if report.QualityCustom[testsupport.FixtureCustomName] == nil {
		t.Fatalf("expected custom profile, got %v", report.QualityCustom)
	}
	if counts := diagnostic.CountByKind(report.Diagnostics); counts[diagnostic.KindAmbiguous] != 1 || len(report.Diagnostics) != 1 {
		t.Fatalf("expected one ambiguous diagnostic, got %v", report.Diagnostics)
	}

	if report.Summary.Inheritance != "creality_ender3pro → creality_base → fdmprinter" {
		t.Fatalf("unexpected inheritance summary %q", report.Summary.Inheritance)
	}
	if report.Summary.StartSequenceLines != 2 || report.Summary.EndSequenceLines != 3 {
		t.Fatalf("unexpected line counts %+v", report.Summary)
	}
	if got := report.Summary.BuiltinQualities; !reflect.DeepEqual(got, []string{"draft", "standard"}) {
		t.Fatalf("unexpected builtin qualities %v", got)
	}

	nozzle := report.KeySettings["machine_nozzle_size"]
	if nozzle.Value != "0.6" || nozzle.Source != extract.CustomizationSource {
		t.Fatalf("unexpected nozzle key setting %+v", nozzle)
	}
	layer := report.KeySettings["layer_height"]
	if layer.Value != json.Number("0.2") || layer.Source != "creality_base" {
		t.Fatalf("unexpected layer_height key setting %+v", layer)
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	machine := decoded["machine"].(map[string]any)
	effective := machine["effective_settings"].(map[string]any)
	width := effective["machine_width"].(map[string]any)
	if width["patched_by"] != testsupport.FixtureLeaf || width["default_value"] != float64(220) {
		t.Fatalf("unexpected serialized descriptor %v", width)
	}
}

func TestExtractUnknownMachineKeepsOtherSections(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.SeedFixture(t, cfg)
	extractor := newExtractor(t, cfg)

	report, err := extractor.Extract("Ghost", allSections())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if report.Resolved != nil || report.ResolveError == "" {
		t.Fatalf("expected unresolved report, got %q", report.ResolveError)
	}
	if report.Machine == nil || report.Machine.Error == "" {
		t.Fatalf("expected machine error marker, got %+v", report.Machine)
	}
	if report.Startup != nil {
		t.Fatal("startup section requires a resolved machine")
	}
	if report.QualityBuiltin["standard"] == nil || report.QualityBuiltin["standard"].Name != "Generic Standard" {
		t.Fatalf("expected generic quality fallback, got %+v", report.QualityBuiltin["standard"])
	}
	if counts := diagnostic.CountByKind(report.Diagnostics); counts[diagnostic.KindNotFound] != 1 {
		t.Fatalf("expected not-found diagnostic, got %v", report.Diagnostics)
	}
}

func TestExtractHonorsSectionToggles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.SeedFixture(t, cfg)
	extractor := newExtractor(t, cfg)

	report, err := extractor.Extract(testsupport.FixtureMachine, config.Extraction{StartupSequences: true})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if report.Preferences != nil || report.Machine != nil || report.QualityBuiltin != nil || report.Extruders != nil {
		t.Fatalf("disabled sections must be omitted: %+v", report)
	}
	if report.Startup == nil {
		t.Fatal("expected startup section")
	}
	if report.Summary.Manufacturer != "creality" {
		t.Fatal("summary is produced regardless of toggles")
	}
}

func TestDiscoverAndValidatePaths(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	extractor := newExtractor(t, cfg)

	if problems := extractor.ValidatePaths(); len(problems) != 2 {
		t.Fatalf("expected two problems for empty tree, got %v", problems)
	}

	testsupport.SeedFixture(t, cfg)
	if problems := extractor.ValidatePaths(); len(problems) != 0 {
		t.Fatalf("expected seeded tree to validate, got %v", problems)
	}

	if got := extractor.ActiveMachine(); got != testsupport.FixtureMachine {
		t.Fatalf("unexpected active machine %q", got)
	}

	found := extractor.Discover()
	if !reflect.DeepEqual(found.Machines, []string{testsupport.FixtureMachine}) {
		t.Fatalf("unexpected machines %v", found.Machines)
	}
	if !reflect.DeepEqual(found.CustomProfiles, []string{testsupport.FixtureCustomName}) {
		t.Fatalf("unexpected custom profiles %v", found.CustomProfiles)
	}
	if want := []string{"Draft Quality", "Standard Quality", "Generic Standard"}; !reflect.DeepEqual(found.BuiltinQualities, want) {
		t.Fatalf("unexpected builtin qualities %v", found.BuiltinQualities)
	}
}
