package quality_test

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"curaextract/internal/diagnostic"
	"curaextract/internal/logging"
	"curaextract/internal/quality"
)

func mkdirs(t *testing.T, base string, dirs ...string) {
	t.Helper()
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(base, filepath.FromSlash(dir)), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
}

func writeFile(t *testing.T, base, rel, body string) string {
	t.Helper()
	path := filepath.Join(base, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return path
}

func preset(name, qualityType string) string {
	body := "[general]\nversion = 4\nname = " + name + "\n\n[metadata]\ntype = quality\n"
	if qualityType != "" {
		body += "quality_type = " + qualityType + "\n"
	}
	return body + "\n[values]\nlayer_height = 0.2\n"
}

func TestLocateDirectoriesOrder(t *testing.T) {
	base := t.TempDir()
	mkdirs(t, base, "acme/special", "acme/base")
	locator := quality.NewLocator(base, logging.NewNop())

	got := locator.LocateDirectories("acme", "acme/special")
	want := []string{
		filepath.Join(base, "acme", "special"),
		filepath.Join(base, "acme"),
		filepath.Join(base, "acme", "base"),
		base,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected directories:\n got %v\nwant %v", got, want)
	}
}

func TestLocateDirectoriesDeduplicates(t *testing.T) {
	base := t.TempDir()
	mkdirs(t, base, "acme/base")
	locator := quality.NewLocator(base, logging.NewNop())

	got := locator.LocateDirectories("acme", "/acme/")
	want := []string{filepath.Join(base, "acme"), filepath.Join(base, "acme", "base"), base}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected directories:\n got %v\nwant %v", got, want)
	}
}

func TestLocateDirectoriesSkipsMissing(t *testing.T) {
	base := t.TempDir()
	locator := quality.NewLocator(base, logging.NewNop())

	if got := locator.LocateDirectories("ghost", "ghost/special"); !reflect.DeepEqual(got, []string{base}) {
		t.Fatalf("expected only generic root, got %v", got)
	}
	if got := locator.LocateDirectories("", ""); !reflect.DeepEqual(got, []string{base}) {
		t.Fatalf("expected only generic root without tag, got %v", got)
	}

	missing := quality.NewLocator(filepath.Join(base, "nope"), logging.NewNop())
	if got := missing.LocateDirectories("", ""); len(got) != 0 {
		t.Fatalf("expected no directories for missing root, got %v", got)
	}
}

func TestScanBuiltinPrecedence(t *testing.T) {
	base := t.TempDir()
	vendorNormal := writeFile(t, base, "acme/acme_global_normal.inst.cfg", preset("Acme Normal", "normal"))
	baseNormal := writeFile(t, base, "acme/base/acme_base_global_normal.inst.cfg", preset("Acme Base Normal", "normal"))
	writeFile(t, base, "acme/base/acme_base_global_draft.inst.cfg", preset("Acme Draft", "draft"))
	genericNormal := writeFile(t, base, "generic_global_normal.inst.cfg", preset("Normal", "normal"))
	writeFile(t, base, "generic_global_fine.inst.cfg", preset("Fine", "fine"))
	writeFile(t, base, "generic_global_misc.inst.cfg", preset("Misc", ""))
	writeFile(t, base, "generic_extruder_normal.inst.cfg", preset("Extruder", "normal"))
	broken := writeFile(t, base, "broken_global.inst.cfg", "[values\nlayer_height = 0.1\n")

	locator := quality.NewLocator(base, logging.NewNop())
	result := locator.ScanBuiltin(locator.LocateDirectories("acme", ""))

	if got, want := result.Types(), []string{"draft", "fine", "normal", quality.UnknownType}; !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected quality types %v, want %v", got, want)
	}
	normal := result.Profiles["normal"]
	if normal.File != vendorNormal || normal.Name != "Acme Normal" {
		t.Fatalf("expected vendor profile to win, got %+v", normal)
	}
	if normal.Settings["layer_height"] != "0.2" {
		t.Fatalf("unexpected settings %v", normal.Settings)
	}

	var ambiguous []string
	var malformed []string
	for _, d := range result.Diagnostics {
		switch d.Kind {
		case diagnostic.KindAmbiguous:
			ambiguous = append(ambiguous, d.Path)
		case diagnostic.KindMalformed:
			malformed = append(malformed, d.Path)
		}
	}
	sort.Strings(ambiguous)
	wantAmbiguous := []string{baseNormal, genericNormal}
	sort.Strings(wantAmbiguous)
	if !reflect.DeepEqual(ambiguous, wantAmbiguous) {
		t.Fatalf("unexpected ambiguous diagnostics %v, want %v", ambiguous, wantAmbiguous)
	}
	if !reflect.DeepEqual(malformed, []string{broken}) {
		t.Fatalf("unexpected malformed diagnostics %v", malformed)
	}
}

func TestPrecedes(t *testing.T) {
	a := quality.Candidate{Rank: 0, Depth: 2, Path: "/z"}
	b := quality.Candidate{Rank: 1, Depth: 0, Path: "/a"}
	if !quality.Precedes(a, b) || quality.Precedes(b, a) {
		t.Fatal("rank must dominate")
	}
	c := quality.Candidate{Rank: 0, Depth: 0, Path: "/z"}
	if !quality.Precedes(c, a) {
		t.Fatal("shallower file must win within a directory")
	}
	d := quality.Candidate{Rank: 0, Depth: 0, Path: "/a"}
	if !quality.Precedes(d, c) {
		t.Fatal("path must break remaining ties")
	}
}

func TestNamesListsDistinctPresets(t *testing.T) {
	base := t.TempDir()
	writeFile(t, base, "a_global_normal.inst.cfg", preset("Normal", "normal"))
	writeFile(t, base, "vendor/b_global_normal.inst.cfg", preset("Normal", "normal"))
	writeFile(t, base, "vendor/c_global_fine.inst.cfg", preset("Fine", "fine"))

	got := quality.NewLocator(base, logging.NewNop()).Names()
	if !reflect.DeepEqual(got, []string{"Normal", "Fine"}) {
		t.Fatalf("unexpected names %v", got)
	}
}

func TestScanCustomGroupsByName(t *testing.T) {
	userData := t.TempDir()
	global := writeFile(t, userData, "quality_changes/my_fast.inst.cfg",
		"[general]\nname = My Fast\n\n[values]\nlayer_height = 0.28\nspeed_print = 80\n")
	extruder := writeFile(t, userData, "quality_changes/my_fast_extruder.inst.cfg",
		"[general]\nname = My Fast\n\n[values]\nspeed_print = 90\n")
	writeFile(t, userData, "quality_changes/broken.inst.cfg", "[general\n")

	result := quality.ScanCustom(userData)
	fast := result.Profiles["My Fast"]
	if fast == nil {
		t.Fatalf("expected grouped profile, got %v", result.Profiles)
	}
	if !reflect.DeepEqual(fast.Files, []string{global, extruder}) {
		t.Fatalf("unexpected files %v", fast.Files)
	}
	if fast.Settings["speed_print"] != "90" || fast.Settings["layer_height"] != "0.28" {
		t.Fatalf("unexpected merged settings %v", fast.Settings)
	}
	if len(result.Diagnostics) != 1 || result.Diagnostics[0].Kind != diagnostic.KindMalformed {
		t.Fatalf("expected one malformed diagnostic, got %v", result.Diagnostics)
	}
	if got := quality.CustomNames(userData); !reflect.DeepEqual(got, []string{"My Fast"}) {
		t.Fatalf("unexpected custom names %v", got)
	}
}
