package profile_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"curaextract/internal/profile"
)

const settingsProfile = `[general]
version = 4
name = Ender-3 Pro_settings
definition = creality_ender3pro

[metadata]
type = definition_changes
setting_version = 22

[values]
Machine_Start_GCode = G28 ; home all
	G1 Z15.0 F6000
machine_end_gcode = M104 S0
`

func TestParseReadsSectionsAndMultilineValues(t *testing.T) {
	doc, err := profile.Parse("/data/definition_changes/Ender-3+Pro_settings.inst.cfg", []byte(settingsProfile))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Name() != "Ender-3 Pro_settings" {
		t.Fatalf("unexpected name %q", doc.Name())
	}
	if got := doc.Metadata()["type"]; got != "definition_changes" {
		t.Fatalf("unexpected metadata type %q", got)
	}

	start, ok := doc.Get("values", "machine_start_gcode")
	if !ok {
		t.Fatalf("expected case-insensitive key lookup, values=%v", doc.Values())
	}
	if want := "G28 ; home all\nG1 Z15.0 F6000"; start != want {
		t.Fatalf("unexpected start gcode: got %q want %q", start, want)
	}
	if doc.Values()["machine_end_gcode"] != "M104 S0" {
		t.Fatalf("unexpected end gcode %q", doc.Values()["machine_end_gcode"])
	}
	if got := strings.Join(doc.SectionNames(), ","); got != "general,metadata,values" {
		t.Fatalf("unexpected section order %q", got)
	}
}

func TestParseContinuationLinesMatchSlicerReader(t *testing.T) {
	body := "[values]\n" +
		"machine_start_gcode = G28 ;Home\n" +
		"\t; comment line\n" +
		"\tG1 Z15\n" +
		"\t\n" +
		"\tM117 after blank\n" +
		"quoted = \"abc\"\n" +
		"single = 'x'\n" +
		"trailing = M84\n" +
		"\t  \n" +
		"path = C:\\gcode\\\n"
	doc, err := profile.Parse("/x.inst.cfg", []byte(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cases := map[string]string{
		"machine_start_gcode": "G28 ;Home\nG1 Z15\n\nM117 after blank",
		"quoted":              `"abc"`,
		"single":              `'x'`,
		"trailing":            "M84",
		"path":                `C:\gcode\`,
	}
	for key, want := range cases {
		got, ok := doc.Get("values", key)
		if !ok {
			t.Errorf("missing key %q", key)
			continue
		}
		if got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestNameFallsBackToStem(t *testing.T) {
	doc, err := profile.Parse("/q/creality_global_standard.inst.cfg", []byte("[metadata]\nquality_type = standard\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Name() != "creality_global_standard" {
		t.Fatalf("unexpected fallback name %q", doc.Name())
	}
	if doc.Section("missing") != nil {
		t.Fatal("missing sections must be nil")
	}
}

func TestStemOf(t *testing.T) {
	cases := map[string]string{
		"/m/My%20Printer.global.cfg":        "My%20Printer",
		"/e/custom_extruder_1.extruder.cfg": "custom_extruder_1",
		"cura.cfg":                          "cura",
		"notes.txt":                         "notes",
	}
	for path, want := range cases {
		if got := profile.StemOf(path); got != want {
			t.Errorf("StemOf(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := profile.Load(filepath.Join(dir, "absent.inst.cfg")); !errors.Is(err, profile.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	broken := filepath.Join(dir, "broken.inst.cfg")
	if err := os.WriteFile(broken, []byte("[general\nname = x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := profile.Load(broken); !errors.Is(err, profile.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}
