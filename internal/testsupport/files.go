package testsupport

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"curaextract/internal/config"
)

// WriteFile writes body to path, creating parent directories.
func WriteFile(t testing.TB, path, body string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteDefinition writes <name>.def.json into the install definitions dir.
func WriteDefinition(t testing.TB, cfg *config.Config, name, body string) string {
	t.Helper()
	return WriteFile(t, filepath.Join(cfg.DefinitionsDir(), name+".def.json"), body)
}

// WriteQuality writes a quality preset relative to the generic quality root.
func WriteQuality(t testing.TB, cfg *config.Config, rel, body string) string {
	t.Helper()
	return WriteFile(t, filepath.Join(cfg.QualityDir(), filepath.FromSlash(rel)), body)
}

// WriteUserProfile writes a document relative to the user-data root.
func WriteUserProfile(t testing.TB, cfg *config.Config, rel, body string) string {
	t.Helper()
	return WriteFile(t, filepath.Join(cfg.Paths.UserDataDir, filepath.FromSlash(rel)), body)
}

// WriteMachine writes a machine instance with container 6 pointing at
// changes and container 7 at definition. The file name is URL-encoded the
// way the slicer stores it.
func WriteMachine(t testing.TB, cfg *config.Config, name, definition, changes string) string {
	t.Helper()
	body := "[general]\nversion = 5\nname = " + name + "\nid = " + name + "\n\n" +
		"[metadata]\ntype = machine\nsetting_version = 22\n\n" +
		"[containers]\n0 = empty_user_changes\n1 = empty_quality_changes\n2 = empty_intent\n" +
		"3 = empty_quality\n4 = empty_material\n5 = empty_variant\n" +
		"6 = " + changes + "\n7 = " + definition + "\n"
	return WriteUserProfile(t, cfg, "machine_instances/"+url.PathEscape(name)+".global.cfg", body)
}
