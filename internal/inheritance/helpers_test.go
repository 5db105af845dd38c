package inheritance_test

import (
	"os"
	"path/filepath"
	"testing"

	"curaextract/internal/definition"
)

func writeDefinition(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name+definition.FileSuffix)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
