package definition

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound reports that a referenced definition document is absent.
	ErrNotFound = errors.New("definition not found")
	// ErrMalformed reports that a definition exists but cannot be parsed.
	ErrMalformed = errors.New("definition malformed")
)

// FileSuffix is appended to a definition name to form its file name.
const FileSuffix = ".def.json"

// Reader loads definitions by name.
type Reader interface {
	Load(name string) (*Document, error)
}

// FileRepository reads definitions from one directory.
type FileRepository struct {
	dir string
}

// NewFileRepository returns a repository rooted at dir.
func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{dir: dir}
}

// Dir returns the repository root.
func (r *FileRepository) Dir() string {
	return r.dir
}

// PathFor returns the file path a definition name maps to.
func (r *FileRepository) PathFor(name string) string {
	return filepath.Join(r.dir, name+FileSuffix)
}

// Load reads and parses the named definition.
func (r *FileRepository) Load(name string) (*Document, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: invalid name %q", ErrNotFound, name)
	}
	path := r.PathFor(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read definition %s: %w", path, err)
	}
	return Parse(name, path, data)
}

// Exists reports whether the named definition file is present.
func (r *FileRepository) Exists(name string) bool {
	info, err := os.Stat(r.PathFor(name))
	return err == nil && !info.IsDir()
}
