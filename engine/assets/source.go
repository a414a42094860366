package assets

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing/fstest"

	"github.com/spaghettifunk/rainfrog/engine/core"
)

// Source resolves asset names to their bytes. Shader programs and textures
// read through a Source so they can be rebuilt from disk or from memory.
type Source interface {
	ReadFile(name string) ([]byte, error)
}

// DirSource reads assets relative to a root directory on disk.
type DirSource struct {
	root string
}

func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

func (s *DirSource) Root() string {
	return s.root
}

// Path returns the on-disk path of an asset name.
func (s *DirSource) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.root, name)
}

// Rel maps an on-disk path back to an asset name. ok is false when the path
// is outside the root.
func (s *DirSource) Rel(path string) (string, bool) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (s *DirSource) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, &core.AssetReadError{Path: name, Err: err}
	}
	return data, nil
}

// MemorySource serves assets from memory. Entries can be replaced between
// reads, which is how tests drive shader hot reload.
type MemorySource struct {
	files fstest.MapFS
}

func NewMemorySource(files map[string]string) *MemorySource {
	s := &MemorySource{files: fstest.MapFS{}}
	for name, content := range files {
		s.Set(name, []byte(content))
	}
	return s
}

func (s *MemorySource) Set(name string, data []byte) {
	s.files[name] = &fstest.MapFile{Data: data, Mode: 0o644}
}

func (s *MemorySource) Remove(name string) {
	delete(s.files, name)
}

func (s *MemorySource) ReadFile(name string) ([]byte, error) {
	data, err := fs.ReadFile(s.files, name)
	if err != nil {
		return nil, &core.AssetReadError{Path: name, Err: err}
	}
	return data, nil
}
