package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
	"strings"
)

// ArchiveSuffixes are the file name endings treated as package archives.
var ArchiveSuffixes = []string{".tgz", ".tar.gz", ".tar.zst", ".zip", ".whl", ".crate"}

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{
	".git":         true,
	".jj":          true,
	".pinlock":     true,
	"node_modules": true,
}

// Walker finds package archives on disk.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkArchives yields every package archive under root, in lexical order.
// Paths are prefixed with root, as filepath.WalkDir yields them.
func (w *Walker) WalkArchives(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && skippedDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if !IsArchive(d.Name()) {
				return nil
			}
			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			yield("", err)
		}
	}
}

// IsArchive reports whether name looks like a package archive.
func IsArchive(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range ArchiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
