// Package manifest discovers dependency-manifest files in a repository
// tree and extracts declared package names and versions from them.
//
// Parsers are deliberately forgiving: a malformed file yields whatever
// entries can be recovered instead of failing the file.
package manifest

import (
	"io/fs"
	"path/filepath"
	"sort"
)

// skipDirs are directories never scanned for manifests. They contain
// vendored or generated trees whose manifests describe third-party
// code, not the project.
var skipDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	".idea":        true,
	".vscode":      true,
	".cache":       true,
	"dist":         true,
	"build":        true,
	".next":        true,
	"target":       true,
}

// Discover walks the repository tree at root and returns all
// recognized manifest files, sorted by path for determinism.
// Walk errors on individual entries are skipped, not fatal.
func Discover(root string) []File {
	var files []File

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		kind, ok := kindByFilename[d.Name()]
		if !ok {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		files = append(files, File{Path: rel, Kind: kind})
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}
