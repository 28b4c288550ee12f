package manifest

import (
	"path/filepath"
	"sort"
)

// Parse extracts dependency entries from one manifest file.
//
// The source recorded on each entry is the manifest's base filename.
// Parse never fails: unrecognized kinds and malformed content yield
// whatever entries could be recovered, possibly none.
func Parse(file File, content string) []Entry {
	source := filepath.Base(file.Path)
	switch file.Kind {
	case KindRequirements:
		return parseRequirements(content, source)
	case KindPackageJSON:
		return parsePackageJSON(content, source)
	case KindPyProject:
		return parsePyProject(content, source)
	case KindCargo:
		return parseCargo(content, source)
	case KindGoMod:
		return parseGoMod(content, source)
	case KindDockerfile:
		return parseDockerfile(content, source)
	case KindDockerCompose:
		return parseDockerCompose(content, source)
	}
	return nil
}

// sortedKeys returns map keys in sorted order so parser output is
// deterministic run to run.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
