package manifest

import (
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

// pepName extracts the package name from a PEP 508 requirement string,
// e.g. "fastapi>=0.110" -> "fastapi", "uvicorn[standard]==0.29" ->
// "uvicorn".
var pepName = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)`)

type pyProject struct {
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	BuildSystem struct {
		Requires []string `toml:"requires"`
	} `toml:"build-system"`
}

// parsePyProject reads [project.dependencies],
// [project.optional-dependencies] and [build-system.requires].
// Invalid TOML yields no entries.
func parsePyProject(content, source string) []Entry {
	var doc pyProject
	if _, err := toml.Decode(content, &doc); err != nil {
		return nil
	}

	var entries []Entry
	addReq := func(req string) {
		req = strings.TrimSpace(req)
		m := pepName.FindStringSubmatch(req)
		if m == nil {
			return
		}
		entry := Entry{Name: strings.ToLower(m[1]), Source: source}
		rest := strings.TrimSpace(strings.TrimPrefix(req, m[1]))
		// extras like [standard] sit between the name and the version
		if i := strings.Index(rest, "]"); strings.HasPrefix(rest, "[") && i >= 0 {
			rest = strings.TrimSpace(rest[i+1:])
		}
		if v := versionSpec.FindStringSubmatch(rest); v != nil {
			entry.Version = v[1]
		}
		entries = append(entries, entry)
	}

	for _, req := range doc.Project.Dependencies {
		addReq(req)
	}
	for _, group := range sortedKeys(doc.Project.OptionalDependencies) {
		for _, req := range doc.Project.OptionalDependencies[group] {
			addReq(req)
		}
	}
	for _, req := range doc.BuildSystem.Requires {
		addReq(req)
	}
	return entries
}

type cargoManifest struct {
	Dependencies    map[string]interface{} `toml:"dependencies"`
	DevDependencies map[string]interface{} `toml:"dev-dependencies"`
}

// parseCargo reads [dependencies] and [dev-dependencies]. Dependency
// values are either a bare version string or a table with a "version"
// key; anything else still yields the name with no version.
func parseCargo(content, source string) []Entry {
	var doc cargoManifest
	if _, err := toml.Decode(content, &doc); err != nil {
		return nil
	}

	var entries []Entry
	for _, deps := range []map[string]interface{}{doc.Dependencies, doc.DevDependencies} {
		for _, name := range sortedKeys(deps) {
			entry := Entry{Name: strings.ToLower(name), Source: source}
			switch spec := deps[name].(type) {
			case string:
				entry.Version = spec
			case map[string]interface{}:
				if v, ok := spec["version"].(string); ok {
					entry.Version = v
				}
			}
			entries = append(entries, entry)
		}
	}
	return entries
}
