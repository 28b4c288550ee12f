package manifest

import (
	"encoding/json"
	"regexp"
	"strings"
)

// scriptTools are tool names detected inside package.json scripts.
// A tool referenced only from scripts is still part of the stack even
// when it is not a declared dependency.
var scriptTools = []string{
	"webpack", "vite", "rollup", "jest", "mocha", "cypress", "eslint",
	"prettier", "typescript", "babel", "postcss", "tailwindcss",
}

// leadingVersion extracts the numeric part of an npm version range,
// e.g. "^18.2.0" -> "18.2.0".
var leadingVersion = regexp.MustCompile(`\d.*$`)

type packageJSON struct {
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
	Scripts          map[string]string `json:"scripts"`
}

// parsePackageJSON reads direct, development and peer dependency
// sections plus tool names referenced from the scripts section.
// Invalid JSON yields no entries.
func parsePackageJSON(content, source string) []Entry {
	var pkg packageJSON
	if err := json.Unmarshal([]byte(content), &pkg); err != nil {
		return nil
	}

	var entries []Entry
	for _, deps := range []map[string]string{pkg.Dependencies, pkg.DevDependencies, pkg.PeerDependencies} {
		for _, name := range sortedKeys(deps) {
			spec := deps[name]
			entry := Entry{Name: strings.ToLower(name), Source: source}
			if spec != "" && spec != "*" {
				entry.Version = leadingVersion.FindString(spec)
			}
			entries = append(entries, entry)
		}
	}

	if len(pkg.Scripts) > 0 {
		var joined strings.Builder
		for _, cmd := range pkg.Scripts {
			joined.WriteString(strings.ToLower(cmd))
			joined.WriteByte(' ')
		}
		scriptText := joined.String()
		for _, tool := range scriptTools {
			if strings.Contains(scriptText, tool) {
				entries = append(entries, Entry{Name: tool, Source: source})
			}
		}
	}

	return entries
}
