package manifest

import (
	"regexp"
	"strings"
)

// requirementLine matches "name", optional extras, and an optional
// version specifier, e.g. "django>=4.2", "uvicorn[standard]==0.29",
// "numpy". Anything else on the line disqualifies it.
var requirementLine = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)(?:\[[^\]]*\])?\s*([=<>~!][^#]*)?$`)

// versionSpec strips comparison operators off a requirement specifier.
var versionSpec = regexp.MustCompile(`^[=<>~!]+\s*([^\s,;]+)`)

// parseRequirements handles line-oriented dependency lists
// (requirements.txt). One entry per non-empty line after comments,
// whole-line or trailing, are stripped; lines that do not look like a
// requirement are skipped.
func parseRequirements(content, source string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(content, "\n") {
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// pip options and includes are not dependencies
		if strings.HasPrefix(line, "-") {
			continue
		}
		m := requirementLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		entry := Entry{Name: strings.ToLower(m[1]), Source: source}
		if v := versionSpec.FindStringSubmatch(strings.TrimSpace(m[2])); v != nil {
			entry.Version = v[1]
		}
		entries = append(entries, entry)
	}
	return entries
}
