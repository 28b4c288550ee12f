package manifest

import "strings"

// parseGoMod extracts module requirements from both single-line and
// block-style require directives. Entry names are the lowercased final
// path segment so "github.com/jmoiron/sqlx" surfaces as "sqlx".
func parseGoMod(content, source string) []Entry {
	var entries []Entry
	inBlock := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if i := strings.Index(line, "//"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}
		switch {
		case line == "require (":
			inBlock = true
			continue
		case inBlock && line == ")":
			inBlock = false
			continue
		}

		var fields []string
		if inBlock {
			fields = strings.Fields(line)
		} else if rest, ok := strings.CutPrefix(line, "require "); ok {
			fields = strings.Fields(rest)
		} else {
			continue
		}
		if len(fields) < 2 {
			continue
		}

		path, version := fields[0], fields[1]
		segs := strings.Split(path, "/")
		name := strings.ToLower(segs[len(segs)-1])
		if name == "" {
			continue
		}
		entries = append(entries, Entry{Name: name, Version: version, Source: source})
	}
	return entries
}
