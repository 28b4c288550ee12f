package manifest

import "strings"

// commandTools are tool invocations we recognize inside RUN
// instructions. Detection is a word match, not a shell parse.
var commandTools = map[string]struct{}{
	"apt-get": {},
	"yum":     {},
	"dnf":     {},
	"pip":     {},
	"npm":     {},
	"yarn":    {},
	"cargo":   {},
	"go":      {},
	"git":     {},
	"curl":    {},
	"wget":    {},
	"tar":     {},
	"unzip":   {},
	"make":    {},
	"cmake":   {},
}

// parseDockerfile reports base images from FROM instructions and tools
// seen in RUN instructions. Image names drop the registry path and tag,
// so "FROM ghcr.io/acme/python:3.12-slim AS build" yields "python".
// Container entries never carry a version; the tag is a deployment
// detail, not a declared dependency version.
func parseDockerfile(content, source string) []Entry {
	var entries []Entry
	seenTools := map[string]struct{}{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch strings.ToUpper(fields[0]) {
		case "FROM":
			if entry, ok := baseImageEntry(fields[1:], source); ok {
				entries = append(entries, entry)
			}
		case "RUN":
			for _, f := range fields[1:] {
				tool := strings.ToLower(f)
				if _, ok := commandTools[tool]; !ok {
					continue
				}
				if _, dup := seenTools[tool]; dup {
					continue
				}
				seenTools[tool] = struct{}{}
				entries = append(entries, Entry{Name: tool, Source: source})
			}
		}
	}
	return entries
}

func baseImageEntry(args []string, source string) (Entry, bool) {
	var image string
	for _, a := range args {
		if strings.HasPrefix(a, "--") {
			continue
		}
		image = a
		break
	}
	if image == "" || strings.EqualFold(image, "scratch") {
		return Entry{}, false
	}

	if i := strings.LastIndex(image, ":"); i >= 0 {
		image = image[:i]
	}
	segs := strings.Split(image, "/")
	name := strings.ToLower(segs[len(segs)-1])
	if name == "" {
		return Entry{}, false
	}
	return Entry{Name: name, Source: source}, true
}

// parseDockerCompose pulls service images from "image:" lines. The full
// YAML structure is irrelevant here, only the image references matter.
func parseDockerCompose(content, source string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, "image:")
		if !ok {
			continue
		}
		image := strings.Trim(strings.TrimSpace(rest), `"'`)
		if image == "" {
			continue
		}
		if entry, ok := baseImageEntry([]string{image}, source); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}
