// Package plan locates progress-plan documents in a repository and
// extracts structured tasks from them.
package plan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound indicates no plan document exists in the repository.
// This is a normal outcome, not a failure: a project without a plan
// simply yields zero tasks.
var ErrNotFound = errors.New("plan document not found")

// fallbackLocations are tried in order when the preferred path is
// absent. README.md is only accepted when it contains a plan-like
// section.
var fallbackLocations = []string{
	"docs/plan.md",
	"plan.md",
	"README.md",
}

// Locate finds the plan document under root.
//
// Search order: the preferred path if set and present, then
// docs/plan.md, plan.md, and finally a plan-like section inside
// README.md. The returned path is relative to root.
func Locate(root, preferred string) (string, error) {
	if preferred != "" {
		rel, err := safeRel(root, preferred)
		if err != nil {
			return "", fmt.Errorf("invalid plan path %q: %w", preferred, err)
		}
		if fileExists(filepath.Join(root, rel)) {
			return rel, nil
		}
	}

	for _, loc := range fallbackLocations {
		full := filepath.Join(root, loc)
		if !fileExists(full) {
			continue
		}
		if filepath.Base(loc) == "README.md" {
			content, err := os.ReadFile(full)
			if err != nil || !hasPlanSection(string(content)) {
				continue
			}
		}
		return loc, nil
	}

	return "", ErrNotFound
}

// hasPlanSection reports whether the document contains a heading
// mentioning "plan" followed by at least one checkbox task line before
// the next heading of the same or higher level.
//
// This is best-effort detection; a README that lists tasks under an
// unrelated heading is not treated as a plan.
func hasPlanSection(content string) bool {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		level, text, ok := parseHeading(line)
		if !ok || !strings.Contains(strings.ToLower(text), "plan") {
			continue
		}
		for _, next := range lines[i+1:] {
			if nextLevel, _, isHeading := parseHeading(next); isHeading && nextLevel <= level {
				break
			}
			if _, _, isTask := parseCheckboxLine(next); isTask {
				return true
			}
		}
	}
	return false
}

// parseHeading splits an ATX heading into level and text.
func parseHeading(line string) (level int, text string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return 0, "", false
	}
	level = 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level > 6 || level == len(trimmed) || trimmed[level] != ' ' {
		return 0, "", false
	}
	return level, strings.TrimSpace(trimmed[level:]), true
}

// safeRel normalizes path against root and rejects escapes above it.
func safeRel(root, path string) (string, error) {
	cleaned := filepath.Clean(path)
	if filepath.IsAbs(cleaned) {
		rel, err := filepath.Rel(root, cleaned)
		if err != nil {
			return "", err
		}
		cleaned = rel
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", errors.New("path escapes repository root")
	}
	return cleaned, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
