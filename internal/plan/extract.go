package plan

import (
	"strings"
)

// checkboxStatus maps a checkbox marker character to a task status.
// Any marker outside this table does not produce a task.
var checkboxStatus = map[byte]TaskStatus{
	' ': StatusTodo,
	'x': StatusDone,
	'X': StatusDone,
	'~': StatusDoing,
	'!': StatusBlocked,
}

// tableStatusWords maps free-text status cells to task statuses.
// Matching is case-insensitive on the trimmed cell. Unrecognized
// values default to todo.
var tableStatusWords = map[string]TaskStatus{
	"done":        StatusDone,
	"completed":   StatusDone,
	"complete":    StatusDone,
	"finished":    StatusDone,
	"todo":        StatusTodo,
	"pending":     StatusTodo,
	"not started": StatusTodo,
	"doing":       StatusDoing,
	"in progress": StatusDoing,
	"working":     StatusDoing,
	"blocked":     StatusBlocked,
	"stuck":       StatusBlocked,
	"waiting":     StatusBlocked,
	"on hold":     StatusBlocked,
}

// Header keywords used to detect task tables. A table qualifies only
// when both a title-like and a status-like column are present.
var (
	titleColumnWords  = []string{"task", "title", "description", "item"}
	statusColumnWords = []string{"status", "state", "progress"}
)

// Extract parses markdown into a flat, document-ordered task list.
//
// Two independent grammars are applied: checkbox list items and task
// tables. Malformed fragments are skipped, never failing the whole
// document. Duplicate tasks (same title, status, file and line) are
// collapsed.
func Extract(content, filePath string) []Task {
	lines := strings.Split(content, "\n")

	tasks := make([]Task, 0, 16)
	for i := 0; i < len(lines); i++ {
		if title, status, ok := parseCheckboxLine(lines[i]); ok {
			tasks = append(tasks, Task{
				Title:      title,
				Status:     status,
				FilePath:   filePath,
				LineNumber: i + 1,
			})
			continue
		}
		if tableTasks, consumed := parseTable(lines, i, filePath); consumed > 0 {
			tasks = append(tasks, tableTasks...)
			i += consumed - 1
		}
	}

	return dedupe(validate(tasks))
}

// parseCheckboxLine matches "- [<marker>] <title>" with optional
// leading indentation. Nested tasks are extracted as flat items.
func parseCheckboxLine(line string) (title string, status TaskStatus, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "- [") || len(trimmed) < 7 {
		return "", "", false
	}
	marker := trimmed[3]
	if trimmed[4] != ']' || trimmed[5] != ' ' {
		return "", "", false
	}
	status, known := checkboxStatus[marker]
	if !known {
		return "", "", false
	}
	title = strings.TrimSpace(trimmed[6:])
	if title == "" {
		return "", "", false
	}
	return title, status, true
}

// parseTable attempts to read a task table starting at lines[start].
// It returns the extracted tasks and the number of lines consumed;
// consumed is 0 when no table starts there.
func parseTable(lines []string, start int, filePath string) ([]Task, int) {
	header := splitTableRow(lines[start])
	if header == nil || start+1 >= len(lines) || !isSeparatorRow(lines[start+1]) {
		return nil, 0
	}

	titleCol := findColumn(header, titleColumnWords)
	statusCol := findColumn(header, statusColumnWords)
	if titleCol < 0 || statusCol < 0 {
		// A table without both columns is not a task table; skip past
		// it so its rows are not re-scanned as checkbox lines.
		consumed := 2
		for start+consumed < len(lines) && splitTableRow(lines[start+consumed]) != nil {
			consumed++
		}
		return nil, consumed
	}

	var tasks []Task
	consumed := 2
	for start+consumed < len(lines) {
		row := splitTableRow(lines[start+consumed])
		if row == nil {
			break
		}
		lineNo := start + consumed + 1
		consumed++

		if titleCol >= len(row) {
			continue
		}
		title := strings.TrimSpace(row[titleCol])
		if title == "" {
			continue
		}
		status := StatusTodo
		if statusCol < len(row) {
			if mapped, ok := tableStatusWords[strings.ToLower(strings.TrimSpace(row[statusCol]))]; ok {
				status = mapped
			}
		}
		tasks = append(tasks, Task{
			Title:      title,
			Status:     status,
			FilePath:   filePath,
			LineNumber: lineNo,
		})
	}
	return tasks, consumed
}

// splitTableRow splits a pipe-delimited markdown row into trimmed
// cells; returns nil when the line is not a table row.
func splitTableRow(line string) []string {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "|") {
		return nil
	}
	trimmed = strings.TrimPrefix(trimmed, "|")
	trimmed = strings.TrimSuffix(trimmed, "|")
	parts := strings.Split(trimmed, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// isSeparatorRow matches the |---|:--:| delimiter line under a header.
func isSeparatorRow(line string) bool {
	cells := splitTableRow(line)
	if cells == nil {
		return false
	}
	sawDash := false
	for _, cell := range cells {
		if cell == "" {
			continue
		}
		for _, r := range cell {
			if r != '-' && r != ':' {
				return false
			}
		}
		if strings.Contains(cell, "-") {
			sawDash = true
		}
	}
	return sawDash
}

// findColumn returns the index of the first header cell containing one
// of the given words, or -1.
func findColumn(header []string, words []string) int {
	for i, cell := range header {
		lower := strings.ToLower(cell)
		for _, w := range words {
			if strings.Contains(lower, w) {
				return i
			}
		}
	}
	return -1
}

// validate drops tasks with empty or oversized titles.
func validate(tasks []Task) []Task {
	valid := tasks[:0]
	for _, t := range tasks {
		if t.Title == "" || len(t.Title) > maxTitleLength {
			continue
		}
		valid = append(valid, t)
	}
	return valid
}

// dedupe collapses tasks identical in title, status, file and line,
// keeping the first occurrence in document order.
func dedupe(tasks []Task) []Task {
	type key struct {
		title  string
		status TaskStatus
		file   string
		line   int
	}
	seen := make(map[key]bool, len(tasks))
	out := tasks[:0]
	for _, t := range tasks {
		k := key{t.Title, t.Status, t.FilePath, t.LineNumber}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}
