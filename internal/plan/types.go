package plan

// TaskStatus is the lifecycle state of a single plan task.
type TaskStatus string

const (
	StatusTodo    TaskStatus = "todo"
	StatusDoing   TaskStatus = "doing"
	StatusDone    TaskStatus = "done"
	StatusBlocked TaskStatus = "blocked"
)

// Task is one work item extracted from a plan document.
//
// Tasks are ephemeral per pipeline run; the full set produced by one
// run replaces the previous set.
type Task struct {
	// Title is the trimmed task text.
	Title string

	// Status is the extracted lifecycle state.
	Status TaskStatus

	// FilePath is the plan document the task came from, relative to
	// the repository root.
	FilePath string

	// LineNumber is the 1-indexed line within the parsed document.
	LineNumber int
}

// maxTitleLength guards against swallowing whole paragraphs that only
// look like tasks. Longer titles are discarded during validation.
const maxTitleLength = 500
