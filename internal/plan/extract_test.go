package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_CheckboxMarkers(t *testing.T) {
	content := "- [x] Done task\n- [ ] Todo task\n- [~] Doing\n- [!] Blocked\n- [?] Ignored"

	tasks := Extract(content, "plan.md")

	require.Len(t, tasks, 4)
	assert.Equal(t, Task{Title: "Done task", Status: StatusDone, FilePath: "plan.md", LineNumber: 1}, tasks[0])
	assert.Equal(t, Task{Title: "Todo task", Status: StatusTodo, FilePath: "plan.md", LineNumber: 2}, tasks[1])
	assert.Equal(t, Task{Title: "Doing", Status: StatusDoing, FilePath: "plan.md", LineNumber: 3}, tasks[2])
	assert.Equal(t, Task{Title: "Blocked", Status: StatusBlocked, FilePath: "plan.md", LineNumber: 4}, tasks[3])
}

func TestExtract_UppercaseDone(t *testing.T) {
	tasks := Extract("- [X] Shouting done", "plan.md")
	require.Len(t, tasks, 1)
	assert.Equal(t, StatusDone, tasks[0].Status)
}

func TestExtract_IndentedNestedTasks(t *testing.T) {
	content := "- [ ] Parent\n  - [x] Child one\n\t- [~] Child two"

	tasks := Extract(content, "plan.md")

	// nested tasks come out flat, parent/child not preserved
	require.Len(t, tasks, 3)
	assert.Equal(t, "Parent", tasks[0].Title)
	assert.Equal(t, "Child one", tasks[1].Title)
	assert.Equal(t, "Child two", tasks[2].Title)
}

func TestExtract_EmptyTitleDiscarded(t *testing.T) {
	tasks := Extract("- [x]  \n- [ ] Real task", "plan.md")
	require.Len(t, tasks, 1)
	assert.Equal(t, "Real task", tasks[0].Title)
}

func TestExtract_Table(t *testing.T) {
	content := `# Plan

| Task            | Status      | Owner |
|-----------------|-------------|-------|
| Ship parser     | Done        | ada   |
| Build API       | In Progress | ada   |
| Write docs      | Not Started |       |
| Fix deploy      | On Hold     | lin   |
| Mystery         | Unknowable  |       |
`
	tasks := Extract(content, "docs/plan.md")

	require.Len(t, tasks, 5)
	assert.Equal(t, StatusDone, tasks[0].Status)
	assert.Equal(t, StatusDoing, tasks[1].Status)
	assert.Equal(t, StatusTodo, tasks[2].Status)
	assert.Equal(t, StatusBlocked, tasks[3].Status)
	// unrecognized status words default to todo
	assert.Equal(t, StatusTodo, tasks[4].Status)
	// line numbers are 1-indexed into the document
	assert.Equal(t, 5, tasks[0].LineNumber)
}

func TestExtract_TableWithoutStatusColumnSkipped(t *testing.T) {
	content := `| Name  | Owner |
|-------|-------|
| alpha | ada   |
`
	tasks := Extract(content, "plan.md")
	assert.Empty(t, tasks)
}

func TestExtract_MixedCheckboxAndTable(t *testing.T) {
	content := `- [x] Before table

| Task  | Status |
|-------|--------|
| Row A | Done   |

- [ ] After table
`
	tasks := Extract(content, "plan.md")

	require.Len(t, tasks, 3)
	// document order preserved across grammars
	assert.Equal(t, "Before table", tasks[0].Title)
	assert.Equal(t, "Row A", tasks[1].Title)
	assert.Equal(t, "After table", tasks[2].Title)
}

func TestExtract_DuplicatesCollapsed(t *testing.T) {
	content := "- [x] Same\n- [x] Same"
	tasks := Extract(content, "plan.md")
	// same title+status but different lines: both kept
	require.Len(t, tasks, 2)

	tasks = Extract("- [x] Same", "plan.md")
	tasks = append(tasks, tasks[0])
	assert.Len(t, dedupe(tasks), 1)
}

func TestExtract_MalformedRowsSkipped(t *testing.T) {
	content := `| Task | Status |
|------|--------|
| Good | Done |
|
| | Done |
`
	tasks := Extract(content, "plan.md")
	require.Len(t, tasks, 1)
	assert.Equal(t, "Good", tasks[0].Title)
}

func TestExtract_EmptyDocument(t *testing.T) {
	assert.Empty(t, Extract("", "plan.md"))
	assert.Empty(t, Extract("just prose\nwith no tasks", "plan.md"))
}
