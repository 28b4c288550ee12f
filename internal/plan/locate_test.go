package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestLocate_PreferredPathWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes/tracker.md", "- [ ] a")
	writeFile(t, root, "docs/plan.md", "- [ ] b")

	path, err := Locate(root, "notes/tracker.md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("notes", "tracker.md"), path)
}

func TestLocate_FallbackOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/plan.md", "x")
	writeFile(t, root, "plan.md", "y")

	path, err := Locate(root, "")
	require.NoError(t, err)
	assert.Equal(t, "docs/plan.md", path)

	require.NoError(t, os.Remove(filepath.Join(root, "docs", "plan.md")))
	path, err = Locate(root, "")
	require.NoError(t, err)
	assert.Equal(t, "plan.md", path)
}

func TestLocate_MissingPreferredFallsBack(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "plan.md", "x")

	path, err := Locate(root, "docs/missing.md")
	require.NoError(t, err)
	assert.Equal(t, "plan.md", path)
}

func TestLocate_ReadmeRequiresPlanSection(t *testing.T) {
	root := t.TempDir()

	// checkbox under a non-plan heading does not qualify
	writeFile(t, root, "README.md", "# Project\n\n## Usage\n\n- [ ] not a plan\n")
	_, err := Locate(root, "")
	assert.ErrorIs(t, err, ErrNotFound)

	// heading containing "plan" followed by checkboxes qualifies
	writeFile(t, root, "README.md", "# Project\n\n## Roadmap Plan\n\n- [x] shipped\n- [ ] next\n")
	path, err := Locate(root, "")
	require.NoError(t, err)
	assert.Equal(t, "README.md", path)
}

func TestLocate_ReadmePlanSectionEndsAtNextHeading(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "## Plan\n\nprose only\n\n## Other\n\n- [ ] task outside plan\n")

	_, err := Locate(root, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocate_NothingFound(t *testing.T) {
	_, err := Locate(t.TempDir(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocate_RejectsTraversal(t *testing.T) {
	root := t.TempDir()
	_, err := Locate(root, "../../etc/passwd")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestHasPlanSection(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{name: "plan heading with tasks", content: "## Plan\n- [ ] a", want: true},
		{name: "case insensitive", content: "# PROJECT PLAN\n- [x] a", want: true},
		{name: "no heading", content: "- [ ] a", want: false},
		{name: "plan heading without tasks", content: "## Plan\nprose", want: false},
		{name: "tasks after section closed", content: "## Plan\ntext\n## Next\n- [ ] a", want: false},
		{name: "deeper heading does not close section", content: "## Plan\n### Phase 1\n- [ ] a", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasPlanSection(tt.content))
		})
	}
}
