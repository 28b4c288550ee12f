package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/repotrackr/internal/manifest"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "FastAPI", "fastapi"},
		{"strips separators", "scikit-learn", "scikitlearn"},
		{"resolves alias", "React.js", "react"},
		{"alias after stripping", "next-js", "next"},
		{"k8s alias", "k8s", "kubernetes"},
		{"unknown passes through", "leftpad", "leftpad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, in := range []string{"React.js", "scikit-learn", "FastAPI", "weird_Thing-2"} {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), in)
	}
}

func TestMap_CategoriesAndConfidence(t *testing.T) {
	entries := []manifest.Entry{
		{Name: "Django", Version: "4.2", Source: "requirements.txt"},
		{Name: "leftpad", Source: "package.json"},
		{Name: "mystery-tool", Source: "scripts.txt"},
	}
	skills := Map(entries)
	require.Len(t, skills, 3)

	// well-known, versioned, trusted source: 0.5+0.3+0.1+0.1
	assert.Equal(t, "django", skills[0].Name)
	assert.Equal(t, CategoryFramework, skills[0].Category)
	assert.InDelta(t, 1.0, skills[0].Confidence, 1e-9)

	// unknown name lands in utility with only the trusted-source bonus
	assert.Equal(t, "leftpad", skills[1].Name)
	assert.Equal(t, CategoryUtility, skills[1].Category)
	assert.InDelta(t, 0.6, skills[1].Confidence, 1e-9)

	// nothing applies beyond the base
	assert.Equal(t, CategoryUtility, skills[2].Category)
	assert.InDelta(t, 0.5, skills[2].Confidence, 1e-9)
}

func TestMap_ConfidenceBounds(t *testing.T) {
	entries := []manifest.Entry{
		{Name: "react", Version: "18.2.0", Source: "package.json"},
		{Name: "obscure", Source: "notes.md"},
	}
	for _, s := range Map(entries) {
		assert.GreaterOrEqual(t, s.Confidence, 0.0)
		assert.LessOrEqual(t, s.Confidence, 1.0)
	}
}

func TestMap_DedupKeepsHighestConfidenceAndFirstSource(t *testing.T) {
	entries := []manifest.Entry{
		{Name: "redis", Source: "docker-compose.yml"},
		{Name: "redis-py", Version: "5.0.1", Source: "requirements.txt"},
	}
	skills := Map(entries)
	require.Len(t, skills, 1)
	assert.Equal(t, "redis", skills[0].Name)
	assert.Equal(t, CategoryDatabase, skills[0].Category)
	assert.Equal(t, "docker-compose.yml", skills[0].Source)
	// the versioned duplicate raises confidence to 0.5+0.3+0.1+0.1
	assert.InDelta(t, 1.0, skills[0].Confidence, 1e-9)
}

func TestMap_EmptyNameDiscarded(t *testing.T) {
	skills := Map([]manifest.Entry{{Name: "---", Source: "requirements.txt"}})
	assert.Empty(t, skills)
}

func TestMap_Deterministic(t *testing.T) {
	entries := []manifest.Entry{
		{Name: "vue", Source: "package.json"},
		{Name: "pytest", Source: "requirements.txt"},
		{Name: "vuejs", Source: "package.json"},
	}
	first := Map(entries)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Map(entries))
	}
}

func TestCategories_SortedAndComplete(t *testing.T) {
	got := Categories()
	assert.Contains(t, got, "framework")
	assert.Contains(t, got, "utility")
	assert.IsIncreasing(t, got)
}

func TestPopular(t *testing.T) {
	assert.Len(t, Popular(5), 5)
	assert.Equal(t, "python", Popular(1)[0])
	assert.Len(t, Popular(1000), len(popularSkills))
	assert.Empty(t, Popular(0))
	assert.Empty(t, Popular(-3))
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryLanguage, CategoryOf("python"))
	assert.Equal(t, CategoryFramework, CategoryOf("Next.js"))
	assert.Equal(t, CategoryUtility, CategoryOf("leftpad"))
}
