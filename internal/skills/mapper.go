package skills

import (
	"strings"

	"github.com/fyrsmithlabs/repotrackr/internal/manifest"
)

// Skill is a categorized, confidence-scored technology inferred from
// manifest entries.
type Skill struct {
	Name       string
	Category   Category
	Confidence float64

	// Source is the manifest filename the skill was first seen in.
	Source string
}

const (
	baseConfidence     = 0.5
	wellKnownBonus     = 0.3
	versionBonus       = 0.1
	trustedSourceBonus = 0.1
)

// Normalize lowers the name, strips separators, and resolves known
// aliases to the canonical skill name.
func Normalize(name string) string {
	n := strings.ToLower(name)
	n = strings.NewReplacer("-", "", "_", "", ".", "").Replace(n)
	if canonical, ok := aliases[n]; ok {
		return canonical
	}
	return n
}

// Map converts raw manifest entries into deduplicated skills. Names not
// in the category table land in utility rather than being dropped.
// Duplicate (name, category) pairs keep the highest confidence and the
// first-seen source.
func Map(entries []manifest.Entry) []Skill {
	type key struct {
		name     string
		category Category
	}
	index := map[key]int{}
	var out []Skill

	for _, entry := range entries {
		name := Normalize(entry.Name)
		if name == "" {
			continue
		}
		category, ok := categories[name]
		if !ok {
			category = CategoryUtility
		}

		skill := Skill{
			Name:       name,
			Category:   category,
			Confidence: score(name, entry),
			Source:     entry.Source,
		}

		k := key{name, category}
		if i, seen := index[k]; seen {
			if skill.Confidence > out[i].Confidence {
				out[i].Confidence = skill.Confidence
			}
			continue
		}
		index[k] = len(out)
		out = append(out, skill)
	}
	return out
}

func score(normalized string, entry manifest.Entry) float64 {
	c := baseConfidence
	if _, ok := wellKnown[normalized]; ok {
		c += wellKnownBonus
	}
	if entry.Version != "" {
		c += versionBonus
	}
	if _, ok := highTrustSources[entry.Source]; ok {
		c += trustedSourceBonus
	}
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return c
}
