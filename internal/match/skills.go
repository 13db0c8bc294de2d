package match

import (
	"sort"
	"strings"
)

// SkillSet is a set of normalized skill tokens.
type SkillSet map[string]struct{}

func normalizeSkill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseSkills splits a comma separated skill list. Empty input yields an empty set.
func ParseSkills(raw string) SkillSet {
	set := SkillSet{}
	for _, part := range strings.Split(raw, ",") {
		if skill := normalizeSkill(part); skill != "" {
			set[skill] = struct{}{}
		}
	}
	return set
}

// SkillSetFromList normalizes a list of skills. Elements that still hold
// comma separated values are split as well.
func SkillSetFromList(items []string) SkillSet {
	set := SkillSet{}
	for _, item := range items {
		for skill := range ParseSkills(item) {
			set[skill] = struct{}{}
		}
	}
	return set
}

func (s SkillSet) Len() int {
	return len(s)
}

func (s SkillSet) Has(skill string) bool {
	_, ok := s[normalizeSkill(skill)]
	return ok
}

// Sorted returns the skills in lexical order.
func (s SkillSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for skill := range s {
		out = append(out, skill)
	}
	sort.Strings(out)
	return out
}

// Intersect returns the skills present in both sets.
func (s SkillSet) Intersect(other SkillSet) SkillSet {
	out := SkillSet{}
	for skill := range s {
		if _, ok := other[skill]; ok {
			out[skill] = struct{}{}
		}
	}
	return out
}

// Difference returns the skills of s that are not in other.
func (s SkillSet) Difference(other SkillSet) SkillSet {
	out := SkillSet{}
	for skill := range s {
		if _, ok := other[skill]; !ok {
			out[skill] = struct{}{}
		}
	}
	return out
}
