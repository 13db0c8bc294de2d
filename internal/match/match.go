// Package match computes how well a candidate's skills and level fit an internship.
//
// Scores are deterministic and explainable: the result lists the matching,
// missing and extra skills next to the percentages it was derived from.
package match

import (
	"fmt"
	"math"
)

// Weights of the two dimensions in the overall score.
const (
	SkillWeight = 0.7
	LevelWeight = 0.3
)

// Requirement is what one side of a match brings: a skill set and an optional level.
type Requirement struct {
	Skills SkillSet
	Level  string
}

// Result is the outcome of a single match.
type Result struct {
	OverallMatchPercentage float64  `json:"overall_match_percentage"`
	SkillMatchPercentage   float64  `json:"skill_match_percentage"`
	LevelMatchPercentage   float64  `json:"level_match_percentage"`
	MatchingSkills         []string `json:"matching_skills"`
	MissingSkills          []string `json:"missing_skills"`
	ExtraSkills            []string `json:"extra_skills"`
	LevelCompatible        bool     `json:"level_compatible"`
	TotalRequiredSkills    int      `json:"total_required_skills"`
	TotalMatchedSkills     int      `json:"total_matched_skills"`
}

// MatchScore renders the overall percentage the way listings display it, e.g. "77%".
func (r Result) MatchScore() string {
	return fmt.Sprintf("%.0f%%", r.OverallMatchPercentage)
}

// Compute matches a candidate against a requirement.
func Compute(candidate, required SkillSet, candidateLevel, requiredLevel string) Result {
	if candidate == nil {
		candidate = SkillSet{}
	}
	if required == nil {
		required = SkillSet{}
	}

	matching := candidate.Intersect(required)
	res := Result{
		MatchingSkills:      matching.Sorted(),
		MissingSkills:       required.Difference(candidate).Sorted(),
		ExtraSkills:         candidate.Difference(required).Sorted(),
		TotalRequiredSkills: required.Len(),
		TotalMatchedSkills:  matching.Len(),
	}

	var skillPct float64
	if required.Len() > 0 {
		skillPct = 100 * float64(matching.Len()) / float64(required.Len())
	}

	levelPct, compatible := levelScore(candidateLevel, requiredLevel)
	res.LevelMatchPercentage = round2(clamp(levelPct))
	res.LevelCompatible = compatible

	// Nothing to compare on one side: a zero score rather than a level-only score.
	if candidate.Len() == 0 || required.Len() == 0 {
		return res
	}

	res.SkillMatchPercentage = round2(clamp(skillPct))
	res.OverallMatchPercentage = round2(clamp(SkillWeight*skillPct + LevelWeight*levelPct))
	return res
}

// ComputeRaw is Compute over comma separated skill strings.
func ComputeRaw(candidateSkills, requiredSkills, candidateLevel, requiredLevel string) Result {
	return Compute(ParseSkills(candidateSkills), ParseSkills(requiredSkills), candidateLevel, requiredLevel)
}

// ComputeRequirement is Compute over two Requirement values.
func ComputeRequirement(candidate, required Requirement) Result {
	return Compute(candidate.Skills, required.Skills, candidate.Level, required.Level)
}

func levelScore(candidateLevel, requiredLevel string) (float64, bool) {
	if levelAbsent(candidateLevel) || levelAbsent(requiredLevel) {
		return 100, true
	}

	cand, req := ParseLevel(candidateLevel), ParseLevel(requiredLevel)
	if cand >= req {
		return 100, true
	}
	return 100 * float64(cand) / float64(req), false
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
