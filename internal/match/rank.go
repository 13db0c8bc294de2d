package match

import (
	"cmp"
	"slices"
)

// Ranked pairs an item with its match result.
type Ranked[T any] struct {
	Item   T      `json:"item"`
	Result Result `json:"match"`
}

// Rank scores every item and orders them by overall score, best first.
// Items with equal scores keep their input order.
func Rank[T any](items []T, score func(T) Result) []Ranked[T] {
	out := make([]Ranked[T], 0, len(items))
	for _, item := range items {
		out = append(out, Ranked[T]{Item: item, Result: score(item)})
	}
	slices.SortStableFunc(out, func(a, b Ranked[T]) int {
		return cmp.Compare(b.Result.OverallMatchPercentage, a.Result.OverallMatchPercentage)
	})
	return out
}

// RankPostings ranks postings for one candidate.
func RankPostings[T any](candidate Requirement, postings []T, requirement func(T) Requirement) []Ranked[T] {
	return Rank(postings, func(p T) Result {
		return ComputeRequirement(candidate, requirement(p))
	})
}

// RankCandidates ranks candidates for one posting.
func RankCandidates[T any](posting Requirement, candidates []T, profile func(T) Requirement) []Ranked[T] {
	return Rank(candidates, func(c T) Result {
		return ComputeRequirement(profile(c), posting)
	})
}
