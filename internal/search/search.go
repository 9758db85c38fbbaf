// Package search implements the fuzzy entity-name matcher (C11): a
// weighted-ratio combination of plain, partial, token-sort, and
// token-set similarity, scored 0-100 (spec.md §4.10).
package search

import (
	"sort"
	"strings"

	"github.com/xrash/smetrics"

	"github.com/emergent-company/orgtwin/internal/engine"
	"github.com/emergent-company/orgtwin/internal/model"
)

// MinScore is the inclusion threshold: candidates scoring below this are
// dropped entirely.
const MinScore = 50

// Result is a single scored match.
type Result struct {
	Entity *model.Entity
	Score  int
}

// Search ranks every entity of kind (or every entity, if kind is "")
// against query using the weighted-ratio matcher, keeping only results
// scoring >= MinScore, and returns the top limit ordered by score
// descending with ties broken by insertion (scan) order.
func Search(eng engine.Engine, query string, kind model.EntityType, limit int) []Result {
	candidates := eng.ListEntities(kind, 0)

	results := make([]Result, 0, len(candidates))
	for _, e := range candidates {
		score := WeightedRatio(query, e.Name)
		if score >= MinScore {
			results = append(results, Result{Entity: e, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// WeightedRatio combines plain, partial, token-sort, and token-set ratios
// into a single 0-100 score, the way fuzzywuzzy's process.extract does:
// the full-string ratio is trusted when both strings are close in length;
// otherwise the partial and token variants are blended in to reward
// substring and reordered-word matches.
func WeightedRatio(a, b string) int {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	plain := ratio(a, b)

	lengthRatio := float64(minLen(a, b)) / float64(maxLen(a, b))

	tokenSort := tokenSortRatio(a, b)
	tokenSet := tokenSetRatio(a, b)
	tokenScore := tokenSort
	if tokenSet > tokenScore {
		tokenScore = tokenSet
	}

	if lengthRatio < 0.7 {
		partial := partialRatio(a, b)
		// short strings are likely substrings of long ones; weight
		// partial and token matching more heavily than the raw ratio.
		best := partial
		if tokenScore > best {
			best = tokenScore
		}
		return best
	}

	best := plain
	if tokenScore > best {
		best = tokenScore
	}
	return best
}

// ratio is the plain full-string similarity, scaled to [0, 100].
func ratio(a, b string) int {
	dist := smetrics.WagnerFischer(a, b, 1, 1, 2)
	longest := maxLen(a, b)
	if longest == 0 {
		return 100
	}
	sim := 1.0 - float64(dist)/float64(len(a)+len(b))
	if sim < 0 {
		sim = 0
	}
	return int(sim * 100)
}

// partialRatio finds the best-aligned substring of the longer string
// against the shorter one and scores that alignment.
func partialRatio(a, b string) int {
	shorter, longer := a, b
	if len(a) > len(b) {
		shorter, longer = b, a
	}
	if len(shorter) == 0 {
		return 0
	}
	if len(longer) <= len(shorter) {
		return ratio(shorter, longer)
	}

	best := 0
	for i := 0; i+len(shorter) <= len(longer); i++ {
		window := longer[i : i+len(shorter)]
		if s := ratio(shorter, window); s > best {
			best = s
		}
	}
	return best
}

// tokenSortRatio compares the two strings after sorting each one's
// whitespace-delimited tokens alphabetically, neutralising word order.
func tokenSortRatio(a, b string) int {
	return ratio(sortedTokens(a), sortedTokens(b))
}

// tokenSetRatio compares the intersection and symmetric-difference token
// sets of a and b, rewarding matches where one name's words are a subset
// of the other's (e.g. "Acme Corp" vs "Acme Corp International").
func tokenSetRatio(a, b string) int {
	aTokens := uniqueTokens(a)
	bTokens := uniqueTokens(b)

	intersection := intersect(aTokens, bTokens)
	aDiff := subtract(aTokens, intersection)
	bDiff := subtract(bTokens, intersection)

	sortedIntersection := strings.Join(intersection, " ")
	combinedA := strings.TrimSpace(sortedIntersection + " " + strings.Join(aDiff, " "))
	combinedB := strings.TrimSpace(sortedIntersection + " " + strings.Join(bDiff, " "))

	best := ratio(sortedIntersection, combinedA)
	if s := ratio(sortedIntersection, combinedB); s > best {
		best = s
	}
	if s := ratio(combinedA, combinedB); s > best {
		best = s
	}
	return best
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func uniqueTokens(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range strings.Fields(s) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

func intersect(a, b []string) []string {
	bSet := make(map[string]bool, len(b))
	for _, t := range b {
		bSet[t] = true
	}
	var out []string
	for _, t := range a {
		if bSet[t] {
			out = append(out, t)
		}
	}
	return out
}

func subtract(a, b []string) []string {
	bSet := make(map[string]bool, len(b))
	for _, t := range b {
		bSet[t] = true
	}
	var out []string
	for _, t := range a {
		if !bSet[t] {
			out = append(out, t)
		}
	}
	return out
}

func minLen(a, b string) int {
	if len(a) < len(b) {
		return len(a)
	}
	return len(b)
}

func maxLen(a, b string) int {
	if len(a) > len(b) {
		return len(a)
	}
	return len(b)
}
