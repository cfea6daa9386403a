package conflict

import (
	"strconv"
	"strings"

	"github.com/davidleathers/normative-engine/internal/domain/normative"
)

// TextSimilarity computes Jaccard similarity over lowercase word sets. It is
// exported for the engine's registration-time screening.
func TextSimilarity(a, b string) float64 {
	wordsA := strings.Fields(strings.ToLower(a))
	wordsB := strings.Fields(strings.ToLower(b))
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	setA := make(map[string]bool, len(wordsA))
	for _, w := range wordsA {
		setA[w] = true
	}

	intersection := 0
	setB := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		if !setB[w] {
			setB[w] = true
			if setA[w] {
				intersection++
			}
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// tagOverlap computes the Jaccard overlap of two frameworks' tag sets, used
// as a scope-overlap proxy.
func tagOverlap(a, b *normative.Framework) float64 {
	setA := a.TagSet()
	setB := b.TagSet()
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// conditionsContradict reports whether two condition expressions cannot both
// hold: either one is the literal negation of the other ("NOT (x)" vs "x"),
// or one is a ">=" bound and the other a "<=" bound whose joint constraint is
// numerically infeasible.
func conditionsContradict(a, b string) bool {
	x := strings.TrimSpace(a)
	y := strings.TrimSpace(b)
	if x == "" || y == "" {
		return false
	}

	if x == "NOT ("+y+")" || y == "NOT ("+x+")" {
		return true
	}

	if strings.Contains(x, ">=") && strings.Contains(y, "<=") {
		return boundsInfeasible(x, y)
	}
	if strings.Contains(y, ">=") && strings.Contains(x, "<=") {
		return boundsInfeasible(y, x)
	}
	return false
}

// boundsInfeasible reports whether the lower bound in ge exceeds the upper
// bound in le. Expressions without a parseable numeral never trigger this.
func boundsInfeasible(ge, le string) bool {
	lower, ok := firstNumericToken(ge)
	if !ok {
		return false
	}
	upper, ok := firstNumericToken(le)
	if !ok {
		return false
	}
	return lower > upper
}

// firstNumericToken extracts the first whitespace-delimited token of the
// expression that parses as a float. This is deliberately a heuristic, not an
// expression evaluator; detection behavior depends on keeping it that way.
func firstNumericToken(expr string) (float64, bool) {
	for _, tok := range strings.Fields(expr) {
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
