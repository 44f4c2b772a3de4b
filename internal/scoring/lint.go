package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"assessment-service/internal/answer"
)

// Lint returns warnings for rules that will silently score differently than
// their author probably intended. It never rejects anything.
func Lint(rules Rules, risk RiskRules, questionIDs []string) []string {
	known := make(map[string]struct{}, len(questionIDs))
	for _, id := range questionIDs {
		known[id] = struct{}{}
	}
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	switch rules.Type {
	case "", TypeSum, TypeWeightedSum:
	default:
		warn("scoring type %q is not supported and scores as %s", rules.Type, TypeSum)
	}

	for _, item := range rules.Items {
		if _, ok := known[item]; !ok {
			warn("scoring item %q is not a question", item)
		}
	}

	if len(rules.Weights) > 0 && rules.Type != TypeWeightedSum {
		warn("weights are ignored unless type is %s", TypeWeightedSum)
	}
	for _, id := range sortedKeys(rules.Weights) {
		if _, ok := known[id]; !ok {
			warn("weight for %q does not match a question", id)
		}
		if w := rules.Weights[id]; w != nil {
			if _, ok := answer.Number(w); !ok {
				warn("weight for %q is not a number and counts as 0", id)
			}
		}
	}

	for _, name := range sortedKeys(rules.Subscales) {
		for _, item := range rules.Subscales[name] {
			if _, ok := known[item]; !ok {
				warn("subscale %q includes unknown question %q", name, item)
			}
		}
	}

	for i, b := range rules.Bands {
		name := b.Label
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("#%d", i+1)
			warn("band #%d has no label", i+1)
		}
		lo, hi := answer.SafeNumber(b.Min), answer.SafeNumber(b.Max)
		if lo > hi {
			warn("band %s has min above max and never matches", name)
			continue
		}
		for j := 0; j < i; j++ {
			prev := rules.Bands[j]
			plo, phi := answer.SafeNumber(prev.Min), answer.SafeNumber(prev.Max)
			if plo <= phi && lo <= phi && plo <= hi {
				warn("band %s overlaps band %q; the first match wins", name, prev.Label)
				break
			}
		}
	}

	for _, gap := range bandGaps(rules.Bands) {
		warn("no band covers scores between %g and %g", gap[0], gap[1])
	}

	for _, name := range sortedKeys(risk) {
		rule := risk[name]
		comparisons := append([]Comparison(nil), rule.All...)
		comparisons = append(comparisons, rule.Any...)
		if rule.QuestionID != "" {
			comparisons = append(comparisons, Comparison{QuestionID: rule.QuestionID, Operator: rule.Operator, Value: rule.Value})
		}
		if len(comparisons) == 0 {
			warn("risk rule %q has no trigger", name)
		}
		for _, c := range comparisons {
			if _, ok := known[c.QuestionID]; !ok {
				warn("risk rule %q references unknown question %q", name, c.QuestionID)
			}
			if parseOperator(c.Operator) == opUnknown {
				warn("risk rule %q uses unsupported operator %q", name, c.Operator)
			}
		}
		if strings.TrimSpace(rule.HelpText) == "" {
			warn("risk rule %q has no helpText", name)
		}
	}

	return warnings
}

// bandGaps returns the uncovered ranges between bands, ignoring bands with
// min above max. Bands meeting at consecutive integers, such as 0-3 then 4-6,
// are treated as adjacent.
func bandGaps(bands []Band) [][2]float64 {
	var spans [][2]float64
	for _, b := range bands {
		lo, hi := answer.SafeNumber(b.Min), answer.SafeNumber(b.Max)
		if lo <= hi {
			spans = append(spans, [2]float64{lo, hi})
		}
	}
	if len(spans) < 2 {
		return nil
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })

	var gaps [][2]float64
	covered := spans[0][1]
	for _, sp := range spans[1:] {
		if sp[0] > covered && !consecutiveIntegers(covered, sp[0]) {
			gaps = append(gaps, [2]float64{covered, sp[0]})
		}
		if sp[1] > covered {
			covered = sp[1]
		}
	}
	return gaps
}

func consecutiveIntegers(a, b float64) bool {
	return a == math.Trunc(a) && b == math.Trunc(b) && b-a == 1
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
