package scoring

import (
	"assessment-service/internal/answer"
)

// Compute scores answers. The result always has non-nil Subscales and
// RiskFlags maps.
func Compute(rules Rules, risk RiskRules, answers answer.Map) Result {
	score := Total(rules, answers)
	return Result{
		Score:     score,
		Band:      BandFor(rules.Bands, score),
		Subscales: Subscales(rules, answers),
		RiskFlags: EvaluateRisk(risk, answers),
	}
}

// ResolveItems returns the question ids the total score covers: the explicit
// item list when one is configured, otherwise every answered key in sorted order.
func ResolveItems(rules Rules, answers answer.Map) []string {
	if rules.Items != nil {
		return rules.Items
	}
	return answers.Keys()
}

// Total is the plain or weighted sum over ResolveItems. Unknown types score
// as a plain sum.
func Total(rules Rules, answers answer.Map) float64 {
	total := 0.0
	for _, item := range ResolveItems(rules, answers) {
		value := answer.SafeNumber(answers[item])
		if rules.Type == TypeWeightedSum {
			value *= weight(rules.Weights, item)
		}
		total += value
	}
	return total
}

// weight defaults to 1 when item has no weight configured.
func weight(weights map[string]any, item string) float64 {
	w, ok := weights[item]
	if !ok || w == nil {
		return 1
	}
	return answer.SafeNumber(w)
}

// Subscales sums each subscale's own items. Weights are never applied.
func Subscales(rules Rules, answers answer.Map) map[string]float64 {
	out := make(map[string]float64, len(rules.Subscales))
	for name, items := range rules.Subscales {
		sum := 0.0
		for _, item := range items {
			sum += answer.SafeNumber(answers[item])
		}
		out[name] = sum
	}
	return out
}

// BandFor returns the label of the first band whose inclusive range holds
// score, or "" when none does.
func BandFor(bands []Band, score float64) string {
	for _, b := range bands {
		if score >= answer.SafeNumber(b.Min) && score <= answer.SafeNumber(b.Max) {
			return b.Label
		}
	}
	return ""
}
