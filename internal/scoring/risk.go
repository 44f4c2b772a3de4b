package scoring

import (
	"assessment-service/internal/answer"
)

// EvaluateRisk returns a flag for every triggered rule; an empty map when none.
func EvaluateRisk(rules RiskRules, answers answer.Map) map[string]RiskFlag {
	flags := make(map[string]RiskFlag)
	for name, rule := range rules {
		if rule.Triggered(answers) {
			flags[name] = RiskFlag{HelpText: rule.HelpText}
		}
	}
	return flags
}

// Triggered reports whether every configured clause of r holds.
func (r RiskRule) Triggered(answers answer.Map) bool {
	matched := false

	if r.QuestionID != "" {
		top := Comparison{QuestionID: r.QuestionID, Operator: r.Operator, Value: r.Value}
		if !top.Holds(answers) {
			return false
		}
		matched = true
	}

	if len(r.All) > 0 {
		for _, c := range r.All {
			if !c.Holds(answers) {
				return false
			}
		}
		matched = true
	}

	if len(r.Any) > 0 {
		hit := false
		for _, c := range r.Any {
			if c.Holds(answers) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
		matched = true
	}

	return matched
}

type operator int

const (
	opUnknown operator = iota
	opEq
	opNe
	opGt
	opGte
	opLt
	opLte
)

// parseOperator accepts symbols and their short names; empty means ">=".
func parseOperator(s string) operator {
	switch s {
	case "", ">=", "gte":
		return opGte
	case "==", "=", "eq", "equals":
		return opEq
	case "!=", "ne":
		return opNe
	case ">", "gt":
		return opGt
	case "<", "lt":
		return opLt
	case "<=", "lte":
		return opLte
	}
	return opUnknown
}

// Holds reports whether the recorded answer satisfies the comparison. An
// unanswered question never holds, and ordered comparisons need both sides to
// be numeric.
func (c Comparison) Holds(answers answer.Map) bool {
	got, ok := answers[c.QuestionID]
	if !ok || got == nil {
		return false
	}

	op := parseOperator(c.Operator)
	switch op {
	case opEq:
		return answer.Equal(got, c.Value)
	case opNe:
		return !answer.Equal(got, c.Value)
	case opUnknown:
		return false
	}

	a, ok := answer.Number(got)
	if !ok {
		return false
	}
	b, ok := answer.Number(c.Value)
	if !ok {
		return false
	}
	switch op {
	case opGt:
		return a > b
	case opGte:
		return a >= b
	case opLt:
		return a < b
	case opLte:
		return a <= b
	}
	return false
}
