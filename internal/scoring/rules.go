// Package scoring folds a completed answer map through an assessment's scoring
// and risk rules. It never fails: malformed rules or answers degrade to zero
// contributions and empty labels.
package scoring

// Type selects how the total score is computed.
type Type string

const (
	TypeSum         Type = "sum"
	TypeWeightedSum Type = "weighted_sum"
)

// Band labels an inclusive score range. Min and Max are coerced like answers.
type Band struct {
	Min   any    `json:"min"`
	Max   any    `json:"max"`
	Label string `json:"label"`
}

// Rules configures the total score, subscales and band lookup.
type Rules struct {
	Type Type `json:"type,omitempty"`
	// Items lists the scored question ids. Nil means every answered question;
	// an explicit empty list scores nothing.
	Items     []string            `json:"items"`
	Weights   map[string]any      `json:"weights,omitempty"`
	Subscales map[string][]string `json:"subscales,omitempty"`
	Bands     []Band              `json:"bands,omitempty"`
}

// RiskRules maps a rule name to its trigger.
type RiskRules map[string]RiskRule

// RiskRule flags an answer pattern regardless of the total score. Every clause
// that is set must hold: the top-level comparison, all of All and at least one
// of Any. A rule with no clauses never triggers.
type RiskRule struct {
	QuestionID string       `json:"questionId,omitempty"`
	Operator   string       `json:"operator,omitempty"`
	Value      any          `json:"value,omitempty"`
	All        []Comparison `json:"all,omitempty"`
	Any        []Comparison `json:"any,omitempty"`
	HelpText   string       `json:"helpText"`
}

// Comparison tests a single answer against Value.
type Comparison struct {
	QuestionID string `json:"questionId"`
	Operator   string `json:"operator,omitempty"`
	Value      any    `json:"value"`
}

// RiskFlag is emitted for every triggered risk rule.
type RiskFlag struct {
	HelpText string `json:"helpText"`
}

// Result is the outcome of scoring one completed attempt.
type Result struct {
	Score     float64             `json:"score"`
	Band      string              `json:"band"`
	Subscales map[string]float64  `json:"subscales"`
	RiskFlags map[string]RiskFlag `json:"riskFlags"`
}
