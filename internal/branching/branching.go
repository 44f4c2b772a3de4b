// Package branching decides which questions a respondent currently sees.
//
// Every function here is pure: the same schema and answers always produce the
// same result, so callers may re-evaluate after each answer change.
package branching

import (
	"sort"

	"assessment-service/internal/answer"
	"assessment-service/internal/schema"
)

// IsVisible reports whether q should be shown given the answers so far. A
// question without a condition is always visible; a condition that reads an
// unanswered question is false.
//
// q's dependencies must come from a schema that passed cycle detection; use
// the *schema.Validated helpers below when working with a whole schema.
func IsVisible(q schema.Question, answers answer.Map) bool {
	if q.ShowIf == nil {
		return true
	}
	return Evaluate(q.ShowIf, answers)
}

// Evaluate applies a condition to answers, short-circuiting All and Any.
func Evaluate(c schema.Condition, answers answer.Map) bool {
	switch node := c.(type) {
	case schema.Equals:
		got, ok := answers[node.QuestionID]
		if !ok || got == nil {
			return false
		}
		return answer.Equal(got, node.Value)
	case schema.All:
		for _, child := range node {
			if !Evaluate(child, answers) {
				return false
			}
		}
		return true
	case schema.Any:
		for _, child := range node {
			if Evaluate(child, answers) {
				return true
			}
		}
		return false
	}
	return false
}

// Visible returns the currently visible questions in display order: by Order,
// then authoring position. Conditions read the pruned answers, so an answer
// left behind on a hidden question never reveals anything.
func Visible(v *schema.Validated, answers answer.Map) []schema.Question {
	kept := Prune(v, answers)
	var out []schema.Question
	for _, q := range v.Questions() {
		if IsVisible(q, kept) {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// VisibleIDs is Visible reduced to question ids.
func VisibleIDs(v *schema.Validated, answers answer.Map) []string {
	visible := Visible(v, answers)
	ids := make([]string, len(visible))
	for i, q := range visible {
		ids[i] = q.ID
	}
	return ids
}

// Next returns the first visible question that has no answer yet.
func Next(v *schema.Validated, answers answer.Map) (schema.Question, bool) {
	for _, q := range Visible(v, answers) {
		if !answers.Has(q.ID) {
			return q, true
		}
	}
	return schema.Question{}, false
}

// Shown reports whether the question id is visible under the pruned answers.
func Shown(v *schema.Validated, id string, answers answer.Map) bool {
	q, ok := v.Question(id)
	if !ok {
		return false
	}
	return IsVisible(q, Prune(v, answers))
}

// Prune drops answers to questions that are hidden. Questions are decided in
// dependency order against the already-pruned answers, so hiding one question
// also hides anything that only appeared because of its answer. Answers to ids
// outside the schema are dropped too.
func Prune(v *schema.Validated, answers answer.Map) answer.Map {
	kept := answer.Map{}
	for _, id := range v.TopologicalOrder() {
		value, ok := answers[id]
		if !ok || value == nil {
			continue
		}
		q, _ := v.Question(id)
		if IsVisible(q, kept) {
			kept[id] = value
		}
	}
	return kept
}

// MissingRequired lists visible required questions that have no answer, in
// display order.
func MissingRequired(v *schema.Validated, answers answer.Map) []string {
	missing := []string{}
	for _, q := range Visible(v, answers) {
		if q.IsRequired() && !answers.Has(q.ID) {
			missing = append(missing, q.ID)
		}
	}
	return missing
}
