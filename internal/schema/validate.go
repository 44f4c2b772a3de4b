package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Schema is an ordered question set.
type Schema struct {
	Questions []Question `json:"questions"`
}

const (
	msgNotObject    = "schema must be a JSON object"
	msgNoQuestions  = "schema must contain a questions array"
	msgEmptySchema  = "schema must contain at least one question"
	msgCycle        = "circular showIf dependency: %s"
	msgCycleWarning = "circular dependency %s will cause infinite loops: these questions can never settle on shown or hidden"
)

// Report is the outcome of validating a schema. Valid is true exactly when
// Errors is empty.
type Report struct {
	Valid          bool                `json:"valid"`
	Errors         []string            `json:"errors"`
	Warnings       []string            `json:"warnings"`
	QuestionErrors map[string][]string `json:"questionErrors"`
}

func newReport() Report {
	return Report{
		Errors:         []string{},
		Warnings:       []string{},
		QuestionErrors: map[string][]string{},
	}
}

func structural(msg string) Report {
	r := newReport()
	r.Errors = append(r.Errors, msg)
	return r
}

// Warn appends non-fatal warnings; validity is unchanged.
func (r *Report) Warn(warnings ...string) {
	r.Warnings = append(r.Warnings, warnings...)
}

// question records a problem scoped to q, attributing it to q's id when it has one.
func (r *Report) question(q Question, index int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Errors = append(r.Errors, label(q, index)+": "+msg)
	if id := strings.TrimSpace(q.ID); id != "" {
		r.QuestionErrors[q.ID] = append(r.QuestionErrors[q.ID], msg)
	}
}

// Parse decodes a raw schema document. Structural problems (not an object, no
// questions array) are returned as the error; per-question problems are kept
// for Validate.
func Parse(raw []byte) (Schema, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return Schema{}, errors.New(msgNotObject)
	}
	items, ok := doc["questions"]
	if !ok || bytes.Equal(bytes.TrimSpace(items), []byte("null")) {
		return Schema{}, errors.New(msgNoQuestions)
	}
	var s Schema
	if err := json.Unmarshal(items, &s.Questions); err != nil {
		return Schema{}, errors.New(msgNoQuestions)
	}
	return s, nil
}

// ValidateJSON parses and validates a raw schema document. It never fails;
// malformed documents produce a single top-level error.
func ValidateJSON(raw []byte) Report {
	s, err := Parse(raw)
	if err != nil {
		return structural(err.Error())
	}
	return Validate(s)
}

// Validate checks every question and the showIf dependency graph, collecting
// all problems rather than stopping at the first.
func Validate(s Schema) Report {
	if len(s.Questions) == 0 {
		return structural(msgEmptySchema)
	}

	r := newReport()
	ids := make(map[string]int, len(s.Questions))
	for i, q := range s.Questions {
		if id := strings.TrimSpace(q.ID); id != "" {
			if _, ok := ids[q.ID]; !ok {
				ids[q.ID] = i
			}
		}
	}

	for i, q := range s.Questions {
		checkQuestion(&r, q, i, ids)
	}

	cycles := FindCycles(BuildGraph(s.Questions))
	for _, cycle := range cycles.Cycles {
		chain := FormatCycle(cycle)
		r.Errors = append(r.Errors, fmt.Sprintf(msgCycle, chain))
		r.Warnings = append(r.Warnings, fmt.Sprintf(msgCycleWarning, chain))
		for _, id := range cycle {
			if _, known := ids[id]; known {
				r.QuestionErrors[id] = append(r.QuestionErrors[id], "part of circular showIf dependency "+chain)
			}
		}
	}

	r.Valid = len(r.Errors) == 0
	return r
}

func checkQuestion(r *Report, q Question, index int, ids map[string]int) {
	for _, p := range q.problems {
		r.question(q, index, "%s", p)
	}

	switch {
	case q.ID == "":
		r.question(q, index, "id is required")
	case strings.TrimSpace(q.ID) == "":
		r.question(q, index, "id must not be blank")
	case ids[q.ID] != index:
		r.question(q, index, "duplicate id (first used by question #%d)", ids[q.ID]+1)
	}

	switch {
	case q.Text == "":
		r.question(q, index, "text is required")
	case strings.TrimSpace(q.Text) == "":
		r.question(q, index, "text must not be blank")
	}

	switch {
	case q.Type == "":
		r.question(q, index, "type is required")
	case !q.Type.Valid():
		r.question(q, index, "type %q is not one of %s", q.Type, typeList())
	}

	if q.Type.HasOptions() {
		if len(q.Options) < 2 {
			r.question(q, index, "%s questions need at least 2 options", q.Type)
		}
		for i, opt := range q.Options {
			if opt.Value == nil {
				r.question(q, index, "option %d is missing a value", i+1)
			}
			if strings.TrimSpace(opt.Label) == "" {
				r.question(q, index, "option %d is missing a label", i+1)
			}
		}
	}

	if q.Type == TypeNumeric && q.Min != nil && q.Max != nil && *q.Min > *q.Max {
		r.question(q, index, "min (%g) must not exceed max (%g)", *q.Min, *q.Max)
	}

	if q.Type.IsText() && q.MaxLength != nil && *q.MaxLength < 0 {
		r.question(q, index, "maxLength must be a non-negative integer")
	}

	if q.IsCritical && strings.TrimSpace(q.HelpText) == "" {
		r.question(q, index, "critical questions must include helpText")
	}

	if q.ShowIf != nil {
		for _, ref := range References(q.ShowIf) {
			if _, ok := ids[ref]; !ok {
				r.question(q, index, "showIf references unknown question %q", ref)
			}
		}
	}
}

func typeList() string {
	names := make([]string, len(Types))
	for i, t := range Types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// Validated is a schema that passed Validate. It can only be obtained from
// Compile, so holding one guarantees unique ids, resolvable references and an
// acyclic dependency graph.
type Validated struct {
	questions []Question
	index     map[string]int
	graph     Graph
	order     []string
}

// Compile validates s and, when valid, returns it as a Validated schema.
func Compile(s Schema) (*Validated, Report) {
	report := Validate(s)
	if !report.Valid {
		return nil, report
	}

	v := &Validated{
		questions: append([]Question(nil), s.Questions...),
		index:     make(map[string]int, len(s.Questions)),
		graph:     BuildGraph(s.Questions),
	}
	for i, q := range v.questions {
		v.index[q.ID] = i
	}
	v.order = v.graph.topologicalOrder()
	return v, report
}

// Questions returns the questions in authoring order.
func (v *Validated) Questions() []Question {
	return append([]Question(nil), v.questions...)
}

// Question looks up a question by id.
func (v *Validated) Question(id string) (Question, bool) {
	i, ok := v.index[id]
	if !ok {
		return Question{}, false
	}
	return v.questions[i], true
}

// Position is the authoring index of id, or -1.
func (v *Validated) Position(id string) int {
	i, ok := v.index[id]
	if !ok {
		return -1
	}
	return i
}

// Graph is the schema's dependency graph.
func (v *Validated) Graph() Graph {
	return v.graph
}

// TopologicalOrder lists question ids so every question follows the questions
// its showIf depends on.
func (v *Validated) TopologicalOrder() []string {
	return append([]string(nil), v.order...)
}

// IDs returns question ids in authoring order.
func (v *Validated) IDs() []string {
	ids := make([]string, len(v.questions))
	for i, q := range v.questions {
		ids[i] = q.ID
	}
	return ids
}
