package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Condition is a visibility expression attached to a question. The set of
// implementations is closed: Equals, All and Any.
type Condition interface {
	condition()
}

// Equals is true when the answer recorded for QuestionID loosely equals Value.
type Equals struct {
	QuestionID string
	Value      any
}

// All is true when every child is true.
type All []Condition

// Any is true when at least one child is true.
type Any []Condition

func (Equals) condition() {}
func (All) condition()    {}
func (Any) condition()    {}

func (c Equals) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		QuestionID string `json:"questionId"`
		Equals     any    `json:"equals"`
	}{c.QuestionID, c.Value})
}

func (c All) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		And []Condition `json:"and"`
	}{[]Condition(c)})
}

func (c Any) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Or []Condition `json:"or"`
	}{[]Condition(c)})
}

// ParseCondition normalizes every accepted showIf shape onto the Condition union:
//
//	{"questionId": "q1", "equals": 1}   (also "question" and "value")
//	{"and": [...]} / {"or": [...]}
//	[...]                                implicit and
//
// JSON null yields a nil Condition.
func ParseCondition(raw json.RawMessage) (Condition, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		children, err := parseConditionList(trimmed)
		if err != nil {
			return nil, err
		}
		return All(children), nil
	case '{':
		return parseConditionObject(trimmed)
	default:
		return nil, errors.New("condition must be an object or a list of conditions")
	}
}

func parseConditionObject(raw []byte) (Condition, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode condition: %w", err)
	}

	if children, ok := fields["and"]; ok {
		list, err := parseConditionList(children)
		if err != nil {
			return nil, fmt.Errorf("and: %w", err)
		}
		return All(list), nil
	}
	if children, ok := fields["or"]; ok {
		list, err := parseConditionList(children)
		if err != nil {
			return nil, fmt.Errorf("or: %w", err)
		}
		return Any(list), nil
	}

	idRaw, ok := fields["questionId"]
	if !ok {
		idRaw, ok = fields["question"]
	}
	if !ok {
		return nil, errors.New("condition needs questionId, and, or or")
	}
	var id string
	if err := json.Unmarshal(idRaw, &id); err != nil || id == "" {
		return nil, errors.New("condition questionId must be a non-empty string")
	}

	valueRaw, ok := fields["equals"]
	if !ok {
		valueRaw, ok = fields["value"]
	}
	if !ok {
		return nil, fmt.Errorf("condition on %q has no equals value", id)
	}
	var value any
	if err := json.Unmarshal(valueRaw, &value); err != nil {
		return nil, fmt.Errorf("condition on %q: %w", id, err)
	}
	return Equals{QuestionID: id, Value: value}, nil
}

func parseConditionList(raw []byte) ([]Condition, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.New("expected a list of conditions")
	}
	out := make([]Condition, 0, len(items))
	for i, item := range items {
		c, err := ParseCondition(item)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i+1, err)
		}
		if c == nil {
			return nil, fmt.Errorf("condition %d is null", i+1)
		}
		out = append(out, c)
	}
	return out, nil
}

// References returns every question id named in c, in first-seen order.
func References(c Condition) []string {
	var ids []string
	seen := make(map[string]struct{})
	var walk func(Condition)
	walk = func(c Condition) {
		switch node := c.(type) {
		case Equals:
			if _, ok := seen[node.QuestionID]; !ok {
				seen[node.QuestionID] = struct{}{}
				ids = append(ids, node.QuestionID)
			}
		case All:
			for _, child := range node {
				walk(child)
			}
		case Any:
			for _, child := range node {
				walk(child)
			}
		}
	}
	walk(c)
	return ids
}
