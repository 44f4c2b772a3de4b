// Package schema models an assessment's question set and validates it before
// it can be stored or shown to respondents.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Type is a question's input type.
type Type string

const (
	TypeRadio    Type = "radio"
	TypeCheckbox Type = "checkbox"
	TypeLikert   Type = "likert"
	TypeText     Type = "text"
	TypeTextarea Type = "textarea"
	TypeNumeric  Type = "numeric"
	TypeBoolean  Type = "boolean"
)

// Types lists every accepted question type in display order.
var Types = []Type{TypeRadio, TypeCheckbox, TypeLikert, TypeText, TypeTextarea, TypeNumeric, TypeBoolean}

// Valid reports whether t is one of Types.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// HasOptions reports whether answers are picked from an option list.
func (t Type) HasOptions() bool {
	return t == TypeRadio || t == TypeCheckbox || t == TypeLikert
}

// IsText reports whether answers are free text.
func (t Type) IsText() bool {
	return t == TypeText || t == TypeTextarea
}

// Option is one selectable answer. Value is nil when the source omitted it.
type Option struct {
	Value *float64 `json:"value"`
	Label string   `json:"label"`
}

// Question is one entry of a schema.
type Question struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Type       Type      `json:"type"`
	Required   *bool     `json:"required,omitempty"` // nil means required
	IsCritical bool      `json:"isCritical,omitempty"`
	HelpText   string    `json:"helpText,omitempty"`
	Order      int       `json:"order,omitempty"`
	Options    []Option  `json:"options,omitempty"`
	Min        *float64  `json:"min,omitempty"`
	Max        *float64  `json:"max,omitempty"`
	MaxLength  *int      `json:"maxLength,omitempty"`
	ShowIf     Condition `json:"showIf,omitempty"`

	// problems collects fields that could not be decoded; the validator reports them.
	problems []string
}

// IsRequired applies the default of true.
func (q Question) IsRequired() bool {
	return q.Required == nil || *q.Required
}

// UnmarshalJSON decodes leniently: wrongly typed fields are recorded as
// problems instead of failing the whole document.
func (q *Question) UnmarshalJSON(data []byte) error {
	*q = Question{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		q.problems = append(q.problems, "question must be an object")
		return nil
	}
	r := fieldReader{fields: fields}

	q.ID = r.str("id")
	q.Text = r.str("text")
	q.Type = Type(r.str("type"))
	q.Required = r.boolean("required")
	if critical := r.boolean("isCritical"); critical != nil {
		q.IsCritical = *critical
	}
	q.HelpText = r.str("helpText")
	if order := r.number("order"); order != nil {
		q.Order = int(*order)
	}
	q.Options = r.options("options")
	q.Min = r.number("min")
	q.Max = r.number("max")
	q.MaxLength = r.length("maxLength")

	if raw, key, ok := r.first("showIf", "show_if"); ok {
		c, err := ParseCondition(raw)
		if err != nil {
			r.problem("%s is malformed: %v", key, err)
		} else {
			q.ShowIf = c
		}
	}

	q.problems = r.problems
	return nil
}

type fieldReader struct {
	fields   map[string]json.RawMessage
	problems []string
}

func (r *fieldReader) problem(format string, args ...any) {
	r.problems = append(r.problems, fmt.Sprintf(format, args...))
}

// first returns the first of keys that is present and not null.
func (r *fieldReader) first(keys ...string) (json.RawMessage, string, bool) {
	for _, key := range keys {
		raw, ok := r.fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		return raw, key, true
	}
	return nil, "", false
}

func (r *fieldReader) str(key string) string {
	raw, _, ok := r.first(key)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		r.problem("%s must be a string", key)
		return ""
	}
	return s
}

func (r *fieldReader) boolean(key string) *bool {
	raw, _, ok := r.first(key)
	if !ok {
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		r.problem("%s must be true or false", key)
		return nil
	}
	return &b
}

func (r *fieldReader) number(key string) *float64 {
	raw, _, ok := r.first(key)
	if !ok {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		r.problem("%s must be a number", key)
		return nil
	}
	return &f
}

func (r *fieldReader) length(key string) *int {
	f := r.number(key)
	if f == nil {
		return nil
	}
	if *f < 0 || *f != math.Trunc(*f) {
		r.problem("%s must be a non-negative integer", key)
		return nil
	}
	n := int(*f)
	return &n
}

func (r *fieldReader) options(key string) []Option {
	raw, _, ok := r.first(key)
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		r.problem("%s must be a list", key)
		return nil
	}

	options := make([]Option, 0, len(items))
	for i, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			r.problem("option %d must be an object", i+1)
			continue
		}
		opt := fieldReader{fields: fields}
		var o Option
		if v, _, ok := opt.first("value"); ok {
			var f float64
			if err := json.Unmarshal(v, &f); err != nil {
				r.problem("option %d value must be a number", i+1)
			} else {
				o.Value = &f
			}
		}
		if l, _, ok := opt.first("label"); ok {
			if err := json.Unmarshal(l, &o.Label); err != nil {
				r.problem("option %d label must be a string", i+1)
			}
		}
		options = append(options, o)
	}
	return options
}

// label names a question in messages: its id when set, else its position.
func label(q Question, index int) string {
	if strings.TrimSpace(q.ID) != "" {
		return fmt.Sprintf("question %q", q.ID)
	}
	return fmt.Sprintf("question #%d", index+1)
}
