package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAnswer(t *testing.T) {
	choice := Question{ID: "c", Type: TypeRadio, Options: []Option{{Value: ptr(0.0), Label: "No"}, {Value: ptr(1.0), Label: "Yes"}}}
	boxes := Question{ID: "b", Type: TypeCheckbox, Options: choice.Options}
	numeric := Question{ID: "n", Type: TypeNumeric, Min: ptr(0.0), Max: ptr(10.0)}
	text := Question{ID: "t", Type: TypeText, MaxLength: ptr(3)}
	flag := Question{ID: "f", Type: TypeBoolean}

	tests := []struct {
		name  string
		q     Question
		value any
		ok    bool
	}{
		{"option", choice, 1.0, true},
		{"option as string", choice, "0", true},
		{"not an option", choice, 2.0, false},
		{"checkbox list", boxes, []any{0.0, 1.0}, true},
		{"checkbox list with stranger", boxes, []any{0.0, 5.0}, false},
		{"checkbox single", boxes, 1.0, true},
		{"numeric in range", numeric, 10.0, true},
		{"numeric below", numeric, -1.0, false},
		{"numeric above", numeric, 11.0, false},
		{"numeric garbage", numeric, "abc", false},
		{"text fits", text, "héy", true},
		{"text too long", text, "abcd", false},
		{"text wrong type", text, 3.0, false},
		{"bool", flag, true, true},
		{"bool as number", flag, 1.0, true},
		{"bool garbage", flag, 2.0, false},
		{"nil", choice, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.CheckAnswer(tt.value)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidAnswer)
		})
	}
}
