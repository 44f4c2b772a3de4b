package schema

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"assessment-service/internal/answer"
)

// ErrInvalidAnswer is wrapped by every CheckAnswer failure.
var ErrInvalidAnswer = errors.New("invalid answer")

// CheckAnswer reports whether v is an acceptable answer to q. Unknown types
// accept anything.
func (q Question) CheckAnswer(v any) error {
	if v == nil {
		return fmt.Errorf("%w: question %q has no value", ErrInvalidAnswer, q.ID)
	}

	switch q.Type {
	case TypeRadio, TypeLikert:
		return q.checkOption(v)
	case TypeCheckbox:
		if list, ok := v.([]any); ok {
			for _, item := range list {
				if err := q.checkOption(item); err != nil {
					return err
				}
			}
			return nil
		}
		return q.checkOption(v)
	case TypeNumeric:
		n, ok := answer.Number(v)
		if !ok {
			return fmt.Errorf("%w: question %q expects a number", ErrInvalidAnswer, q.ID)
		}
		if q.Min != nil && n < *q.Min {
			return fmt.Errorf("%w: question %q expects at least %g", ErrInvalidAnswer, q.ID, *q.Min)
		}
		if q.Max != nil && n > *q.Max {
			return fmt.Errorf("%w: question %q expects at most %g", ErrInvalidAnswer, q.ID, *q.Max)
		}
		return nil
	case TypeText, TypeTextarea:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: question %q expects text", ErrInvalidAnswer, q.ID)
		}
		if q.MaxLength != nil && utf8.RuneCountInString(s) > *q.MaxLength {
			return fmt.Errorf("%w: question %q allows at most %d characters", ErrInvalidAnswer, q.ID, *q.MaxLength)
		}
		return nil
	case TypeBoolean:
		if _, ok := v.(bool); ok {
			return nil
		}
		if n, ok := answer.Number(v); ok && (n == 0 || n == 1) {
			return nil
		}
		return fmt.Errorf("%w: question %q expects true or false", ErrInvalidAnswer, q.ID)
	}
	return nil
}

func (q Question) checkOption(v any) error {
	for _, opt := range q.Options {
		if opt.Value != nil && answer.Equal(v, *opt.Value) {
			return nil
		}
	}
	return fmt.Errorf("%w: %v is not an option of question %q", ErrInvalidAnswer, v, q.ID)
}
