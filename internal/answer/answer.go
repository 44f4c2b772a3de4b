// Package answer holds the respondent answer map and the coercion rules every
// consumer applies when reading raw answer values.
package answer

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Map is a respondent's answers keyed by question id. Values arrive from JSON
// and are treated as unknown-typed until coerced.
type Map map[string]any

// Has reports whether an answer is recorded for id. A nil value counts as unanswered.
func (m Map) Has(id string) bool {
	v, ok := m[id]
	return ok && v != nil
}

// Keys returns the answered question ids in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy; a nil map clones to an empty one.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Number converts v to a finite float64. Booleans count as 1 and 0, strings are
// parsed after trimming. Anything else, NaN and infinities report false.
func Number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// SafeNumber is the scoring clamp: absent, malformed or non-finite values
// contribute 0 instead of failing.
func SafeNumber(v any) float64 {
	f, ok := Number(v)
	if !ok {
		return 0
	}
	return f
}

// Equal compares a recorded answer with a configured value. Two strings
// compare as text; otherwise both sides must coerce to the same number, so
// 1, 1.0, "1" and true are all equal. A nil answer never equals anything.
func Equal(got, want any) bool {
	if got == nil || want == nil {
		return false
	}
	gs, gIsString := got.(string)
	ws, wIsString := want.(string)
	if gIsString && wIsString {
		return gs == ws
	}
	gn, ok := Number(got)
	if !ok {
		return false
	}
	wn, ok := Number(want)
	if !ok {
		return false
	}
	return gn == wn
}
