package scoring

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-service/internal/answer"
)

func TestComputeSumWithBands(t *testing.T) {
	rules := Rules{
		Type:  TypeSum,
		Items: []string{"q1", "q2"},
		Bands: []Band{{Min: 0, Max: 3, Label: "Low"}, {Min: 4, Max: 6, Label: "High"}},
	}

	got := Compute(rules, nil, answer.Map{"q1": 2, "q2": 1})
	assert.Equal(t, 3.0, got.Score)
	assert.Equal(t, "Low", got.Band)
	assert.NotNil(t, got.Subscales)
	assert.NotNil(t, got.RiskFlags)
	assert.Empty(t, got.RiskFlags)
}

func TestComputeWeightedSum(t *testing.T) {
	rules := Rules{
		Type:    TypeWeightedSum,
		Items:   []string{"q1", "q2"},
		Weights: map[string]any{"q1": 2, "q2": 1},
	}

	got := Compute(rules, nil, answer.Map{"q1": 3, "q2": 4})
	assert.Equal(t, 10.0, got.Score)
}

func TestTotal(t *testing.T) {
	tests := []struct {
		name    string
		rules   Rules
		answers answer.Map
		want    float64
	}{
		{"items default to every answer", Rules{}, answer.Map{"a": 1, "b": 2, "c": "3"}, 6},
		{"explicit empty items", Rules{Items: []string{}}, answer.Map{"a": 1}, 0},
		{"unlisted answers ignored", Rules{Items: []string{"a"}}, answer.Map{"a": 1, "b": 5}, 1},
		{"missing item counts as zero", Rules{Items: []string{"a", "z"}}, answer.Map{"a": 1}, 1},
		{"garbage answer counts as zero", Rules{Items: []string{"q1"}}, answer.Map{"q1": "not-a-number"}, 0},
		{"missing weight defaults to 1", Rules{Type: TypeWeightedSum, Weights: map[string]any{"a": 3}}, answer.Map{"a": 1, "b": 2}, 5},
		{"garbage weight counts as zero", Rules{Type: TypeWeightedSum, Weights: map[string]any{"a": "x"}}, answer.Map{"a": 4}, 0},
		{"weights ignored for sum", Rules{Type: TypeSum, Weights: map[string]any{"a": 10}}, answer.Map{"a": 1}, 1},
		{"unknown type sums", Rules{Type: "median"}, answer.Map{"a": 1, "b": 2}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Total(tt.rules, tt.answers), 1e-9)
		})
	}
}

func TestGarbageNeverPropagatesNaN(t *testing.T) {
	rules := Rules{
		Type:    TypeWeightedSum,
		Weights: map[string]any{"q1": math.NaN()},
		Bands:   []Band{{Min: "x", Max: nil, Label: "Zero"}},
	}

	got := Compute(rules, nil, answer.Map{"q1": "not-a-number", "q2": math.Inf(1), "q3": map[string]any{}})
	assert.False(t, math.IsNaN(got.Score))
	assert.False(t, math.IsInf(got.Score, 0))
	assert.Equal(t, 0.0, got.Score)
	assert.Equal(t, "Zero", got.Band)
}

func TestSubscalesIgnoreWeights(t *testing.T) {
	rules := Rules{
		Type:      TypeWeightedSum,
		Items:     []string{"q1", "q2", "q3"},
		Weights:   map[string]any{"q1": 10, "q2": 10, "q3": 10},
		Subscales: map[string][]string{"mood": {"q1", "q2"}, "sleep": {"q3", "q4"}},
	}

	got := Compute(rules, nil, answer.Map{"q1": 1, "q2": 2, "q3": 3})
	assert.Equal(t, 60.0, got.Score)
	assert.Equal(t, map[string]float64{"mood": 3, "sleep": 3}, got.Subscales)
}

func TestBandFor(t *testing.T) {
	bands := []Band{
		{Min: 0, Max: 4, Label: "Minimal"},
		{Min: 5, Max: 9, Label: "Mild"},
		{Min: 8, Max: 27, Label: "Overlapping"},
	}

	tests := []struct {
		score float64
		want  string
	}{
		{0, "Minimal"},
		{4, "Minimal"},
		{4.5, ""},
		{5, "Mild"},
		{9, "Mild"},
		{8, "Mild"},
		{10, "Overlapping"},
		{28, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BandFor(bands, tt.score), "score %v", tt.score)
	}
	assert.Equal(t, "", BandFor(nil, 3))
}

func TestResolveItems(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ResolveItems(Rules{}, answer.Map{"b": 1, "a": 2}))
	assert.Equal(t, []string{"z"}, ResolveItems(Rules{Items: []string{"z"}}, answer.Map{"b": 1}))
}

func TestComputeEmptyEverything(t *testing.T) {
	got := Compute(Rules{}, nil, nil)
	assert.Equal(t, Result{Score: 0, Band: "", Subscales: map[string]float64{}, RiskFlags: map[string]RiskFlag{}}, got)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"score":0,"band":"","subscales":{},"riskFlags":{}}`, string(data))
}

func TestRulesDecodeFromDocument(t *testing.T) {
	var rules Rules
	require.NoError(t, json.Unmarshal([]byte(`{
		"type": "weighted_sum",
		"items": ["q1", "q2"],
		"weights": {"q1": 2},
		"bands": [{"min": 0, "max": 10, "label": "Any"}]
	}`), &rules))

	got := Compute(rules, nil, answer.Map{"q1": 3.0, "q2": 4.0})
	assert.Equal(t, 10.0, got.Score)
	assert.Equal(t, "Any", got.Band)

	var absent Rules
	require.NoError(t, json.Unmarshal([]byte(`{}`), &absent))
	assert.Nil(t, absent.Items)
}
