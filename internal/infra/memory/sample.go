package memory

import (
	"assessment-service/internal/domain"
	"assessment-service/internal/schema"
	"assessment-service/internal/scoring"
)

// SampleAssessmentID names the demo assessment served when no database is configured.
const SampleAssessmentID = "mood-check"

// SampleAssessments returns a small two-item mood screen with a branching
// safety question.
func SampleAssessments() map[string]domain.Assessment {
	frequency := func(id, text string) schema.Question {
		return schema.Question{
			ID:   id,
			Text: text,
			Type: schema.TypeLikert,
			Options: []schema.Option{
				{Value: float(0), Label: "Not at all"},
				{Value: float(1), Label: "Several days"},
				{Value: float(2), Label: "More than half the days"},
				{Value: float(3), Label: "Nearly every day"},
			},
		}
	}

	notRequired := false
	notes := schema.Question{
		ID:        "notes",
		Text:      "Anything else you would like us to know?",
		Type:      schema.TypeTextarea,
		Required:  &notRequired,
		MaxLength: intPtr(500),
		Order:     10,
	}
	safety := schema.Question{
		ID:         "safety",
		Text:       "Have you had thoughts that you would be better off dead, or of hurting yourself?",
		Type:       schema.TypeBoolean,
		IsCritical: true,
		HelpText:   "If you are in crisis, call or text 988 to reach the Suicide & Crisis Lifeline.",
		ShowIf: schema.Any{
			schema.Equals{QuestionID: "interest", Value: 3.0},
			schema.Equals{QuestionID: "mood", Value: 3.0},
		},
	}

	return map[string]domain.Assessment{
		SampleAssessmentID: {
			ID:    SampleAssessmentID,
			Title: "Two-week mood check",
			Questions: []schema.Question{
				frequency("interest", "Little interest or pleasure in doing things?"),
				frequency("mood", "Feeling down, depressed, or hopeless?"),
				safety,
				notes,
			},
			ScoringRules: scoring.Rules{
				Type:  scoring.TypeSum,
				Items: []string{"interest", "mood"},
				Subscales: map[string][]string{
					"anhedonia": {"interest"},
					"mood":      {"mood"},
				},
				Bands: []scoring.Band{
					{Min: 0.0, Max: 2.0, Label: "minimal"},
					{Min: 3.0, Max: 4.0, Label: "mild"},
					{Min: 5.0, Max: 6.0, Label: "elevated"},
				},
			},
			RiskRules: scoring.RiskRules{
				"self_harm": {
					QuestionID: "safety",
					Operator:   "==",
					Value:      true,
					HelpText:   "Respondent reported thoughts of self-harm. Follow the crisis protocol.",
				},
			},
		},
	}
}

func float(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
