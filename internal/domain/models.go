package domain

import (
	"time"

	"assessment-service/internal/answer"
	"assessment-service/internal/schema"
	"assessment-service/internal/scoring"
)

// Assessment is the stored record an administrator authors: the question
// schema plus the rules used to score completed attempts.
type Assessment struct {
	ID           string            `json:"id"`
	Title        string            `json:"title,omitempty"`
	Questions    []schema.Question `json:"questions"`
	ScoringRules scoring.Rules     `json:"scoringRules"`
	RiskRules    scoring.RiskRules `json:"riskRules,omitempty"`
	UpdatedAt    time.Time         `json:"updatedAt,omitempty"`
}

// Schema returns the question set for validation and branching.
func (a Assessment) Schema() schema.Schema {
	return schema.Schema{Questions: a.Questions}
}

// Progress is what a respondent-facing surface needs after each answer.
type Progress struct {
	AttemptID    string   `json:"attemptId"`
	AssessmentID string   `json:"assessmentId"`
	Visible      []string `json:"visible"`
	Next         string   `json:"next,omitempty"`
	Answered     int      `json:"answered"`
	Missing      []string `json:"missing"`
	Complete     bool     `json:"complete"`
	Submitted    bool     `json:"submitted"`
}

// Result is the scored outcome of one completed attempt. It is created once
// and never modified.
type Result struct {
	ID           string     `json:"id"`
	AttemptID    string     `json:"attemptId"`
	AssessmentID string     `json:"assessmentId"`
	Answers      answer.Map `json:"answers"`
	scoring.Result
	CompletedAt time.Time `json:"completedAt"`
}
