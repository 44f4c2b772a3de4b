package app

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"assessment-service/internal/answer"
	"assessment-service/internal/branching"
	"assessment-service/internal/domain"
	"assessment-service/internal/schema"
	"assessment-service/internal/scoring"
)

// AttemptRepository abstracts where in-progress attempts live (in-memory, Redis, etc).
type AttemptRepository interface {
	GetOrCreate(ctx context.Context, attemptID, assessmentID string) (*Attempt, error)
	Get(ctx context.Context, attemptID string) (*Attempt, bool)
	Record(ctx context.Context, attemptID, questionID string, value any) error
	Delete(ctx context.Context, attemptID string)
}

// AssessmentRepository loads and stores assessments (through a cache when configured).
type AssessmentRepository interface {
	GetAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error)
	SaveAssessment(ctx context.Context, assessment domain.Assessment) error
}

// ResultRepository persists scored attempts.
type ResultRepository interface {
	SaveResult(ctx context.Context, result domain.Result) error
}

// AssessmentService contains the assessment use cases.
type AssessmentService struct {
	attempts    AttemptRepository
	assessments AssessmentRepository
	results     ResultRepository
	now         func() time.Time
	newID       func() string
}

func NewAssessmentService(attempts AttemptRepository, assessments AssessmentRepository, results ResultRepository) *AssessmentService {
	return &AssessmentService{
		attempts:    attempts,
		assessments: assessments,
		results:     results,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// WithClock swaps the time source, for deterministic result timestamps in tests.
func (s *AssessmentService) WithClock(now func() time.Time) *AssessmentService {
	s.now = now
	return s
}

// ValidateSchema runs the validator; it never fails.
func (s *AssessmentService) ValidateSchema(sc schema.Schema) schema.Report {
	return schema.Validate(sc)
}

// ValidateAssessment validates the question schema and appends scoring-rule
// lint warnings. Lint never changes validity.
func ValidateAssessment(a domain.Assessment) schema.Report {
	report := schema.Validate(a.Schema())
	if report.Valid {
		report.Warn(scoring.Lint(a.ScoringRules, a.RiskRules, questionIDs(a.Questions))...)
	}
	return report
}

// DecodeAssessment parses a raw assessment document. Structural schema problems
// and undecodable scoring rules are reported rather than returned as errors.
func DecodeAssessment(raw []byte) (domain.Assessment, schema.Report) {
	if _, err := schema.Parse(raw); err != nil {
		return domain.Assessment{}, schema.ValidateJSON(raw)
	}

	var a domain.Assessment
	if err := json.Unmarshal(raw, &a); err != nil {
		report := schema.Report{
			Errors:         []string{"assessment is malformed: " + err.Error()},
			Warnings:       []string{},
			QuestionErrors: map[string][]string{},
		}
		return domain.Assessment{}, report
	}
	return a, ValidateAssessment(a)
}

// SaveAssessment validates and persists an assessment. Invalid assessments are
// never written; the report explains why.
func (s *AssessmentService) SaveAssessment(ctx context.Context, a domain.Assessment) (schema.Report, error) {
	report := ValidateAssessment(a)
	if !report.Valid {
		return report, domain.ErrInvalidSchema
	}

	a.UpdatedAt = s.now().UTC()
	if err := s.assessments.SaveAssessment(ctx, a); err != nil {
		return report, eris.Wrapf(err, "save assessment %s", a.ID)
	}
	zap.L().Info("assessment saved",
		zap.String("assessment_id", a.ID),
		zap.Int("questions", len(a.Questions)),
		zap.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}

// Score computes a result for a set of answers without creating an attempt.
// Answers to questions hidden by branching are ignored.
func (s *AssessmentService) Score(ctx context.Context, assessmentID string, answers answer.Map) (scoring.Result, error) {
	a, v, err := s.load(ctx, assessmentID)
	if err != nil {
		return scoring.Result{}, err
	}
	return scoring.Compute(a.ScoringRules, a.RiskRules, branching.Prune(v, answers)), nil
}

// StartAttempt opens a new attempt, or resumes an existing one when attemptID
// is already known. An empty attemptID allocates a fresh id.
func (s *AssessmentService) StartAttempt(ctx context.Context, assessmentID, attemptID string) (domain.Progress, error) {
	_, v, err := s.load(ctx, assessmentID)
	if err != nil {
		return domain.Progress{}, err
	}
	if attemptID == "" {
		attemptID = s.newID()
	}

	attempt, err := s.attempts.GetOrCreate(ctx, attemptID, assessmentID)
	if err != nil {
		return domain.Progress{}, err
	}
	if attempt.AssessmentID() != assessmentID {
		return domain.Progress{}, eris.Wrapf(domain.ErrAttemptNotFound, "attempt %s belongs to another assessment", attemptID)
	}
	return attempt.bind(v), nil
}

// Answer records one answer. The question must exist and be visible given the
// answers so far, and the value must suit the question type. A nil value
// clears the answer.
func (s *AssessmentService) Answer(ctx context.Context, attemptID, questionID string, value any) (domain.Progress, error) {
	attempt, _, v, err := s.attempt(ctx, attemptID)
	if err != nil {
		return domain.Progress{}, err
	}

	q, ok := v.Question(questionID)
	if !ok {
		return domain.Progress{}, eris.Wrapf(domain.ErrQuestionNotFound, "question %s", questionID)
	}
	if value != nil {
		if !branching.Shown(v, q.ID, attempt.Answers()) {
			return domain.Progress{}, eris.Wrapf(domain.ErrQuestionHidden, "question %s", questionID)
		}
		if err := q.CheckAnswer(value); err != nil {
			return domain.Progress{}, err
		}
	}

	if err := s.attempts.Record(ctx, attemptID, questionID, value); err != nil {
		return domain.Progress{}, eris.Wrapf(err, "record answer %s/%s", attemptID, questionID)
	}
	return attempt.set(questionID, value)
}

// Subscribe returns a channel that receives progress snapshots for an attempt.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *AssessmentService) Subscribe(ctx context.Context, attemptID string) (<-chan domain.Progress, func(), error) {
	attempt, _, _, err := s.attempt(ctx, attemptID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := attempt.subscribe()
	return ch, cancel, nil
}

// Submit scores a finished attempt exactly once. Hidden answers are pruned
// before scoring; visible required questions must all be answered.
func (s *AssessmentService) Submit(ctx context.Context, attemptID string) (domain.Result, error) {
	attempt, a, v, err := s.attempt(ctx, attemptID)
	if err != nil {
		return domain.Result{}, err
	}
	if missing := branching.MissingRequired(v, attempt.Answers()); len(missing) > 0 {
		return domain.Result{}, eris.Wrapf(domain.ErrIncompleteAttempt, "missing %s", strings.Join(missing, ", "))
	}

	answers, err := attempt.freeze()
	if err != nil {
		return domain.Result{}, err
	}

	pruned := branching.Prune(v, answers)
	result := domain.Result{
		ID:           s.newID(),
		AttemptID:    attemptID,
		AssessmentID: attempt.AssessmentID(),
		Answers:      pruned,
		Result:       scoring.Compute(a.ScoringRules, a.RiskRules, pruned),
		CompletedAt:  s.now().UTC(),
	}
	if err := s.results.SaveResult(ctx, result); err != nil {
		attempt.thaw()
		return domain.Result{}, eris.Wrapf(err, "save result for attempt %s", attemptID)
	}

	attempt.finish()
	s.attempts.Delete(ctx, attemptID)

	if len(result.RiskFlags) > 0 {
		zap.L().Warn("attempt raised risk flags",
			zap.String("attempt_id", attemptID),
			zap.String("assessment_id", result.AssessmentID),
			zap.Strings("flags", sortedFlags(result.RiskFlags)),
		)
	}
	return result, nil
}

// attempt fetches a live attempt and rebinds it to the current schema.
func (s *AssessmentService) attempt(ctx context.Context, attemptID string) (*Attempt, domain.Assessment, *schema.Validated, error) {
	attempt, ok := s.attempts.Get(ctx, attemptID)
	if !ok {
		return nil, domain.Assessment{}, nil, domain.ErrAttemptNotFound
	}
	if attempt.IsSubmitted() {
		return nil, domain.Assessment{}, nil, domain.ErrAttemptSubmitted
	}
	a, v, err := s.load(ctx, attempt.AssessmentID())
	if err != nil {
		return nil, domain.Assessment{}, nil, err
	}
	attempt.use(v)
	return attempt, a, v, nil
}

// load fetches an assessment and compiles its schema. A stored schema that no
// longer validates is refused.
func (s *AssessmentService) load(ctx context.Context, assessmentID string) (domain.Assessment, *schema.Validated, error) {
	a, err := s.assessments.GetAssessment(ctx, assessmentID)
	if err != nil {
		return domain.Assessment{}, nil, err
	}
	v, report := schema.Compile(a.Schema())
	if v == nil {
		return domain.Assessment{}, nil, eris.Wrapf(domain.ErrInvalidSchema, "assessment %s: %s", assessmentID, strings.Join(report.Errors, "; "))
	}
	return a, v, nil
}

func questionIDs(questions []schema.Question) []string {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}

func sortedFlags(flags map[string]scoring.RiskFlag) []string {
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsClientError reports whether err is caused by the request rather than the service.
func IsClientError(err error) bool {
	for _, target := range []error{
		domain.ErrAssessmentNotFound,
		domain.ErrInvalidSchema,
		domain.ErrAttemptNotFound,
		domain.ErrAttemptSubmitted,
		domain.ErrIncompleteAttempt,
		domain.ErrQuestionNotFound,
		domain.ErrQuestionHidden,
		schema.ErrInvalidAnswer,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
