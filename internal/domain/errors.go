package domain

import "errors"

var (
	// ErrAssessmentNotFound indicates the assessment could not be loaded.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrInvalidSchema is returned when a schema fails validation; the caller gets the report alongside.
	ErrInvalidSchema = errors.New("assessment schema is invalid")
	// ErrAttemptNotFound is returned when an attempt has not been started.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptSubmitted is returned when an attempt is changed after submission.
	ErrAttemptSubmitted = errors.New("attempt already submitted")
	// ErrIncompleteAttempt is returned when visible required questions are unanswered at submission.
	ErrIncompleteAttempt = errors.New("attempt has unanswered required questions")
	// ErrQuestionNotFound indicates an answer names a question outside the assessment.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrQuestionHidden indicates an answer to a question the respondent cannot currently see.
	ErrQuestionHidden = errors.New("question is not visible")
)
