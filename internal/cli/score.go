package cli

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"assessment-service/internal/answer"
	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"assessment-service/internal/infra/memory"
)

// localAssessmentID names an assessment file that carries no id.
const localAssessmentID = "local"

// NewScoreCmd scores an answers file against an assessment file offline.
func NewScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score ASSESSMENT_FILE ANSWERS_FILE",
		Short: "Score answers against an assessment without a server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readDocument(args[0])
			if err != nil {
				return err
			}
			a, report := app.DecodeAssessment(raw)
			if !report.Valid {
				_ = printJSON(cmd.ErrOrStderr(), report)
				return eris.Errorf("%s: schema is invalid", args[0])
			}
			if a.ID == "" {
				a.ID = localAssessmentID
			}

			answersRaw, err := readDocument(args[1])
			if err != nil {
				return err
			}
			var answers answer.Map
			if err := json.Unmarshal(answersRaw, &answers); err != nil {
				return eris.Wrapf(err, "%s: answers must be an object of question id to value", args[1])
			}

			store := memory.NewStaticAssessmentStore(map[string]domain.Assessment{a.ID: a})
			service := app.NewAssessmentService(
				memory.NewAttemptStore(),
				memory.NewAssessmentRepository(store, time.Minute),
				memory.NewResultStore(),
			)
			result, err := service.Score(cmd.Context(), a.ID, answers)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}
