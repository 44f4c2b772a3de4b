package cli

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"assessment-service/internal/app"
)

// NewValidateCmd validates an assessment or bare schema file and prints the report.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate an assessment schema (JSON or YAML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readDocument(args[0])
			if err != nil {
				return err
			}
			_, report := app.DecodeAssessment(raw)
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.Valid {
				return eris.Errorf("%s: schema is invalid (%d errors)", args[0], len(report.Errors))
			}
			return nil
		},
	}
}
