package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/kvpick/internal/config"
	"github.com/oakwood-commons/kvpick/pkg/logger"
	"github.com/oakwood-commons/kvpick/pkg/selector"
	"github.com/oakwood-commons/kvpick/pkg/settings"
)

// validationResult is the outcome of validating one search text.
type validationResult struct {
	Query string `json:"query" yaml:"query"`
	Valid bool   `json:"valid" yaml:"valid"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
	Value any    `json:"value,omitempty" yaml:"value,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check that each search text exactly matches a record",
	Long: `validate looks each --query up among the records' filter values. The match
is exact and case-sensitive. The command exits with an error when any search
text matches no record.`,
	Example: `  kvpick validate persons.yaml --field nom -q ange
  kvpick validate persons.yaml --fields 'filter=nom,show=nom,get=job' -q ange -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		run := settings.FromContextOrDefault(ctx)
		lgr := *logger.FromContext(ctx)

		if len(queries) == 0 {
			return fmt.Errorf("validate needs at least one --query")
		}

		sel, _, err := newResolvedSelector(cmd, args, lgr)
		if err != nil {
			return err
		}
		defer sel.Close()

		results := make([]validationResult, 0, len(queries))
		invalid := 0
		for _, q := range queries {
			res := validationResult{Query: q}
			c, err := sel.Validate(q)
			if err != nil {
				invalid++
				res.Error = err.Error()
			} else {
				res.Valid = true
				res.Value = sel.Emit(c)
			}
			results = append(results, res)
		}
		lgr.V(1).Info("validation finished", "queries", len(queries), "invalid", invalid)

		if err := renderValidation(cmd.OutOrStdout(), results, run.Output); err != nil {
			return err
		}
		if invalid > 0 && run.ExitOnInvalid {
			return fmt.Errorf("%d of %d search text(s): %w", invalid, len(queries), selector.ErrInvalidSearch)
		}
		return nil
	},
}

func renderValidation(w io.Writer, results []validationResult, format string) error {
	switch format {
	case config.FormatJSON, config.FormatYAML:
		return encode(w, results, format)
	case "", config.FormatTable:
		rows := make([][2]string, 0, len(results))
		for _, r := range results {
			status := "valid: " + formatValue(r.Value)
			if !r.Valid {
				status = "invalid: " + r.Error
			}
			rows = append(rows, [2]string{r.Query, status})
		}
		_, err := io.WriteString(w, renderKeyValueTable(rows))
		return err
	default:
		return fmt.Errorf("invalid output format %q (use table|json|yaml)", format)
	}
}
