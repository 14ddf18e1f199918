package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/kvpick/internal/config"
	"github.com/oakwood-commons/kvpick/internal/limiter"
	"github.com/oakwood-commons/kvpick/pkg/logger"
	"github.com/oakwood-commons/kvpick/pkg/records"
	"github.com/oakwood-commons/kvpick/pkg/selector"
	"github.com/oakwood-commons/kvpick/pkg/settings"
)

var filterCmd = &cobra.Command{
	Use:   "filter [file]",
	Short: "Print the records whose displayed text contains the search text",
	Long: `filter applies the case-insensitive substring match used by the dropdown
view, without debounce or validation. An empty or missing --query keeps every
record.`,
	Example: `  kvpick filter persons.yaml --field nom -q an
  kvpick filter persons.yaml --field nom -q an -o json --limit 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		run := settings.FromContextOrDefault(ctx)

		if len(queries) > 1 {
			return fmt.Errorf("filter takes at most one --query, got %d", len(queries))
		}
		query := ""
		if len(queries) == 1 {
			query = queries[0]
		}

		sel, opts, err := newResolvedSelector(cmd, args, *logger.FromContext(ctx))
		if err != nil {
			return err
		}
		defer sel.Close()

		view := limiter.Apply(opts.window, selector.FilterView(sel.Candidates(), func(r records.Record) string {
			return sel.DisplayText(r, true)
		}, query))
		return renderRecords(cmd.OutOrStdout(), view, run.Output)
	},
}

func renderRecords(w io.Writer, recs []records.Record, format string) error {
	switch format {
	case config.FormatJSON, config.FormatYAML:
		if recs == nil {
			recs = []records.Record{}
		}
		return encode(w, recs, format)
	case "", config.FormatTable:
		_, err := io.WriteString(w, renderRecordsTable(recs, nil))
		return err
	default:
		return fmt.Errorf("invalid output format %q (use table|json|yaml)", format)
	}
}
