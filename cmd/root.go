package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oakwood-commons/kvpick/internal/config"
	"github.com/oakwood-commons/kvpick/internal/limiter"
	"github.com/oakwood-commons/kvpick/pkg/loader"
	"github.com/oakwood-commons/kvpick/pkg/logger"
	"github.com/oakwood-commons/kvpick/pkg/records"
	"github.com/oakwood-commons/kvpick/pkg/selector"
	"github.com/oakwood-commons/kvpick/pkg/settings"
)

const metricsNamespace = "kvpick"

var (
	fieldName       string
	fields          fieldsFlag
	label           string
	required        bool
	queries         []string
	debounce        time.Duration
	validationDelay time.Duration
	output          string
	limitRecords    int
	offsetRecords   int
	tailRecords     int
	configFile      string
	debug           bool
	quiet           bool
	metricsFile     string

	// activeConfig is the merged config of the running command.
	activeConfig config.Config
)

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName + " [file]",
	Short: "Search a list of records the way a searchable dropdown does",
	Long: `kvpick loads a list of records (JSON, NDJSON, YAML or TOML) and runs a
searchable selector over one of their fields.

Each line read from stdin is one edit of the search text. At end of input the
field is blurred, pending timers settle, and the final query, state, filtered
view and selection are printed. Without a file, records are read from stdin
and the search text must come from --query.`,
	Example: `  kvpick persons.yaml --field nom
  printf 'an\nange\n' | kvpick persons.yaml --field nom -o json
  kvpick persons.yaml --fields 'filter=nom,show=_.nom + " - " + _.job,get=job' -q ange
  cat persons.json | kvpick --field nom -q ang -q ange`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var level int8
		if debug {
			level = -1
		}
		lgr := logger.Get(level)
		lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())

		path := config.ResolvePath(configFile)
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		activeConfig = cfg
		if path != "" {
			lgr.V(1).Info("config loaded", "path", path)
		}

		run := settings.NewCliParams()
		cfg.ApplyTo(run)
		applyFlagsTo(cmd, run)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = logger.WithLogger(ctx, lgr)
		cmd.SetContext(settings.IntoContext(ctx, run))
		return nil
	},
	RunE: runPick,
}

func init() { //nolint:gochecknoinits
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&fieldName, "field", "f", "", "field used to filter and display records; a selection emits the whole record (name or CEL expression over '_')")
	pf.Var(&fields, "fields", "separate roles: 'filter=<field>,show=<field>,get=<field>' (mutually exclusive with --field)")
	pf.StringArrayVarP(&queries, "query", "q", nil, "search text edit; repeat to simulate typing (replaces stdin)")
	pf.StringVarP(&output, "output", "o", "", "output format: table|json|yaml (default from config or table)")
	pf.IntVar(&limitRecords, "limit", 0, "show only the first N records of the view")
	pf.IntVar(&offsetRecords, "offset", 0, "skip the first N records of the view")
	pf.IntVar(&tailRecords, "tail", 0, "show the last N records of the view (mutually exclusive with --limit; ignores --offset)")
	pf.StringVar(&configFile, "config-file", "", "path to a YAML config file (default $XDG_CONFIG_HOME/kvpick/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "log debug events as JSON on stderr")

	f := rootCmd.Flags()
	f.StringVar(&label, "label", "", "label of the field (default from config)")
	f.BoolVar(&required, "required", false, "an empty field is an error once blurred")
	f.DurationVar(&debounce, "debounce", selector.DefaultDebounce, "quiet period before the view is recomputed")
	f.DurationVar(&validationDelay, "validation-delay", selector.DefaultValidationDelay, "delay before the search text is validated")
	f.BoolVar(&quiet, "quiet", false, "never prompt, even when stdin is a terminal")
	f.StringVar(&metricsFile, "metrics-file", "", "write selector metrics in Prometheus text format to this file")

	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(filterCmd, validateCmd, versionCmd, configCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// applyFlagsTo lets explicit flags win over the config file.
func applyFlagsTo(cmd *cobra.Command, run *settings.Run) {
	if debug {
		run.MinLogLevel = -1
	}
	if output != "" {
		run.Output = output
	}
	if fl := cmd.Flags().Lookup("debounce"); fl != nil && fl.Changed {
		run.Debounce = debounce
	}
	if fl := cmd.Flags().Lookup("validation-delay"); fl != nil && fl.Changed {
		run.ValidationDelay = validationDelay
	}
	run.IsQuiet = quiet
	if cmd.Flags().NArg() > 0 {
		run.Input = settings.InputSettings{Path: cmd.Flags().Arg(0)}
	}
}

// pickOptions is the resolved selector setup shared by all commands.
type pickOptions struct {
	fields   selector.FieldSelector
	label    string
	required bool
	window   limiter.Config
}

func flagChanged(cmd *cobra.Command, name string) bool {
	fl := cmd.Flags().Lookup(name)
	return fl != nil && fl.Changed
}

func resolvePickOptions(cmd *cobra.Command, cfg config.Config) (pickOptions, error) {
	opts := pickOptions{
		label:    cfg.Selector.Label,
		required: cfg.Required(),
		window:   cfg.Limiter(),
	}
	if label != "" {
		opts.label = label
	}
	if fl := cmd.Flags().Lookup("required"); fl != nil && fl.Changed {
		opts.required = required
	}
	// --limit and --tail each replace the other when it comes from the config
	limitSet, tailSet := flagChanged(cmd, "limit"), flagChanged(cmd, "tail")
	if limitSet {
		opts.window.Limit = limitRecords
		if !tailSet {
			opts.window.Tail = 0
		}
	}
	if tailSet {
		opts.window.Tail = tailRecords
		if !limitSet {
			opts.window.Limit = 0
		}
	}
	if flagChanged(cmd, "offset") {
		opts.window.Offset = offsetRecords
	}
	if err := opts.window.Validate(); err != nil {
		return opts, selector.NewConfigurationError("output", err.Error())
	}

	switch {
	case fieldName != "" && fields.set:
		return opts, selector.NewConfigurationError("field", "--field and --fields are mutually exclusive")
	case fields.set:
		opts.fields = fields.fs
	case fieldName != "":
		fs, err := selector.ParseFieldSelector(fieldName)
		if err != nil {
			return opts, err
		}
		opts.fields = fs
	default:
		fs, ok := cfg.FieldSelector()
		if !ok {
			return opts, selector.NewConfigurationError("field", "no field given (use --field, --fields or the fields config block)")
		}
		opts.fields = fs
	}
	return opts, nil
}

// loadCandidates reads records from the file argument, or from stdin.
func loadCandidates(cmd *cobra.Command, args []string) ([]records.Record, error) {
	if len(args) == 1 {
		return loader.LoadRecords(args[0])
	}
	recs, err := loader.ReadRecords(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("read records from stdin: %w", err)
	}
	return recs, nil
}

func runPick(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	lgr := *logger.FromContext(ctx)
	run := settings.FromContextOrDefault(ctx)

	opts, err := resolvePickOptions(cmd, activeConfig)
	if err != nil {
		return err
	}
	if len(args) == 0 && len(queries) == 0 {
		return fmt.Errorf("records are read from stdin; pass the search text with --query")
	}

	recs, err := loadCandidates(cmd, args)
	if err != nil {
		return err
	}
	acc, err := records.Resolve(opts.fields)
	if err != nil {
		return err
	}
	lgr.V(1).Info("candidates loaded", logger.InputKey, run.Input.Path, logger.CandidatesKey, len(recs), logger.FieldKey, opts.fields.String())

	reg := prometheus.NewRegistry()
	metrics, err := selector.NewMetrics(reg, metricsNamespace)
	if err != nil {
		return err
	}

	sel, err := selector.New(recs, acc,
		selector.WithLabel[records.Record](opts.label),
		selector.WithRequired[records.Record](opts.required),
		selector.WithDebounce[records.Record](run.Debounce),
		selector.WithValidationDelay[records.Record](run.ValidationDelay),
		selector.WithLogger[records.Record](lgr.WithName("selector")),
		selector.WithMetrics[records.Record](metrics),
		selector.WithSelectionHandler(func(r records.Record) {
			lgr.V(1).Info("selection emitted", "display", acc.Show(r))
		}),
	)
	if err != nil {
		return err
	}
	defer sel.Close()

	interactive := len(queries) == 0 && run.Interactive(isTerminal(cmd.InOrStdin()))
	if err := feedQueries(ctx, cmd, sel, opts, interactive); err != nil {
		return err
	}

	if err := sel.Blur(); err != nil {
		return err
	}
	if err := sel.Wait(ctx); err != nil {
		return err
	}

	rep := newSessionReport(sel, opts)
	if err := renderSession(cmd.OutOrStdout(), rep, run.Output); err != nil {
		return err
	}

	if metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// feedQueries sends each --query, or each stdin line, to the selector as one
// edit of the search text.
func feedQueries(ctx context.Context, cmd *cobra.Command, sel *selector.Selector[records.Record], opts pickOptions, interactive bool) error {
	if len(queries) > 0 {
		for _, q := range queries {
			if err := sel.OnQueryChanged(q); err != nil {
				return err
			}
		}
		return nil
	}

	errOut := cmd.ErrOrStderr()
	prompt := func() {
		if interactive {
			fmt.Fprintf(errOut, "%s> ", promptLabel(opts.label))
		}
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	prompt()
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if err := sel.OnQueryChanged(line); err != nil {
			return err
		}
		if interactive {
			if err := sel.Wait(ctx); err != nil {
				return err
			}
			printStatus(errOut, sel, opts.window)
		}
		prompt()
	}
	if interactive {
		fmt.Fprintln(errOut)
	}
	return scanner.Err()
}

func promptLabel(l string) string {
	if l == "" {
		return "search"
	}
	return l
}

// printStatus shows the settled state after an interactive edit.
func printStatus(w io.Writer, sel *selector.Selector[records.Record], window limiter.Config) {
	view := sel.View()
	fmt.Fprintf(w, "[%s] %d match(es)", sel.State(), len(view))
	if err := sel.Err(); err != nil {
		fmt.Fprintf(w, ": %v", err)
	}
	fmt.Fprintln(w)
	for _, r := range limiter.Apply(window, view) {
		fmt.Fprintf(w, "  %s\n", sel.DisplayText(r, true))
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// newResolvedSelector builds a selector without timers for the pure commands.
func newResolvedSelector(cmd *cobra.Command, args []string, lgr logr.Logger) (*selector.Selector[records.Record], pickOptions, error) {
	opts, err := resolvePickOptions(cmd, activeConfig)
	if err != nil {
		return nil, opts, err
	}
	recs, err := loadCandidates(cmd, args)
	if err != nil {
		return nil, opts, err
	}
	acc, err := records.Resolve(opts.fields)
	if err != nil {
		return nil, opts, err
	}
	sel, err := selector.New(recs, acc,
		selector.WithLabel[records.Record](opts.label),
		selector.WithLogger[records.Record](lgr.WithName("selector")),
	)
	return sel, opts, err
}
