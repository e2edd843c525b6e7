package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/km-arc/go-beans/framework/config"
	"github.com/km-arc/go-beans/framework/logging"
	"github.com/km-arc/go-beans/framework/tracing"
	"github.com/km-arc/go-beans/scenarios"
)

type scenarioReport struct {
	Scenario   string   `json:"scenario"`
	Bean       string   `json:"bean,omitempty"`
	Error      string   `json:"error,omitempty"`
	Singletons []string `json:"singletons"`
	Elapsed    string   `json:"elapsed"`
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run [scenario...]",
		Short: "Run lifecycle scenarios",
		Long: `Run one or more lifecycle scenarios, or all of them when none is named.

Examples:
  beans run
  beans run singleton-circular prototype-circular
  beans run --json | jq '.[].singletons'`,
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return scenarios.Names(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := selectScenarios(args)
			if err != nil {
				return err
			}

			cfg, err := config.Load(flags.options())
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			tp, err := tracing.NewProvider(cmd.Context(), cfg.Tracing)
			if err != nil {
				return err
			}
			defer func() {
				if err := tp.Destroy(); err != nil {
					logger.Warn("tracing shutdown", zap.Error(err))
				}
			}()

			opts := scenarios.Options{Logger: logger, Tracer: tp.Tracer()}
			reports := make([]scenarioReport, 0, len(selected))
			for _, s := range selected {
				res, err := s.Run(cmd.Context(), opts)
				if err != nil {
					return fmt.Errorf("scenario %s: %w", s.Name, err)
				}
				reports = append(reports, report(res))
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			}
			printReports(cmd.OutOrStdout(), reports)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func selectScenarios(args []string) ([]scenarios.Scenario, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "all") {
		return scenarios.All(), nil
	}
	out := make([]scenarios.Scenario, 0, len(args))
	for _, name := range args {
		s, ok := scenarios.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q (have: %s)", name, strings.Join(scenarios.Names(), ", "))
		}
		out = append(out, s)
	}
	return out, nil
}

func report(res *scenarios.Result) scenarioReport {
	r := scenarioReport{
		Scenario:   res.Scenario,
		Singletons: res.Singletons,
		Elapsed:    res.Elapsed.String(),
	}
	if res.Bean != nil {
		r.Bean = fmt.Sprint(res.Bean)
	}
	if res.Err != nil {
		r.Error = res.Err.Error()
	}
	return r
}

func printReports(w io.Writer, reports []scenarioReport) {
	for _, r := range reports {
		fmt.Fprintf(w, "%s (%s)\n", r.Scenario, r.Elapsed)
		if r.Bean != "" {
			fmt.Fprintf(w, "  bean:       %s\n", r.Bean)
		}
		if r.Error != "" {
			fmt.Fprintf(w, "  error:      %s\n", r.Error)
		}
		fmt.Fprintf(w, "  singletons: %s\n", strings.Join(r.Singletons, ", "))
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available scenarios",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, s := range scenarios.All() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", s.Name, s.Description)
			}
		},
	}
}
