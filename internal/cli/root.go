package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

const version = "0.3.0"

func Run() ExitCode {
	rootCmd := &cobra.Command{
		Use:     "plmkpi",
		Short:   "KPI, process-mining and bottleneck analysis over ERP / MES / PLM extracts.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := cmd.Help()
			if err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "set debug logging level")
	flags.StringSlice("env-file", nil, "env files to load instead of ./.env")
	flags.String("data-dir", "", "directory holding the extracts (overrides PLM_DATA_DIR)")
	flags.String("policy", "", "YAML threshold policy (overrides PLM_POLICY_FILE)")
	flags.String("miner", "", "process graph miner: dfg or chain (overrides PLM_GRAPH_MINER)")
	flags.StringP("format", "f", formatTable, "output format: table, json, pretty, csv")
	flags.StringP("out", "o", "", "write output to file instead of stdout")
	flags.Bool("variance-rework", false, "flag event-log rows that overrun their plan as rework")

	rootCmd.AddCommand(
		NewKPIsCmd().Command(),
		NewOperationsCmd().Command(),
		NewBottlenecksCmd().Command(),
		NewInsightsCmd().Command(),
		NewResourcesCmd().Command(),
		NewSupplyChainCmd().Command(),
		NewChartsCmd().Command(),
		NewEventLogCmd().Command(),
		NewGraphCmd().Command(),
		NewHealthCmd().Command(),
		NewDescribeCmd().Command(),
		NewServeMetricsCmd().Command(),
	)

	if err := rootCmd.Execute(); err != nil {
		return exitCodeError
	}

	return exitCodeSuccess
}

// newLogger logs to stderr so that stdout only carries command output.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}
