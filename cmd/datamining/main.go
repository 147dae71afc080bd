package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/config"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/failure"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/logging"
)

var (
	cfgFile string
	v       = config.NewViper()
	cfg     *config.Config
	logger  = zap.NewNop()

	rootCmd = &cobra.Command{
		Use:   "datamining",
		Short: "Cross-validated evaluation of J48 and logistic regression on census income data",
		Long: `datamining loads a headerless CSV dataset, replaces missing values, converts
nominal attributes to binary indicators and reports stratified k-fold
cross-validation metrics for each configured classifier.`,
		PersistentPreRunE: initConfig,
		RunE:              runEvaluate,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./datamining.yaml or ./configs/datamining.yaml)")
	flags.String("data", "", "path to the CSV dataset")
	flags.Bool("has-header", false, "the first CSV row holds attribute names")
	flags.Int("folds", 0, "number of cross-validation folds")
	flags.Int64("seed", 0, "random seed for fold assignment")
	flags.Bool("per-fold", false, "fit preprocessing filters on each training fold only")
	flags.Int("workers", 0, "folds evaluated concurrently")
	flags.String("positive-label", "", "class value reported as positive (overrides the configured index)")
	flags.String("results-csv", "", "write a CSV table of the metrics to this path")
	flags.Bool("progress", false, "show a fold progress bar on stderr")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")

	if err := bindFlags(v, flags, map[string]string{
		"dataset.path":              "data",
		"dataset.has_header":        "has-header",
		"evaluation.folds":          "folds",
		"evaluation.seed":           "seed",
		"preprocess.per_fold":       "per-fold",
		"evaluation.workers":        "workers",
		"evaluation.positive_label": "positive-label",
		"output.results_csv":        "results-csv",
		"output.progress":           "progress",
		"logging.level":             "log-level",
		"logging.format":            "log-format",
	}); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(configCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, "An error occurred during the process:")
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(failure.ExitCode(err))
	}
}

// bindFlags maps config keys to flag names.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, bindings map[string]string) error {
	for key, flag := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %q to %q: %w", flag, key, err)
		}
	}
	return nil
}

func initConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	l, err := logging.InitLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return failure.ConfigError("init logger", err)
	}
	logger = l

	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("config file loaded", zap.String("path", used))
	}
	return nil
}
