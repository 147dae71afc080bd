package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/config"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/evaluation"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/experiment"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/report"
)

func evaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Cross-validate every configured model and print its metrics",
		Args:  cobra.NoArgs,
		RunE:  runEvaluate,
	}
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	runner := experiment.NewRunner(cfg, logger, report.NewReporter(cmd.OutOrStdout()))
	if cfg.Output.Progress {
		runner.OnFold = foldProgress()
	}

	_, err := runner.Run(cmd.Context())
	return err
}

// foldProgress starts a fresh bar on stderr for each model.
func foldProgress() func(config.ModelSpec, evaluation.FoldReport) {
	var (
		bar     *progressbar.ProgressBar
		current string
	)

	return func(spec config.ModelSpec, fold evaluation.FoldReport) {
		if bar == nil || current != spec.DisplayName() {
			current = spec.DisplayName()
			bar = progressbar.NewOptions(fold.NumFolds,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset] folds", current)),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}),
			)
		}
		if err := bar.Add(1); err != nil {
			logger.Debug("progress bar update failed")
		}
	}
}
