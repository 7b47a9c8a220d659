package main

import (
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	configPath string
	trainPath  string
	inputPath  string
	outputPath string
	verbose    bool
	noColor    bool

	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()

	rootCmd = &cobra.Command{
		Use:   "compose",
		Short: "Build, evaluate and apply classifier compositions",
		Long: `compose assembles classifiers into ensembles, label-group
decorators and feature-mapped wrappers from a YAML description, then
trains and evaluates the result on CSV data.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			if noColor || !isatty.IsTerminal(os.Stdout.Fd()) {
				color.NoColor = true
			}
		},
	}

	describeCmd = &cobra.Command{
		Use:   "describe",
		Short: "Print the classifier tree described by a config file",
		Args:  cobra.NoArgs,
		RunE:  runDescribe,
	}

	evaluateCmd = &cobra.Command{
		Use:   "evaluate",
		Short: "Train and score the configured composition on a labelled CSV file",
		Args:  cobra.NoArgs,
		RunE:  runEvaluate,
	}

	predictCmd = &cobra.Command{
		Use:   "predict",
		Short: "Train on a labelled CSV file and predict an unlabelled one",
		Args:  cobra.NoArgs,
		RunE:  runPredict,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "compose.yaml", "Path to the composition config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")

	evaluateCmd.Flags().StringVarP(&trainPath, "data", "d", "", "Labelled CSV file")
	evaluateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write results CSV here (overrides experiment.output)")
	_ = evaluateCmd.MarkFlagRequired("data")

	predictCmd.Flags().StringVarP(&trainPath, "train", "t", "", "Labelled training CSV file")
	predictCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Unlabelled CSV file to predict")
	predictCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write predictions CSV here instead of stdout")
	_ = predictCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(describeCmd, evaluateCmd, predictCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
