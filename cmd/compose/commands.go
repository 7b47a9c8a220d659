package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mlcompose/internal/classifier"
	"mlcompose/internal/config"
	"mlcompose/internal/data"
	"mlcompose/internal/experiment"
)

func runDescribe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	clf, err := experiment.NewRunner(cfg, slog.Default()).NewClassifier()
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), classifier.Describe(clf))
	return nil
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	runner := experiment.NewRunner(cfg, slog.Default())
	results, err := runner.RunAllExperiments(trainPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", red("✗"), err)
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s\n", cyan("Results"))
	fmt.Fprint(out, experiment.Summary(results))
	for _, res := range results {
		if res.Metrics != nil {
			fmt.Fprintf(out, "\n%s %s\n", yellow("Split"), res.TrainTestSplit)
			fmt.Fprint(out, res.Metrics.FormatConfusionMatrix())
		}
	}

	dest := cfg.Experiment.Output
	if outputPath != "" {
		dest = outputPath
	}
	if dest != "" {
		if err := runner.ExportResults(results, dest); err != nil {
			return fmt.Errorf("export results: %w", err)
		}
		fmt.Fprintf(out, "%s results saved to %s\n", green("✓"), dest)
	}
	return nil
}

func runPredict(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	runner := experiment.NewRunner(cfg, slog.Default())
	clf, err := runner.NewClassifier()
	if err != nil {
		return err
	}

	// Fixed-rule compositions need no training data.
	var train *data.Dataset
	if trainPath != "" {
		if train, err = runner.LoadDataset(trainPath); err != nil {
			return err
		}
	}
	if err := clf.Train(train); err != nil {
		return fmt.Errorf("train: %w", err)
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	samples, headers, err := data.ReadSamples(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputPath, err)
	}

	predictions, err := experiment.PredictBatched(clf, samples, cfg.Experiment.BatchSize)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}
	slog.Info("predicted", "samples", len(samples), "classifier", clf.Name())

	if outputPath == "" {
		return writePredictions(cmd.OutOrStdout(), headers, samples, predictions)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := writePredictions(out, headers, samples, predictions); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d predictions saved to %s\n", green("✓"), len(predictions), outputPath)
	return nil
}

// writePredictions echoes the input rows with a trailing prediction column.
func writePredictions(w io.Writer, headers []string, samples []data.Sample, predictions []data.Label) error {
	writer := csv.NewWriter(w)
	writer.Write(append(append([]string{}, headers...), "prediction"))

	for i, s := range samples {
		row := make([]string, 0, len(s)+1)
		for _, v := range s {
			row = append(row, v.String())
		}
		row = append(row, fmt.Sprint(predictions[i]))
		writer.Write(row)
	}

	writer.Flush()
	return writer.Error()
}
