package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"labelforge/internal/dataset"
	"labelforge/internal/trainer"
)

func newAggregateCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Write the majority-vote label matrix",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if out == "" {
				return errors.New("--out is required")
			}
			in, err := a.loadInputs("rule_matches", "rule_labels")
			if err != nil {
				return err
			}
			labels, err := trainer.Labels(trainer.RunConfig{
				NegativeSamples: a.cfg.NegativeSamples,
				NoMatchClass:    a.cfg.NoMatchClass,
			}, in)
			if err != nil {
				return fmt.Errorf("aggregate: %w", err)
			}
			if err := dataset.SaveMatrix(out, labels); err != nil {
				return err
			}
			rows, classes := labels.Dims()
			slog.Info("labels written", "path", out, "samples", rows, "classes", classes)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output path (.csv or .bin)")
	return cmd
}
