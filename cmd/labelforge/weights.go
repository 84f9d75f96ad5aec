package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"labelforge/internal/weights"
)

func newWeightsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Compute sample weights and store them for later runs",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if a.cfg.WeightsOut == "" {
				return errors.New("weights_out (or --out) is required")
			}
			calc, ok := weights.ByName(a.cfg.Weighting)
			if !ok {
				return fmt.Errorf("unknown weighting %q", a.cfg.Weighting)
			}
			in, err := a.loadInputs("rule_matches", "rule_labels")
			if err != nil {
				return err
			}

			src := weights.FromCalculator(calc, denoiseConfig(a.cfg))
			w, err := src.Resolve(weights.Request{
				RuleLabels:  in.RuleLabels,
				RuleMatches: in.RuleMatches,
			})
			if err != nil {
				return err
			}
			if err := weights.Save(a.cfg.WeightsOut, w); err != nil {
				return err
			}
			slog.Info("sample weights written", "path", a.cfg.WeightsOut, "weights", weights.Summarize(w))
			return nil
		},
	}
	cmd.Flags().StringVar(&a.overrides.WeightsOut, "out", "", "Output store (.db, .sqlite, .yaml or .bin)")
	return cmd
}
