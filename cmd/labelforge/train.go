package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"labelforge/internal/chart"
	"labelforge/internal/config"
	"labelforge/internal/device"
	"labelforge/internal/model"
	"labelforge/internal/trainer"
	"labelforge/internal/weights"
)

func newTrainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a classifier on majority-vote labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := a.signalContext(cmd)
			defer stop()

			in, err := a.loadInputs("rule_matches", "rule_labels", "features", "dev_features", "dev_labels")
			if err != nil {
				return err
			}
			runCfg, err := buildRun(a.cfg, in)
			if err != nil {
				return err
			}
			history, err := trainer.Run(ctx, runCfg, in)
			if err != nil {
				return fmt.Errorf("training failed: %w", err)
			}
			if n := history.Len(); n > 0 {
				slog.Info("training finished",
					"epochs", n,
					"dev_loss", history.DevLoss[n-1],
					"dev_acc", history.DevAcc[n-1],
				)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&a.overrides.Weights, "weights", "", "Precomputed sample weights (.db, .yaml or .bin)")
	f.IntVar(&a.overrides.Epochs, "epochs", 0, "Number of training epochs")
	f.IntVar(&a.overrides.BatchSize, "batch-size", 0, "Batch size")
	f.Float64Var(&a.overrides.LearningRate, "learning-rate", 0, "Optimizer learning rate")
	f.StringVar(&a.overrides.Optimizer, "optimizer", "", "Optimizer (sgd, adam)")
	f.StringVar(&a.overrides.PlotPath, "plot", "", "Write the training curves to this image")
	f.BoolVar(&a.overrides.Accelerate, "accelerate", false, "Use SIMD kernels when the CPU supports them")
	return cmd
}

// buildRun assembles the model, optimizer, criterion and weight source
// described by cfg for the given inputs.
func buildRun(cfg *config.Config, in trainer.Inputs) (trainer.RunConfig, error) {
	_, inputSize := in.Features.Dims()
	_, classes := in.RuleLabels.Dims()
	if n := len(cfg.ClassWeights); n > 0 && n != classes {
		return trainer.RunConfig{}, fmt.Errorf("class_weights has %d entries, rule labels have %d classes", n, classes)
	}

	backend := device.Select(cfg.Accelerate)
	slog.Info("compute backend selected", "backend", backend.Name(), "cpu", device.CPU())

	m := model.NewLinear(inputSize, classes, cfg.Seed, backend)
	var opt model.Optimizer
	switch cfg.Optimizer {
	case "sgd":
		opt = model.NewSGD(m.Params(), cfg.LearningRate, cfg.Momentum, backend)
	case "adam":
		opt = model.NewAdam(m.Params(), cfg.LearningRate, backend)
	default:
		return trainer.RunConfig{}, fmt.Errorf("unknown optimizer %q", cfg.Optimizer)
	}

	src, err := weightSource(cfg)
	if err != nil {
		return trainer.RunConfig{}, err
	}

	runCfg := trainer.RunConfig{
		Epochs:          cfg.Epochs,
		BatchSize:       cfg.BatchSize,
		Seed:            cfg.Seed,
		NegativeSamples: cfg.NegativeSamples,
		NoMatchClass:    cfg.NoMatchClass,
		OneHotEvalLoss:  cfg.OneHotEvalLoss,
		Model:           m,
		Optimizer:       opt,
		Criterion:       model.CrossEntropy{ClassWeights: cfg.ClassWeights},
		Weights:         src,
	}
	if cfg.PlotPath != "" {
		runCfg.Plotter = chart.Chart{Path: cfg.PlotPath, Title: "training curves"}
	}
	return runCfg, nil
}

func weightSource(cfg *config.Config) (weights.Source, error) {
	if cfg.Weights != "" {
		return weights.FromStore(cfg.Weights), nil
	}
	calc, ok := weights.ByName(cfg.Weighting)
	if !ok {
		return weights.Source{}, fmt.Errorf("unknown weighting %q", cfg.Weighting)
	}
	return weights.FromCalculator(calc, denoiseConfig(cfg)), nil
}

func denoiseConfig(cfg *config.Config) weights.DenoiseConfig {
	return weights.DenoiseConfig{
		StartWeight:     cfg.StartWeight,
		NegativeSamples: cfg.NegativeSamples,
		NoMatchClass:    cfg.NoMatchClass,
		Seed:            cfg.Seed,
	}
}
