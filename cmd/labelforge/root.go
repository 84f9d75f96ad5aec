package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"labelforge/internal/config"
	"labelforge/internal/dataset"
	"labelforge/internal/logging"
	"labelforge/internal/trainer"
)

// app holds the flag values shared by every subcommand and the config they
// resolve to.
type app struct {
	cfgPath   string
	overrides config.Overrides
	cfg       *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "labelforge",
		Short:         "Train classifiers on rule-labelled data",
		Long:          `labelforge aggregates noisy rule votes into soft labels and trains a weighted classifier on them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgPath, "config", "", "Path to YAML config")
	f.StringVar(&a.overrides.DataDir, "data-dir", "", "Directory holding the input matrices")
	f.StringVar(&a.overrides.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.Int64Var(&a.overrides.Seed, "seed", 0, "PRNG seed")
	f.StringVar(&a.overrides.Weighting, "weighting", "", "Weight calculator (uniform, vote_confidence)")

	root.AddCommand(
		newTrainCmd(a),
		newAggregateCmd(a),
		newWeightsCmd(a),
	)
	return root
}

func (a *app) loadConfig() error {
	cfg := config.Default()
	if a.cfgPath != "" {
		var err error
		if cfg, err = config.Load(a.cfgPath); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	cfg.ApplyOverrides(a.overrides)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logging.SetDefaultCLILogger(cfg.LogLevel)
	a.cfg = cfg
	return nil
}

func (a *app) signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

// paths resolves the input files, preferring explicit config entries over
// files discovered under data_dir.
func (a *app) paths() (dataset.Paths, error) {
	p := dataset.Paths{
		RuleMatches: a.cfg.RuleMatches,
		RuleLabels:  a.cfg.RuleLabels,
		Features:    a.cfg.Features,
		DevFeatures: a.cfg.DevFeatures,
		DevLabels:   a.cfg.DevLabels,
	}
	if a.cfg.DataDir == "" {
		return p, nil
	}
	found, err := dataset.DiscoverInputs(a.cfg.DataDir)
	if err != nil {
		return p, err
	}
	return p.Merge(found), nil
}

// loadInputs reads the matrices named in need. Inputs outside need are left
// nil.
func (a *app) loadInputs(need ...string) (trainer.Inputs, error) {
	var in trainer.Inputs
	p, err := a.paths()
	if err != nil {
		return in, err
	}

	var missing []string
	for _, name := range p.Missing() {
		for _, n := range need {
			if n == name {
				missing = append(missing, name)
			}
		}
	}
	if len(missing) > 0 {
		return in, fmt.Errorf("missing inputs: %s", strings.Join(missing, ", "))
	}

	for _, name := range need {
		switch name {
		case "rule_matches":
			in.RuleMatches, err = load(p.RuleMatches)
		case "rule_labels":
			in.RuleLabels, err = load(p.RuleLabels)
		case "features":
			in.Features, err = load(p.Features)
		case "dev_features":
			in.DevFeatures, err = load(p.DevFeatures)
		case "dev_labels":
			in.DevLabels, err = dataset.LoadLabels(p.DevLabels)
			if err == nil {
				slog.Debug("loaded input", "name", name, "path", p.DevLabels, "rows", len(in.DevLabels))
			}
		default:
			err = fmt.Errorf("unknown input %q", name)
		}
		if err != nil {
			return in, err
		}
	}
	return in, nil
}

func load(path string) (*mat.Dense, error) {
	m, err := dataset.LoadMatrix(path)
	if err != nil {
		return nil, err
	}
	r, c := m.Dims()
	slog.Debug("loaded input", "path", path, "rows", r, "cols", c)
	return m, nil
}
