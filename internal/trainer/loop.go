// Package trainer trains a classifier on majority-vote soft labels with
// per-sample confidence weights.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"labelforge/internal/dataset"
	"labelforge/internal/denoise"
	"labelforge/internal/metrics"
	"labelforge/internal/model"
	"labelforge/internal/weights"
)

var (
	// ErrWeightLength indicates a weight vector whose length differs from
	// the number of training samples.
	ErrWeightLength = errors.New("trainer: weight count does not match sample count")
	// ErrInvalidWeight indicates a negative, NaN or infinite sample weight.
	ErrInvalidWeight = errors.New("trainer: sample weights must be finite and non-negative")
)

// Plotter receives the recorded series once training finishes.
type Plotter interface {
	Plot(labels []string, series [][]float64) error
}

// Inputs are the immutable matrices of one run.
type Inputs struct {
	RuleMatches *mat.Dense
	RuleLabels  *mat.Dense
	Features    *mat.Dense
	DevFeatures *mat.Dense
	DevLabels   []int
}

// RunConfig captures the knobs and collaborators required by the training
// loop. Criterion carries the class weights; its reduction is set by the loop.
type RunConfig struct {
	Epochs          int
	BatchSize       int
	Seed            int64
	NegativeSamples bool
	NoMatchClass    int
	OneHotEvalLoss  bool

	Model     model.Model
	Optimizer model.Optimizer
	Criterion model.Criterion
	Weights   weights.Source
	Plotter   Plotter
}

func (cfg RunConfig) validate() error {
	if cfg.Epochs <= 0 {
		return fmt.Errorf("trainer: epochs must be > 0 (got %d)", cfg.Epochs)
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("trainer: batch size must be > 0 (got %d)", cfg.BatchSize)
	}
	if cfg.Model == nil || cfg.Optimizer == nil || cfg.Criterion == nil {
		return errors.New("trainer: model, optimizer and criterion are required")
	}
	return nil
}

// Labels aggregates rule votes into the soft training targets, routing
// unmatched samples to the no-match class when negative samples are enabled.
func Labels(cfg RunConfig, in Inputs) (*mat.Dense, error) {
	if in.RuleMatches == nil || in.RuleLabels == nil {
		return nil, errors.New("trainer: rule matches and rule labels are required")
	}
	if cfg.NegativeSamples {
		return denoise.MajorityVoteWithNoMatch(in.RuleMatches, in.RuleLabels, cfg.NoMatchClass)
	}
	return denoise.MajorityVote(in.RuleMatches, in.RuleLabels)
}

// Run executes the training workload and returns the per-epoch history.
// The context is checked between epochs.
func Run(ctx context.Context, cfg RunConfig, in Inputs) (*metrics.History, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := slog.With("run_id", uuid.NewString())
	rng := rand.New(rand.NewSource(cfg.Seed))

	targets, err := Labels(cfg, in)
	if err != nil {
		return nil, err
	}
	if c, ok := cfg.Model.(interface{ NumClasses() int }); ok {
		if _, classes := targets.Dims(); classes != c.NumClasses() {
			return nil, fmt.Errorf("trainer: rule labels have %d classes, model predicts %d", classes, c.NumClasses())
		}
	}
	if c, ok := cfg.Criterion.(interface{ CheckClasses(int) error }); ok {
		_, classes := targets.Dims()
		if err := c.CheckClasses(classes); err != nil {
			return nil, fmt.Errorf("trainer: %w", err)
		}
	}
	if in.Features != nil && in.DevFeatures != nil {
		_, width := in.Features.Dims()
		if _, devWidth := in.DevFeatures.Dims(); devWidth != width {
			return nil, fmt.Errorf("%w: features have %d columns, dev features %d", dataset.ErrShapeMismatch, width, devWidth)
		}
	}

	sampleWeights, err := cfg.Weights.Resolve(weights.Request{
		Model:       cfg.Model,
		RuleLabels:  in.RuleLabels,
		Inputs:      in.Features,
		RuleMatches: in.RuleMatches,
	})
	if err != nil {
		return nil, err
	}
	samples, classes := targets.Dims()
	for i, label := range in.DevLabels {
		if label < 0 || label >= classes {
			return nil, fmt.Errorf("trainer: dev label %d of sample %d outside %d classes", label, i, classes)
		}
	}
	if err := validateWeights(sampleWeights, samples); err != nil {
		return nil, err
	}
	log.Info("sample weights ready", "source", cfg.Weights.Kind, "weights", weights.Summarize(sampleWeights))

	trainLoader, err := dataset.NewTrainLoader(in.Features, targets, sampleWeights, cfg.BatchSize, rng)
	if err != nil {
		return nil, fmt.Errorf("train loader: %w", err)
	}
	devLoader, err := dataset.NewEvalLoader(in.DevFeatures, in.DevLabels, cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("dev loader: %w", err)
	}

	crit := cfg.Criterion.WithReduction(model.ReductionNone)
	devCrit := cfg.Criterion.WithReduction(model.ReductionMean)
	history := &metrics.History{}

	log.Info("classifier training started",
		"epochs", cfg.Epochs,
		"samples", trainLoader.Samples(),
		"batches", trainLoader.Len(),
	)
	cfg.Model.Train()
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return history, err
		}
		var window metrics.Window
		trainLoader.Reset()
		for i := 0; i < trainLoader.Len(); i++ {
			startData := time.Now()
			batch := trainLoader.Batch(i)
			dataTime := time.Since(startData)

			startCompute := time.Now()
			loss, correct, scored, err := trainStep(cfg.Model, cfg.Optimizer, crit, batch)
			if err != nil {
				return history, fmt.Errorf("epoch %d batch %d: %w", epoch, i, err)
			}
			window.Record(batch.Size(), dataTime, time.Since(startCompute), loss, correct, scored)
		}
		snap := window.Snapshot()

		devLoss, devAcc := Evaluate(cfg.Model, devCrit, devLoader, cfg.OneHotEvalLoss)
		cfg.Model.Train()

		history.Append(snap.Loss, devLoss, snap.Accuracy, devAcc)
		log.Info("epoch complete",
			"epoch", epoch,
			"train_loss", snap.Loss,
			"train_acc", snap.Accuracy,
			"dev_loss", devLoss,
			"dev_acc", devAcc,
			"samples_per_sec", fmt.Sprintf("%.1f", snap.SamplesPerSec),
			"compute_ms", fmt.Sprintf("%.2f", snap.AvgComputeMS),
		)
	}

	if cfg.Plotter != nil {
		labels, series := history.Series()
		if err := cfg.Plotter.Plot(labels, series); err != nil {
			log.Warn("plotting failed", "error", err)
		}
	}
	return history, nil
}

// trainStep runs one update and returns the weighted loss together with the
// prediction hits over the samples that carry target mass.
func trainStep(m model.Model, opt model.Optimizer, crit model.Criterion, batch model.Batch) (float64, int, int, error) {
	m.ZeroGrad()
	scores := m.Forward(batch.Inputs)
	loss, coeffs := WeightedLoss(crit, scores, batch.Targets, batch.Weights)
	if err := m.Backward(crit.Backward(scores, batch.Targets, coeffs)); err != nil {
		return 0, 0, 0, err
	}
	opt.Step()
	correct, scored := model.TargetHits(scores, batch.Targets)
	return loss, correct, scored, nil
}

// WeightedLoss scales each per-sample loss by its sample weight and divides
// the sum by the class-weighted target mass of the batch. It also returns the
// per-sample coefficients w[i]/mass for the backward pass. A batch without
// target mass has zero loss.
func WeightedLoss(crit model.Criterion, scores, targets *mat.Dense, w []float64) (float64, []float64) {
	losses := crit.WithReduction(model.ReductionNone).Loss(scores, targets)
	coeffs := make([]float64, len(losses))
	denom := crit.Denominator(targets)
	if denom == 0 {
		return 0, coeffs
	}
	total := 0.0
	for i, l := range losses {
		coeffs[i] = w[i] / denom
		total += l * coeffs[i]
	}
	return total, coeffs
}

func validateWeights(w []float64, samples int) error {
	if len(w) != samples {
		return fmt.Errorf("%w: %d weights, %d samples", ErrWeightLength, len(w), samples)
	}
	for i, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: weight %d is %v", ErrInvalidWeight, i, v)
		}
	}
	return nil
}
