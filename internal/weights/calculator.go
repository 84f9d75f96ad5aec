package weights

import (
	"errors"
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"labelforge/internal/denoise"
	"labelforge/internal/model"
)

// DenoiseConfig carries the knobs of a weighting procedure.
type DenoiseConfig struct {
	Partitions         int
	Folds              int
	WeightReducingRate float64
	StartWeight        float64
	NegativeSamples    bool
	NoMatchClass       int
	Seed               int64
}

// Calculator produces one non-negative weight per sample.
type Calculator interface {
	Name() string
	Calculate(m model.Model, ruleLabels, inputs, ruleMatches *mat.Dense, cfg DenoiseConfig) ([]float64, error)
}

// Uniform gives every sample the configured start weight (1 when unset).
type Uniform struct{}

func (Uniform) Name() string { return "uniform" }

func (Uniform) Calculate(_ model.Model, _, _, ruleMatches *mat.Dense, cfg DenoiseConfig) ([]float64, error) {
	if ruleMatches == nil {
		return nil, errors.New("weights: rule matches required")
	}
	n, _ := ruleMatches.Dims()
	w := make([]float64, n)
	start := cfg.StartWeight
	if start <= 0 {
		start = 1
	}
	for i := range w {
		w[i] = start
	}
	return w, nil
}

// VoteConfidence weights each sample by the share of votes its majority
// class received, scaled by the start weight. Unmatched samples get zero
// unless negative samples are routed to the no-match class.
type VoteConfidence struct{}

func (VoteConfidence) Name() string { return "vote_confidence" }

func (VoteConfidence) Calculate(_ model.Model, ruleLabels, _, ruleMatches *mat.Dense, cfg DenoiseConfig) ([]float64, error) {
	var probs *mat.Dense
	var err error
	if cfg.NegativeSamples {
		probs, err = denoise.MajorityVoteWithNoMatch(ruleMatches, ruleLabels, cfg.NoMatchClass)
	} else {
		probs, err = denoise.MajorityVote(ruleMatches, ruleLabels)
	}
	if err != nil {
		return nil, err
	}
	start := cfg.StartWeight
	if start <= 0 {
		start = 1
	}
	n, _ := probs.Dims()
	w := make([]float64, n)
	for i := range w {
		w[i] = start * floats.Max(probs.RawRowView(i))
	}
	return w, nil
}

// ByName returns the built-in calculator registered under name.
func ByName(name string) (Calculator, bool) {
	switch name {
	case "", Uniform{}.Name():
		return Uniform{}, true
	case VoteConfidence{}.Name():
		return VoteConfidence{}, true
	}
	return nil, false
}

// Stats summarises a weight vector.
type Stats struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
}

// Summarize computes Stats for w. An empty vector yields the zero value.
func Summarize(w []float64) Stats {
	if len(w) == 0 {
		return Stats{}
	}
	s := Stats{
		Count: len(w),
		Mean:  stat.Mean(w, nil),
		Min:   floats.Min(w),
		Max:   floats.Max(w),
	}
	if len(w) > 1 {
		s.Std = stat.StdDev(w, nil)
	}
	return s
}

// LogValue renders Stats as a slog group.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("count", s.Count),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("min", s.Min),
		slog.Float64("max", s.Max),
	)
}
