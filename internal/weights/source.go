// Package weights supplies per-sample confidence weights, either loaded from
// a store or computed by a Calculator.
package weights

import (
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"labelforge/internal/model"
)

// Kind tags how a Source obtains its weights.
type Kind int

const (
	// Precomputed weights are loaded verbatim from Path.
	Precomputed Kind = iota + 1
	// Computed weights come from Calculator.
	Computed
)

func (k Kind) String() string {
	switch k {
	case Precomputed:
		return "precomputed"
	case Computed:
		return "computed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Source is resolved once at the start of a run.
type Source struct {
	Kind       Kind
	Path       string
	Calculator Calculator
	Config     DenoiseConfig
}

// FromStore returns a Source that loads weights from path.
func FromStore(path string) Source {
	return Source{Kind: Precomputed, Path: path}
}

// FromCalculator returns a Source that computes weights with c.
func FromCalculator(c Calculator, cfg DenoiseConfig) Source {
	return Source{Kind: Computed, Calculator: c, Config: cfg}
}

// Request holds the run inputs a Calculator may consult.
type Request struct {
	Model       model.Model
	RuleLabels  *mat.Dense
	Inputs      *mat.Dense
	RuleMatches *mat.Dense
}

// Resolve obtains the weight vector.
func (s Source) Resolve(req Request) ([]float64, error) {
	switch s.Kind {
	case Precomputed:
		slog.Info("using precomputed sample weights", "path", s.Path)
		return Load(s.Path)
	case Computed:
		if s.Calculator == nil {
			return nil, errors.New("weights: computed source without calculator")
		}
		slog.Info("no precomputed sample weights, calculating", "calculator", s.Calculator.Name())
		w, err := s.Calculator.Calculate(req.Model, req.RuleLabels, req.Inputs, req.RuleMatches, s.Config)
		if err != nil {
			return nil, fmt.Errorf("calculate weights: %w", err)
		}
		return w, nil
	default:
		return nil, fmt.Errorf("weights: unknown source kind %v", s.Kind)
	}
}
