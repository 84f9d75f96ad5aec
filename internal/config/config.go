package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	DataDir     string `yaml:"data_dir"`
	RuleMatches string `yaml:"rule_matches"`
	RuleLabels  string `yaml:"rule_labels"`
	Features    string `yaml:"features"`
	DevFeatures string `yaml:"dev_features"`
	DevLabels   string `yaml:"dev_labels"`

	Weights     string  `yaml:"weights"`
	WeightsOut  string  `yaml:"weights_out"`
	Weighting   string  `yaml:"weighting"`
	StartWeight float64 `yaml:"start_weight"`

	Epochs       int       `yaml:"epochs"`
	BatchSize    int       `yaml:"batch_size"`
	LearningRate float64   `yaml:"learning_rate"`
	Optimizer    string    `yaml:"optimizer"`
	Momentum     float64   `yaml:"momentum"`
	Seed         int64     `yaml:"seed"`
	ClassWeights []float64 `yaml:"class_weights"`

	NegativeSamples bool `yaml:"negative_samples"`
	NoMatchClass    int  `yaml:"no_match_class"`
	OneHotEvalLoss  bool `yaml:"one_hot_eval_loss"`
	Accelerate      bool `yaml:"accelerate"`

	PlotPath string `yaml:"plot_path"`
	LogLevel string `yaml:"log_level"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	DataDir      string
	Weights      string
	WeightsOut   string
	Weighting    string
	Epochs       int
	BatchSize    int
	LearningRate float64
	Optimizer    string
	Seed         int64
	PlotPath     string
	LogLevel     string
	Accelerate   bool
}

// Default returns a config with every optional knob filled in. The
// no-match class defaults to the last class.
func Default() *Config {
	cfg := &Config{NoMatchClass: -1}
	cfg.setDefaults()
	return cfg
}

// Load reads a Config from YAML and fills defaults. Unknown keys are
// rejected. Callers run Validate once CLI overrides are applied.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	cfg := &Config{NoMatchClass: -1}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.Weights != "" {
		c.Weights = o.Weights
	}
	if o.WeightsOut != "" {
		c.WeightsOut = o.WeightsOut
	}
	if o.Weighting != "" {
		c.Weighting = o.Weighting
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Optimizer != "" {
		c.Optimizer = o.Optimizer
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.PlotPath != "" {
		c.PlotPath = o.PlotPath
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.Accelerate {
		c.Accelerate = true
	}
}

// Validate verifies the config is runnable and fills defaults.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	c.setDefaults()
	if c.DataDir == "" && (c.RuleMatches == "" || c.RuleLabels == "" || c.Features == "") {
		return errors.New("either data_dir or rule_matches, rule_labels and features must be set")
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %g)", c.LearningRate)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("momentum must be in [0, 1) (got %g)", c.Momentum)
	}
	switch c.Optimizer {
	case "sgd", "adam":
	default:
		return fmt.Errorf("optimizer must be sgd or adam (got %q)", c.Optimizer)
	}
	switch c.Weighting {
	case "uniform", "vote_confidence":
	default:
		return fmt.Errorf("weighting must be uniform or vote_confidence (got %q)", c.Weighting)
	}
	if c.StartWeight < 0 {
		return fmt.Errorf("start_weight must be >= 0 (got %g)", c.StartWeight)
	}
	for i, w := range c.ClassWeights {
		if w < 0 {
			return fmt.Errorf("class_weights[%d] must be >= 0 (got %g)", i, w)
		}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Epochs == 0 {
		c.Epochs = 2
	}
	if c.BatchSize == 0 {
		c.BatchSize = 32
	}
	if c.LearningRate == 0 {
		c.LearningRate = 0.01
	}
	if c.Optimizer == "" {
		c.Optimizer = "adam"
	}
	if c.Weighting == "" {
		c.Weighting = "uniform"
	}
	if c.StartWeight == 0 {
		c.StartWeight = 1
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
