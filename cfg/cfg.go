// Package cfg loads the YAML pipeline configuration used by the training
// entry points. The library packages never read configuration themselves;
// everything is passed down explicitly.
package cfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/robodyn/torquefit/gbdt"
	"github.com/robodyn/torquefit/pkg/errors"
	"github.com/robodyn/torquefit/torque"
)

// Config is the full pipeline configuration.
type Config struct {
	// Joints is the manipulator's joint count. The sample count is always
	// inferred from the data.
	Joints int `yaml:"joints"`

	Data struct {
		Angles        string `yaml:"angles"`
		Velocities    string `yaml:"velocities"`
		Accelerations string `yaml:"accelerations"`
		Torques       string `yaml:"torques"`
	} `yaml:"data"`

	Split struct {
		ValFraction float64 `yaml:"valFraction"`
		Seed        int64   `yaml:"seed"`
	} `yaml:"split"`

	Training struct {
		NumIterations   int     `yaml:"numIterations"`
		LearningRate    float64 `yaml:"learningRate"`
		NumLeaves       int     `yaml:"numLeaves"`
		MaxDepth        int     `yaml:"maxDepth"`
		MinDataInLeaf   int     `yaml:"minDataInLeaf"`
		LambdaL2        float64 `yaml:"lambdaL2"`
		BaggingFraction float64 `yaml:"baggingFraction"`
		FeatureFraction float64 `yaml:"featureFraction"`
		EarlyStopping   int     `yaml:"earlyStopping"`
		Seed            int64   `yaml:"seed"`
	} `yaml:"training"`

	Output struct {
		BundleDir   string `yaml:"bundleDir"`
		HeatmapPath string `yaml:"heatmapPath"`
	} `yaml:"output"`

	LogLevel string `yaml:"logLevel"`
}

// Load reads and validates a YAML config file.
func Load(path string) (Config, error) {
	var c Config

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, errors.NewNotFoundError("file", path)
		}
		return c, errors.Wrapf(err, "failed to read config %s", path)
	}

	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrapf(err, "failed to parse config %s", path)
	}

	c.applyDefaults()
	if err := c.validate(); err != nil {
		return c, err
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Split.ValFraction == 0 {
		c.Split.ValFraction = 0.2
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	defaults := torque.DefaultTrainingParams()
	if c.Training.NumIterations == 0 {
		c.Training.NumIterations = defaults.NumIterations
	}
	if c.Training.LearningRate == 0 {
		c.Training.LearningRate = defaults.LearningRate
	}
	if c.Training.NumLeaves == 0 {
		c.Training.NumLeaves = defaults.NumLeaves
	}
	if c.Training.MaxDepth == 0 {
		c.Training.MaxDepth = defaults.MaxDepth
	}
	if c.Training.MinDataInLeaf == 0 {
		c.Training.MinDataInLeaf = defaults.MinDataInLeaf
	}
	if c.Training.LambdaL2 == 0 {
		c.Training.LambdaL2 = defaults.Lambda
	}
	if c.Training.BaggingFraction == 0 {
		c.Training.BaggingFraction = defaults.BaggingFraction
	}
	if c.Training.FeatureFraction == 0 {
		c.Training.FeatureFraction = defaults.FeatureFraction
	}
	if c.Training.EarlyStopping == 0 {
		c.Training.EarlyStopping = defaults.EarlyStopping
	}
	if c.Training.Seed == 0 {
		c.Training.Seed = defaults.Seed
	}
}

func (c *Config) validate() error {
	if c.Joints <= 0 {
		return errors.NewValueError("cfg.Load", fmt.Sprintf("joints must be positive, got %d", c.Joints))
	}
	if c.Split.ValFraction <= 0 || c.Split.ValFraction >= 1 {
		return errors.NewValueError("cfg.Load",
			fmt.Sprintf("split.valFraction must be in (0, 1), got %g", c.Split.ValFraction))
	}
	for name, path := range map[string]string{
		"data.angles":        c.Data.Angles,
		"data.velocities":    c.Data.Velocities,
		"data.accelerations": c.Data.Accelerations,
		"data.torques":       c.Data.Torques,
	} {
		if path == "" {
			return errors.NewValueError("cfg.Load", fmt.Sprintf("%s is required", name))
		}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.NewValueError("cfg.Load", fmt.Sprintf("unknown logLevel %q", c.LogLevel))
	}
	return nil
}

// TrainingParams converts the training section into gbdt parameters.
func (c *Config) TrainingParams() gbdt.TrainingParams {
	return gbdt.TrainingParams{
		NumIterations:   c.Training.NumIterations,
		LearningRate:    c.Training.LearningRate,
		NumLeaves:       c.Training.NumLeaves,
		MaxDepth:        c.Training.MaxDepth,
		MinDataInLeaf:   c.Training.MinDataInLeaf,
		Lambda:          c.Training.LambdaL2,
		BaggingFraction: c.Training.BaggingFraction,
		FeatureFraction: c.Training.FeatureFraction,
		EarlyStopping:   c.Training.EarlyStopping,
		Seed:            c.Training.Seed,
	}
}
