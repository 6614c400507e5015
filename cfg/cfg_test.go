package cfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robodyn/torquefit/pkg/errors"
	"github.com/robodyn/torquefit/torque"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `
joints: 6
data:
  angles: data/angles.csv
  velocities: data/velocities.csv
  accelerations: data/accelerations.csv
  torques: data/torques.csv
split:
  valFraction: 0.25
  seed: 7
training:
  numIterations: 200
  learningRate: 0.1
output:
  bundleDir: out/bundle
logLevel: debug
`

func TestLoadValidConfig(t *testing.T) {
	c, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Joints != 6 {
		t.Errorf("Joints = %d, want 6", c.Joints)
	}
	if c.Data.Angles != "data/angles.csv" {
		t.Errorf("Data.Angles = %q", c.Data.Angles)
	}
	if c.Split.ValFraction != 0.25 || c.Split.Seed != 7 {
		t.Errorf("Split = %+v", c.Split)
	}
	if c.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", c.LogLevel)
	}

	params := c.TrainingParams()
	if params.NumIterations != 200 {
		t.Errorf("NumIterations = %d, want 200", params.NumIterations)
	}
	if params.LearningRate != 0.1 {
		t.Errorf("LearningRate = %g, want 0.1", params.LearningRate)
	}

	// Unset training fields fall back to the defaults
	defaults := torque.DefaultTrainingParams()
	if params.NumLeaves != defaults.NumLeaves {
		t.Errorf("NumLeaves = %d, want default %d", params.NumLeaves, defaults.NumLeaves)
	}
	if params.EarlyStopping != defaults.EarlyStopping {
		t.Errorf("EarlyStopping = %d, want default %d", params.EarlyStopping, defaults.EarlyStopping)
	}
}

func TestLoadDefaults(t *testing.T) {
	minimal := `
joints: 3
data:
  angles: a.csv
  velocities: v.csv
  accelerations: acc.csv
  torques: t.csv
`
	c, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Split.ValFraction != 0.2 {
		t.Errorf("default valFraction = %g, want 0.2", c.Split.ValFraction)
	}
	if c.LogLevel != "info" {
		t.Errorf("default logLevel = %q, want info", c.LogLevel)
	}

	defaults := torque.DefaultTrainingParams()
	params := c.TrainingParams()
	if params != defaults {
		t.Errorf("training params = %+v, want defaults %+v", params, defaults)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	var notFound *errors.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name   string
		config string
	}{
		{"missing joints", `
data:
  angles: a.csv
  velocities: v.csv
  accelerations: acc.csv
  torques: t.csv
`},
		{"bad valFraction", `
joints: 3
data:
  angles: a.csv
  velocities: v.csv
  accelerations: acc.csv
  torques: t.csv
split:
  valFraction: 1.5
`},
		{"missing data path", `
joints: 3
data:
  angles: a.csv
  velocities: v.csv
  torques: t.csv
`},
		{"unknown log level", `
joints: 3
data:
  angles: a.csv
  velocities: v.csv
  accelerations: acc.csv
  torques: t.csv
logLevel: loud
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.config))
			if err == nil {
				t.Fatal("expected validation error")
			}
			var valueErr *errors.ValueError
			if !errors.As(err, &valueErr) {
				t.Fatalf("expected ValueError, got %T: %v", err, err)
			}
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "joints: [not closed"))
	if err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}
