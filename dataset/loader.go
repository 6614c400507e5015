// Package dataset loads the four kinematic source tables of a manipulator
// recording session and assembles them into feature and target matrices, and
// partitions the result into training and validation folds.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/robodyn/torquefit/pkg/errors"
	"github.com/robodyn/torquefit/pkg/log"
)

// Source names used in error reporting, in load order.
const (
	SourceAngles        = "angles"
	SourceVelocities    = "velocities"
	SourceAccelerations = "accelerations"
	SourceTorques       = "torques"
)

// Dataset is the assembled feature/target pair for one recording session.
// X is (samples x 3*joints) in angle/velocity/acceleration-by-joint order;
// Y is (samples x joints) in joint order.
type Dataset struct {
	X *mat.Dense
	Y *mat.Dense

	// FeatureNames parallels the columns of X: angle_1..angle_N,
	// velocity_1..velocity_N, acceleration_1..acceleration_N.
	FeatureNames []string

	// TargetNames parallels the columns of Y: torque_1..torque_N.
	TargetNames []string
}

// Samples returns the number of rows in the dataset.
func (d *Dataset) Samples() int {
	r, _ := d.X.Dims()
	return r
}

// Loader reads the four raw source tables. Each table is a headerless
// numeric CSV of shape (joints x samples); the sample count is inferred from
// the data and must agree across all four sources.
type Loader struct {
	joints int
}

// NewLoader creates a loader for a manipulator with the given joint count.
func NewLoader(joints int) *Loader {
	return &Loader{joints: joints}
}

// Joints returns the configured joint count.
func (l *Loader) Joints() int {
	return l.joints
}

// Load reads and validates all four sources and assembles the dataset.
//
// Raw tables are joint-major (rows indexed by joint, columns by sample), so
// the loader transposes during assembly to put samples on rows. Failures are
// reported as NotFoundError (unreadable path), ShapeError (dimension
// mismatch, naming the offending source), or DataLoadError (anything else,
// wrapping the cause). Validation is eager; there is no partial load.
func (l *Loader) Load(anglePath, velocityPath, accelerationPath, torquePath string) (*Dataset, error) {
	sources := []struct {
		name string
		path string
	}{
		{SourceAngles, anglePath},
		{SourceVelocities, velocityPath},
		{SourceAccelerations, accelerationPath},
		{SourceTorques, torquePath},
	}

	tables := make([][][]float64, len(sources))
	for i, src := range sources {
		table, err := l.readSource(src.name, src.path)
		if err != nil {
			return nil, err
		}
		tables[i] = table
	}

	samples, err := l.validateSampleCounts(sources[0].name, sources[1].name, sources[2].name, sources[3].name, tables)
	if err != nil {
		return nil, err
	}

	ds := l.assemble(tables, samples)

	logger := log.GetLoggerWithName("dataset.loader")
	logger.Info("Dataset loaded",
		log.SamplesKey, samples,
		log.FeaturesKey, 3*l.joints,
		log.TargetsKey, l.joints)

	return ds, nil
}

// readSource parses one CSV table and validates its row count against the
// joint count. The column count is validated later, across sources.
func (l *Loader) readSource(name, path string) ([][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("file", path)
		}
		return nil, errors.NewDataLoadError(name, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // ragged rows surface as a shape mismatch below

	var table [][]float64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewDataLoadError(name, err)
		}

		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.NewDataLoadError(name,
					fmt.Errorf("row %d, column %d: %w", len(table)+1, j+1, err))
			}
			row[j] = v
		}
		table = append(table, row)
	}

	if len(table) == 0 {
		return nil, errors.NewDataLoadError(name, errors.ErrEmptyData)
	}

	if len(table) != l.joints {
		return nil, errors.NewShapeError(name, l.joints, -1, len(table), len(table[0]))
	}
	for _, row := range table {
		if len(row) != len(table[0]) {
			return nil, errors.NewShapeError(name, l.joints, len(table[0]), len(table), len(row))
		}
	}

	return table, nil
}

// validateSampleCounts checks that all four tables agree on one sample
// count. When one source disagrees with the others, that source is the one
// named in the error.
func (l *Loader) validateSampleCounts(angleName, velocityName, accelerationName, torqueName string, tables [][][]float64) (int, error) {
	names := []string{angleName, velocityName, accelerationName, torqueName}

	counts := make([]int, len(tables))
	for i, table := range tables {
		counts[i] = len(table[0])
	}

	// Majority sample count across the four sources
	occurrences := map[int]int{}
	for _, c := range counts {
		occurrences[c]++
	}
	expected := counts[0]
	bestVotes := 0
	for _, c := range counts {
		if occurrences[c] > bestVotes {
			expected = c
			bestVotes = occurrences[c]
		}
	}

	for i, c := range counts {
		if c != expected {
			return 0, errors.NewShapeError(names[i], l.joints, expected, l.joints, c)
		}
	}

	return expected, nil
}

// assemble transposes the joint-major tables into sample-major feature and
// target matrices with deterministic column naming.
func (l *Loader) assemble(tables [][][]float64, samples int) *Dataset {
	n := l.joints

	X := mat.NewDense(samples, 3*n, nil)
	Y := mat.NewDense(samples, n, nil)

	// tables[0..2] are angle, velocity, acceleration blocks of X
	for q := 0; q < 3; q++ {
		for j := 0; j < n; j++ {
			for s := 0; s < samples; s++ {
				X.Set(s, q*n+j, tables[q][j][s])
			}
		}
	}
	for j := 0; j < n; j++ {
		for s := 0; s < samples; s++ {
			Y.Set(s, j, tables[3][j][s])
		}
	}

	return &Dataset{
		X:            X,
		Y:            Y,
		FeatureNames: FeatureNames(n),
		TargetNames:  TargetNames(n),
	}
}

// FeatureNames returns the fixed feature column naming for n joints:
// angle_1..angle_n, velocity_1..velocity_n, acceleration_1..acceleration_n.
func FeatureNames(n int) []string {
	names := make([]string, 0, 3*n)
	for _, quantity := range []string{"angle", "velocity", "acceleration"} {
		for j := 1; j <= n; j++ {
			names = append(names, fmt.Sprintf("%s_%d", quantity, j))
		}
	}
	return names
}

// TargetNames returns the fixed target column naming for n joints:
// torque_1..torque_n.
func TargetNames(n int) []string {
	names := make([]string, 0, n)
	for j := 1; j <= n; j++ {
		names = append(names, fmt.Sprintf("torque_%d", j))
	}
	return names
}
