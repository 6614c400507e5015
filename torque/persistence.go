package torque

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robodyn/torquefit/core/model"
	"github.com/robodyn/torquefit/gbdt"
	"github.com/robodyn/torquefit/pkg/errors"
	"github.com/robodyn/torquefit/pkg/log"
	"github.com/robodyn/torquefit/preprocessing"
)

// Bundle artifact names. Joint models are 1-indexed.
const (
	manifestFile      = "manifest.json"
	featureScalerFile = "feature_scaler.gob"
	targetScalerFile  = "target_scaler.gob"
)

func jointModelFile(joint int) string {
	return fmt.Sprintf("joint_%d.gob", joint)
}

// manifest makes a saved bundle self-describing.
type manifest struct {
	Joints       int       `json:"joints"`
	FeatureNames []string  `json:"feature_names"`
	TargetNames  []string  `json:"target_names"`
	Artifacts    []string  `json:"artifacts"`
	SavedAt      time.Time `json:"saved_at"`
}

// Save writes the two scaler states and all N joint models into dir as
// separate named artifacts, plus a manifest. The directory is created if
// absent. Save requires a fitted estimator.
//
// Save and Load of the same directory are short transactions that must be
// serialized by the caller; no file lock is held.
func (e *Estimator) Save(dir string) error {
	if !e.IsFitted() {
		return errors.NewNotFittedError("Estimator", "Save")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create bundle directory %s", dir)
	}

	artifacts := []string{featureScalerFile, targetScalerFile}
	for j := 1; j <= e.joints; j++ {
		artifacts = append(artifacts, jointModelFile(j))
	}

	if err := model.SaveArtifact(e.featureScaler, filepath.Join(dir, featureScalerFile)); err != nil {
		return errors.Wrap(err, "failed to save feature scaler")
	}
	if err := model.SaveArtifact(e.targetScaler, filepath.Join(dir, targetScalerFile)); err != nil {
		return errors.Wrap(err, "failed to save target scaler")
	}
	for j, m := range e.models {
		name := jointModelFile(j + 1)
		if err := model.SaveArtifact(m, filepath.Join(dir, name)); err != nil {
			return errors.Wrapf(err, "failed to save %s", name)
		}
	}

	mf := manifest{
		Joints:       e.joints,
		FeatureNames: e.featureNames,
		TargetNames:  e.targetNames,
		Artifacts:    artifacts,
		SavedAt:      time.Now().UTC(),
	}
	data, err := json.MarshalIndent(&mf, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode manifest")
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write manifest")
	}

	logger := log.GetLoggerWithName("torque.persistence")
	logger.Info("Bundle saved",
		log.OperationKey, "save",
		"dir", dir,
		"artifacts", len(artifacts))

	return nil
}

// Load replaces the estimator's scalers and model list wholesale from a
// bundle directory and marks it fitted. Load fails with NotFoundError if the
// directory or any expected artifact is missing, and never leaves the
// estimator in a mixed old/new state: either everything is replaced or
// nothing is.
func (e *Estimator) Load(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError("directory", dir)
		}
		return errors.Wrapf(err, "failed to stat bundle directory %s", dir)
	}
	if !info.IsDir() {
		return errors.NewNotFoundError("directory", dir)
	}

	// Verify the complete artifact set before decoding anything
	expected := []string{featureScalerFile, targetScalerFile}
	for j := 1; j <= e.joints; j++ {
		expected = append(expected, jointModelFile(j))
	}
	for _, name := range expected {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			return errors.NewNotFoundError("artifact", path)
		}
	}

	// The manifest is advisory but must agree on the joint count when present
	if data, err := os.ReadFile(filepath.Join(dir, manifestFile)); err == nil {
		var mf manifest
		if err := json.Unmarshal(data, &mf); err != nil {
			return errors.NewDataLoadError(manifestFile, err)
		}
		if mf.Joints != e.joints {
			return errors.NewDataLoadError(manifestFile,
				errors.Newf("bundle has %d joints, estimator expects %d", mf.Joints, e.joints))
		}
	}

	featureScaler := preprocessing.NewStandardScaler()
	if err := model.LoadArtifact(featureScaler, filepath.Join(dir, featureScalerFile)); err != nil {
		return errors.Wrap(err, "failed to load feature scaler")
	}
	targetScaler := preprocessing.NewStandardScaler()
	if err := model.LoadArtifact(targetScaler, filepath.Join(dir, targetScalerFile)); err != nil {
		return errors.Wrap(err, "failed to load target scaler")
	}

	models := make([]*gbdt.Model, e.joints)
	for j := 1; j <= e.joints; j++ {
		m := gbdt.NewModel()
		if err := model.LoadArtifact(m, filepath.Join(dir, jointModelFile(j))); err != nil {
			return errors.Wrapf(err, "failed to load %s", jointModelFile(j))
		}
		models[j-1] = m
	}

	e.featureScaler = featureScaler
	e.targetScaler = targetScaler
	e.models = models
	e.SetFitted()

	logger := log.GetLoggerWithName("torque.persistence")
	logger.Info("Bundle loaded",
		log.OperationKey, "load",
		"dir", dir,
		"artifacts", len(expected))

	return nil
}
