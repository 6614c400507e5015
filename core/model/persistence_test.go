package model

import (
	"bytes"
	"path/filepath"
	"testing"
)

// artifact mirrors the persisted model shapes in this module: exported
// fields only, encoded with default gob struct encoding.
type artifact struct {
	Name   string
	Values []float64
}

func TestBaseEstimatorState(t *testing.T) {
	var e BaseEstimator
	if e.IsFitted() {
		t.Error("zero-value estimator reports fitted")
	}

	e.SetFitted()
	if !e.IsFitted() {
		t.Error("SetFitted did not mark fitted")
	}

	e.Reset()
	if e.IsFitted() {
		t.Error("Reset did not clear fitted state")
	}
}

func TestSaveLoadArtifact(t *testing.T) {
	original := &artifact{Name: "joint_1", Values: []float64{1.5, -2.25, 3.0}}

	path := filepath.Join(t.TempDir(), "thing.gob")
	if err := SaveArtifact(original, path); err != nil {
		t.Fatalf("SaveArtifact failed: %v", err)
	}

	restored := &artifact{}
	if err := LoadArtifact(restored, path); err != nil {
		t.Fatalf("LoadArtifact failed: %v", err)
	}

	if restored.Name != "joint_1" {
		t.Errorf("Name = %q, want %q", restored.Name, "joint_1")
	}
	if len(restored.Values) != 3 || restored.Values[1] != -2.25 {
		t.Errorf("values = %v, want [1.5 -2.25 3]", restored.Values)
	}
}

func TestLoadArtifactMissingFile(t *testing.T) {
	restored := &artifact{}
	if err := LoadArtifact(restored, filepath.Join(t.TempDir(), "missing.gob")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriterReaderRoundTrip(t *testing.T) {
	original := &artifact{Name: "feature_scaler", Values: []float64{7}}

	var buf bytes.Buffer
	if err := SaveArtifactToWriter(original, &buf); err != nil {
		t.Fatalf("SaveArtifactToWriter failed: %v", err)
	}

	restored := &artifact{}
	if err := LoadArtifactFromReader(restored, &buf); err != nil {
		t.Fatalf("LoadArtifactFromReader failed: %v", err)
	}
	if restored.Name != "feature_scaler" {
		t.Errorf("Name = %q, want %q", restored.Name, "feature_scaler")
	}
	if len(restored.Values) != 1 || restored.Values[0] != 7 {
		t.Errorf("values = %v, want [7]", restored.Values)
	}
}
