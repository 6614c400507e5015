package model

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// SaveArtifact gob-encodes a value to a file. Used for scaler and per-joint
// model artifacts inside a bundle directory.
func SaveArtifact(v interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	return nil
}

// LoadArtifact gob-decodes a file into v, which must be a pointer.
func LoadArtifact(v interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("failed to decode artifact: %w", err)
	}

	return nil
}

// SaveArtifactToWriter gob-encodes a value to an io.Writer.
func SaveArtifactToWriter(v interface{}, w io.Writer) error {
	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}
	return nil
}

// LoadArtifactFromReader gob-decodes a value from an io.Reader.
func LoadArtifactFromReader(v interface{}, r io.Reader) error {
	decoder := gob.NewDecoder(r)
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("failed to decode artifact: %w", err)
	}
	return nil
}
