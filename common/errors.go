package common

import (
	"errors"
	"fmt"
)

var (
	// ErrNotBuilt is matched by every NotBuiltError
	ErrNotBuilt = errors.New("index is not built")
	// ErrEmptyDataset is matched by every EmptyDatasetError
	ErrEmptyDataset = errors.New("dataset is empty")
)

// ConfigError reports an invalid construction parameter
type ConfigError struct {
	Param  string
	Value  interface{}
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid config: %s=%v", e.Param, e.Value)
	}
	return fmt.Sprintf("invalid config: %s=%v: %s", e.Param, e.Value, e.Reason)
}

// PositiveInt returns ConfigError when v <= 0
func PositiveInt(param string, v int) error {
	if v <= 0 {
		return &ConfigError{Param: param, Value: v, Reason: "must be a positive integer"}
	}
	return nil
}

// PositiveFloat returns ConfigError when v <= 0
func PositiveFloat(param string, v float64) error {
	if !(v > 0) {
		return &ConfigError{Param: param, Value: v, Reason: "must be positive"}
	}
	return nil
}

// NotBuiltError is returned by queries issued before Build
type NotBuiltError struct {
	Index string
}

func (e *NotBuiltError) Error() string {
	return fmt.Sprintf("%s: %v", e.Index, ErrNotBuilt)
}

func (e *NotBuiltError) Unwrap() error { return ErrNotBuilt }

// EmptyDatasetError is returned when there is no data to infer a result from
type EmptyDatasetError struct {
	Source string
}

func (e *EmptyDatasetError) Error() string {
	if e.Source == "" {
		return ErrEmptyDataset.Error()
	}
	return fmt.Sprintf("%s: %v", e.Source, ErrEmptyDataset)
}

func (e *EmptyDatasetError) Unwrap() error { return ErrEmptyDataset }

// DimensionMismatchError indicates a vector/index dimensionality mismatch
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// CheckDimension returns DimensionMismatchError if actual != expected
func CheckDimension(expected, actual int) error {
	if expected != actual {
		return &DimensionMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}
