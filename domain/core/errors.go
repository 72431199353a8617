package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Structural errors
	ErrEmptyDataset     = errors.New("dataset contains no transactions")
	ErrUnknownDimension = errors.New("unknown dimension")
	ErrSessionNotReady  = errors.New("analysis session not ready")

	// Input errors
	ErrInvalidThreshold = errors.New("invalid threshold")
	ErrInvalidTopK      = errors.New("top_k must be at least 1")
	ErrUnknownMetric    = errors.New("unknown ranking metric")
	ErrInvalidID        = errors.New("invalid identifier")

	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: mining run", ErrNotFound)
)

// Error constructors with context
func NewUnknownDimensionError(dimension string) error {
	return fmt.Errorf("%w: %q", ErrUnknownDimension, dimension)
}

func NewInvalidThresholdError(name string, value float64) error {
	return fmt.Errorf("%w: %s=%g", ErrInvalidThreshold, name, value)
}

func NewUnknownMetricError(metric string) error {
	return fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStructuralError reports errors that invalidate the whole session.
func IsStructuralError(err error) bool {
	return errors.Is(err, ErrEmptyDataset) ||
		errors.Is(err, ErrSessionNotReady)
}

// IsInputError reports errors the caller can fix by changing query parameters.
func IsInputError(err error) bool {
	return errors.Is(err, ErrUnknownDimension) ||
		errors.Is(err, ErrInvalidThreshold) ||
		errors.Is(err, ErrInvalidTopK) ||
		errors.Is(err, ErrUnknownMetric) ||
		errors.Is(err, ErrInvalidID)
}
