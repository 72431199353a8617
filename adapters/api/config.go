package api

import (
	"fmt"
	"time"
)

// DefaultAPIDataSource returns sensible defaults for API ingestion
func DefaultAPIDataSource() APIDataSource {
	return APIDataSource{
		AuthMethod:      "none",
		DataPath:        "data",
		TransactionPath: "transaction_id",
		PaginationType:  "none",
		PageSize:        100,
		MaxPages:        10,
		RateLimit:       60, // 60 requests per minute
		Timeout:         30 * time.Second,
	}
}

// Validate checks if the configuration is valid
func (c *APIDataSource) Validate() error {
	if c.BaseURL == "" {
		return &ValidationError{Field: "BaseURL", Message: "is required"}
	}
	if c.TransactionPath == "" {
		return &ValidationError{Field: "TransactionPath", Message: "is required"}
	}
	if len(c.Fields) == 0 {
		return &ValidationError{Field: "Fields", Message: "at least one field binding is required"}
	}
	if c.RateLimit <= 0 {
		return &ValidationError{Field: "RateLimit", Message: "must be positive"}
	}
	if c.MaxPages <= 0 {
		return &ValidationError{Field: "MaxPages", Message: "must be positive"}
	}
	switch c.PaginationType {
	case "", "none", "offset", "cursor", "page":
	default:
		return &ValidationError{Field: "PaginationType", Message: fmt.Sprintf("unsupported value %q", c.PaginationType)}
	}
	return nil
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}
