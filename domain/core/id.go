package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	SessionID ID
	RunID     ID
)

func NewSessionID() SessionID { return SessionID(NewID()) }
func NewRunID() RunID         { return RunID(NewID()) }

func (id SessionID) String() string { return ID(id).String() }
func (id RunID) String() string     { return ID(id).String() }
func (id RunID) IsEmpty() bool      { return ID(id).IsEmpty() }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: run ID cannot be empty", ErrInvalidID)
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("%w: run ID %q is not a valid UUID", ErrInvalidID, s)
	}
	return RunID(s), nil
}
