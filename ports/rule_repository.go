package ports

import (
	"context"

	"gobasket/domain/core"
	"gobasket/domain/rules"
)

// RuleRunRepository persists mining runs with their itemsets and rules
type RuleRunRepository interface {
	// SaveRun stores a run, its itemsets and its rules atomically
	SaveRun(ctx context.Context, run *rules.MiningRun) error

	// GetRun loads a run with its itemsets and rules. Returns core.ErrRunNotFound when absent.
	GetRun(ctx context.Context, id core.RunID) (*rules.MiningRun, error)

	// ListRuns returns run headers, newest first, without itemsets or rules
	ListRuns(ctx context.Context, limit int) ([]*rules.MiningRun, error)
}
