package app

import (
	"context"
	"fmt"
	"time"

	"gobasket/domain/basket"
	"gobasket/domain/core"
	"gobasket/domain/rules"
	"gobasket/internal"
	"gobasket/internal/apriori"
	"gobasket/internal/ranking"
	"gobasket/ports"
)

// MiningDefaults fill in request fields left empty
type MiningDefaults struct {
	Options apriori.Options
	TopK    int
	SortBy  rules.Metric
	Timeout time.Duration
}

// MiningService runs rule mining with a deadline, ranks the rules and records the run
type MiningService struct {
	repo     ports.RuleRunRepository
	defaults MiningDefaults
	logger   *internal.Logger
}

// MineRequest describes one mining run. Zero values take the service defaults;
// MinConfidence is a pointer because 0 is a meaningful threshold.
type MineRequest struct {
	Dimension     string                 `json:"dimension" binding:"required"`
	MinSupport    float64                `json:"min_support"`
	MinConfidence *float64               `json:"min_confidence"`
	MaxSize       int                    `json:"max_size"`
	SortBy        string                 `json:"sort_by"`
	TopK          int                    `json:"top_k"`
	Ascending     bool                   `json:"ascending"`
	Within        *basket.EntitySelector `json:"within"`
	Persist       bool                   `json:"persist"`
}

// MineResponse carries the frequent itemsets and the ranked rules
type MineResponse struct {
	RunID        core.RunID              `json:"run_id,omitempty"`
	Dimension    string                  `json:"dimension"`
	Transactions int                     `json:"transactions"`
	Itemsets     []rules.FrequentItemset `json:"itemsets"`
	Rules        []rules.AssociationRule `json:"rules"`
	TotalRules   int                     `json:"total_rules"`
	RuntimeMs    int64                   `json:"runtime_ms"`
}

// NewMiningService creates a mining service. repo may be nil, then runs are not stored.
func NewMiningService(repo ports.RuleRunRepository, defaults MiningDefaults, logger *internal.Logger) *MiningService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &MiningService{
		repo:     repo,
		defaults: defaults,
		logger:   logger.Named("Miner"),
	}
}

func (s *MiningService) options(req MineRequest) apriori.Options {
	opts := s.defaults.Options
	if req.MinSupport != 0 {
		opts.MinSupport = req.MinSupport
	}
	if req.MinConfidence != nil {
		opts.MinConfidence = *req.MinConfidence
	}
	if req.MaxSize != 0 {
		opts.MaxSize = req.MaxSize
	}
	opts.Within = req.Within
	return opts
}

// Run mines the session, ranks the rules and, when asked and a repository is
// configured, stores the run.
func (s *MiningService) Run(ctx context.Context, sess *Session, req MineRequest) (*MineResponse, error) {
	start := time.Now()

	metric := s.defaults.SortBy
	if req.SortBy != "" {
		m, err := rules.ParseMetric(req.SortBy)
		if err != nil {
			return nil, err
		}
		metric = m
	}
	if metric == "" {
		metric = rules.MetricLift
	}
	topK := req.TopK
	if topK == 0 {
		topK = s.defaults.TopK
	}
	if topK < 1 {
		return nil, core.ErrInvalidTopK
	}

	if s.defaults.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.defaults.Timeout)
		defer cancel()
	}

	opts := s.options(req)
	res, err := sess.Mine(ctx, req.Dimension, opts)
	if err != nil {
		return nil, err
	}

	ranked, err := ranking.Rank(res.Rules,
		func(r rules.AssociationRule) string { return r.Key() },
		func(r rules.AssociationRule) float64 { return metric.Of(r.Metrics, 0) },
		topK, !req.Ascending)
	if err != nil {
		return nil, err
	}

	resp := &MineResponse{
		Dimension:    res.Dimension,
		Transactions: res.Transactions,
		Itemsets:     res.Itemsets,
		Rules:        ranked,
		TotalRules:   len(res.Rules),
	}

	if req.Persist && s.repo != nil {
		run := &rules.MiningRun{
			ID:            core.NewRunID(),
			Dataset:       sess.DatasetName(),
			Fingerprint:   sess.Fingerprint(),
			Dimension:     res.Dimension,
			MinSupport:    opts.MinSupport,
			MinConfidence: opts.MinConfidence,
			Transactions:  res.Transactions,
			ItemsetCount:  len(res.Itemsets),
			RuleCount:     len(res.Rules),
			Itemsets:      res.Itemsets,
			Rules:         res.Rules,
			CreatedAt:     core.Now(),
		}
		if err := s.repo.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to save mining run: %w", err)
		}
		resp.RunID = run.ID
		s.logger.Info("saved run %s (%d itemsets, %d rules)", run.ID, run.ItemsetCount, run.RuleCount)
	}

	resp.RuntimeMs = time.Since(start).Milliseconds()
	return resp, nil
}

// GetRun loads a stored run
func (s *MiningService) GetRun(ctx context.Context, id core.RunID) (*rules.MiningRun, error) {
	if s.repo == nil {
		return nil, core.ErrRunNotFound
	}
	return s.repo.GetRun(ctx, id)
}

// ListRuns lists stored runs, newest first
func (s *MiningService) ListRuns(ctx context.Context, limit int) ([]*rules.MiningRun, error) {
	if s.repo == nil {
		return []*rules.MiningRun{}, nil
	}
	return s.repo.ListRuns(ctx, limit)
}
