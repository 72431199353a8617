package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"gobasket/domain/basket"
	"gobasket/domain/core"
	"gobasket/domain/rules"
	"gobasket/internal"
	"gobasket/internal/apriori"
	"gobasket/internal/association"
	"gobasket/internal/cooccur"
	"gobasket/internal/index"
	"gobasket/internal/ranking"
	"gobasket/internal/support"
	"gobasket/ports"
)

// Session owns the index and support table of one dataset. NewSession returns it
// fully built; after that every method is a read and safe for concurrent use.
type Session struct {
	id        core.SessionID
	dataset   string
	idx       *index.TransactionIndex
	supports  *support.Table
	createdAt core.Timestamp
	observer  ports.AnalysisObserver
	logger    *internal.Logger
}

// SessionOption customizes a session at construction
type SessionOption func(*Session)

// WithObserver reports query and mining timings
func WithObserver(o ports.AnalysisObserver) SessionOption {
	return func(s *Session) { s.observer = o }
}

// WithLogger replaces the default logger
func WithLogger(l *internal.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// Query asks for the consequents of one antecedent
type Query struct {
	Antecedent basket.EntitySelector `json:"antecedent"`
	Targets    []string              `json:"targets,omitempty"`
	SortBy     rules.Metric          `json:"sort_by"`
	TopK       int                   `json:"top_k"`
	Ascending  bool                  `json:"ascending"`
}

// Analysis is the answer to a Query: the antecedent's own support and attach rate
// plus one ranked table per target dimension, in target order.
type Analysis struct {
	Antecedent basket.Item              `json:"antecedent"`
	Support    float64                  `json:"support"`
	Baskets    int                      `json:"baskets"`
	AttachRate float64                  `json:"attach_rate"`
	Tables     []rules.AssociationTable `json:"tables"`
}

// NewSession indexes the dataset and precomputes supports
func NewSession(ds *basket.Dataset, opts ...SessionOption) (*Session, error) {
	start := time.Now()

	idx, err := index.Build(ds)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:        core.NewSessionID(),
		dataset:   ds.Name,
		idx:       idx,
		supports:  support.New(idx),
		createdAt: core.Now(),
		logger:    internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("Session")

	s.logger.Info("indexed %d transactions from %d rows of %q in %v", idx.Total(), ds.Len(), ds.Name, time.Since(start))
	if s.observer != nil {
		s.observer.ObserveSession(idx.Total(), time.Since(start))
	}
	return s, nil
}

func (s *Session) ID() core.SessionID { return s.id }
func (s *Session) DatasetName() string { return s.dataset }
func (s *Session) Total() int { return s.idx.Total() }
func (s *Session) Dimensions() []string { return s.idx.Dimensions() }
func (s *Session) Fingerprint() core.Fingerprint { return s.idx.Fingerprint() }
func (s *Session) CreatedAt() core.Timestamp { return s.createdAt }

// Values lists the distinct values of a dimension
func (s *Session) Values(dimension string) ([]string, error) {
	if err := s.idx.CheckDimension(dimension); err != nil {
		return nil, err
	}
	return s.idx.DistinctValues(dimension), nil
}

// Support returns the antecedent support of one entity
func (s *Session) Support(dimension, value string) (float64, error) {
	return s.supports.Support(dimension, value)
}

// SupportAll returns the support of every value of a dimension
func (s *Session) SupportAll(dimension string) (map[string]float64, error) {
	return s.supports.SupportAll(dimension)
}

// CoOccurring counts the consequents of an antecedent without deriving metrics
func (s *Session) CoOccurring(antecedent basket.EntitySelector, targets []string) (*cooccur.Result, error) {
	return cooccur.Count(s.idx, antecedent, targets)
}

// Summary describes basket sizes per dimension
func (s *Session) Summary() (index.BasketStats, error) {
	return index.Summarize(s.idx)
}

// Analyze computes the ranked association tables of one antecedent
func (s *Session) Analyze(ctx context.Context, q Query) (analysis *Analysis, err error) {
	start := time.Now()
	defer func() { s.observe("analyze", start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.TopK < 1 {
		return nil, core.ErrInvalidTopK
	}
	metric, err := rules.ParseMetric(string(q.SortBy))
	if err != nil {
		return nil, err
	}

	targets := distinct(q.Targets)
	counts, err := cooccur.Count(s.idx, q.Antecedent, targets)
	if err != nil {
		return nil, err
	}
	antecedent := counts.Antecedent
	supportA := s.supports.Of(antecedent)

	if len(targets) == 0 {
		targets = s.idx.Dimensions()
	}

	analysis = &Analysis{
		Antecedent: antecedent,
		Support:    supportA,
		Baskets:    counts.Baskets,
		AttachRate: counts.AttachRate(),
		Tables:     make([]rules.AssociationTable, 0, len(targets)),
	}

	for _, dim := range targets {
		rows := s.associationRows(dim, supportA, counts)
		ranked, err := ranking.Rank(rows,
			func(r rules.AssociationRow) string { return r.Value },
			func(r rules.AssociationRow) float64 { return metric.Of(r.Metrics, r.Frequency) },
			q.TopK, !q.Ascending)
		if err != nil {
			return nil, err
		}
		analysis.Tables = append(analysis.Tables, rules.AssociationTable{
			Dimension: dim,
			Total:     len(rows),
			Rows:      ranked,
		})
	}

	s.logger.Debug("analyzed %s: %d baskets, %d tables", antecedent, counts.Baskets, len(analysis.Tables))
	return analysis, nil
}

// associationRows turns one dimension's co-occurrence counts into metric rows.
// Consequent supports come from the session's support table.
func (s *Session) associationRows(dimension string, supportA float64, counts *cooccur.Result) []rules.AssociationRow {
	byValue := counts.Counts[dimension]
	sum := counts.Sum(dimension)
	total := s.idx.Total()

	rows := make([]rules.AssociationRow, 0, len(byValue))
	for value, n := range byValue {
		supportB := s.supports.Of(basket.Item{Dimension: dimension, Value: value})
		share := 0.0
		if sum > 0 {
			share = float64(n) / float64(sum)
		}
		rows = append(rows, rules.AssociationRow{
			Value:     value,
			Frequency: n,
			Share:     share,
			Metrics: association.Compute(association.Inputs{
				SupportA: supportA,
				SupportB: supportB,
				Joint:    n,
				Total:    total,
			}),
		})
	}
	return rows
}

// distinct drops repeated dimension names, keeping first-seen order
func distinct(dims []string) []string {
	if len(dims) < 2 {
		return dims
	}
	seen := make(map[string]struct{}, len(dims))
	out := make([]string, 0, len(dims))
	for _, d := range dims {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// AnalyzeBatch runs independent queries concurrently. Results keep query order;
// the first failure cancels the rest.
func (s *Session) AnalyzeBatch(ctx context.Context, queries []Query) ([]*Analysis, error) {
	results := make([]*Analysis, len(queries))
	g, gctx := errgroup.WithContext(ctx)

	for i, q := range queries {
		g.Go(func() error {
			a, err := s.Analyze(gctx, q)
			if err != nil {
				return fmt.Errorf("query %d (%s): %w", i, q.Antecedent, err)
			}
			results[i] = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Mine runs frequent-itemset mining over one dimension
func (s *Session) Mine(ctx context.Context, dimension string, opts apriori.Options) (res *apriori.Result, err error) {
	start := time.Now()
	defer func() {
		if s.observer == nil {
			return
		}
		itemsets, rs := 0, 0
		if res != nil {
			itemsets, rs = len(res.Itemsets), len(res.Rules)
		}
		s.observer.ObserveMining(dimension, time.Since(start), itemsets, rs, err)
	}()

	res, err = apriori.NewMiner(opts).Mine(ctx, s.idx, dimension)
	if err != nil {
		s.logger.Warn("mining %s failed after %v: %v", dimension, time.Since(start), err)
		return nil, err
	}

	s.logger.Info("mined %s: %d itemsets, %d rules over %d transactions in %v",
		dimension, len(res.Itemsets), len(res.Rules), res.Transactions, time.Since(start))
	return res, nil
}

func (s *Session) observe(kind string, start time.Time, err error) {
	if s.observer != nil {
		s.observer.ObserveQuery(kind, time.Since(start), err)
	}
}

// SessionHolder publishes a fully built session to concurrent readers.
// Readers never see a partially built session.
type SessionHolder struct {
	current atomic.Pointer[Session]
}

// Load returns the current session or core.ErrSessionNotReady
func (h *SessionHolder) Load() (*Session, error) {
	s := h.current.Load()
	if s == nil {
		return nil, core.ErrSessionNotReady
	}
	return s, nil
}

// Store replaces the current session
func (h *SessionHolder) Store(s *Session) {
	h.current.Store(s)
}
