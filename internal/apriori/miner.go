package apriori

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"gobasket/domain/basket"
	"gobasket/domain/rules"
	"gobasket/internal/index"
)

// Result holds the frequent itemsets and rules mined from one dimension
type Result struct {
	Dimension    string                  `json:"dimension"`
	Transactions int                     `json:"transactions"`
	Within       *basket.EntitySelector  `json:"within,omitempty"`
	Itemsets     []rules.FrequentItemset `json:"itemsets"`
	Rules        []rules.AssociationRule `json:"rules"`
}

// Miner runs Apriori with fixed options. It holds no state between calls.
type Miner struct {
	opts Options
}

func NewMiner(opts Options) *Miner {
	return &Miner{opts: opts}
}

// node is a frequent itemset of the level being built: sorted values plus the
// sorted ordinals of the transactions containing all of them.
type node struct {
	values []string
	tids   []int
}

func (n *node) key() string { return strings.Join(n.values, "\x00") }

// candidate is the join of two frequent k-itemsets sharing their first k-1 values
type candidate struct {
	left, right *node
}

func (c candidate) values() []string {
	values := make([]string, len(c.left.values)+1)
	copy(values, c.left.values)
	values[len(values)-1] = c.right.values[len(c.right.values)-1]
	return values
}

// Mine finds every itemset of dimension values whose support reaches MinSupport,
// then derives the rules whose confidence reaches MinConfidence.
// An empty result is not an error.
func (m *Miner) Mine(ctx context.Context, idx *index.TransactionIndex, dimension string) (*Result, error) {
	if err := m.opts.Validate(); err != nil {
		return nil, err
	}
	if err := idx.CheckDimension(dimension); err != nil {
		return nil, err
	}

	var universe []int
	total := idx.Total()
	if m.opts.Within != nil {
		if err := idx.CheckDimension(m.opts.Within.Dimension); err != nil {
			return nil, err
		}
		universe = idx.Transactions(m.opts.Within.Item())
		total = len(universe)
	}

	res := &Result{
		Dimension:    dimension,
		Transactions: total,
		Within:       m.opts.Within,
		Itemsets:     []rules.FrequentItemset{},
		Rules:        []rules.AssociationRule{},
	}
	if total == 0 {
		return res, nil
	}

	frequent := func(count int) bool {
		return float64(count)/float64(total) >= m.opts.MinSupport
	}

	level := make([]*node, 0)
	for _, v := range idx.DistinctValues(dimension) {
		tids := idx.Transactions(basket.Item{Dimension: dimension, Value: v})
		if m.opts.Within != nil {
			tids = intersect(tids, universe)
		}
		if frequent(len(tids)) {
			level = append(level, &node{values: []string{v}, tids: tids})
		}
	}

	var all []*node
	for size := 1; len(level) > 0; size++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("apriori: mining stopped before level %d: %w", size, err)
		}
		all = append(all, level...)
		if m.opts.MaxSize > 0 && size >= m.opts.MaxSize {
			break
		}

		next, err := m.countLevel(ctx, generateCandidates(level), frequent)
		if err != nil {
			return nil, fmt.Errorf("apriori: counting level %d: %w", size+1, err)
		}
		level = next
	}

	res.Itemsets = toItemsets(dimension, all, total)
	res.Rules = GenerateRules(res.Itemsets, m.opts.MinConfidence)
	return res, nil
}

// generateCandidates joins and prunes one level. Level nodes are sorted by values.
func generateCandidates(level []*node) []candidate {
	known := make(map[string]bool, len(level))
	for _, n := range level {
		known[n.key()] = true
	}

	var out []candidate
	for i := 0; i < len(level); i++ {
		prefix := level[i].values[:len(level[i].values)-1]
		for j := i + 1; j < len(level); j++ {
			if !samePrefix(prefix, level[j].values) {
				// sorted order means no later node shares the prefix either
				break
			}
			c := candidate{left: level[i], right: level[j]}
			if allSubsetsFrequent(c.values(), known) {
				out = append(out, c)
			}
		}
	}
	return out
}

func samePrefix(prefix, values []string) bool {
	for i, v := range prefix {
		if values[i] != v {
			return false
		}
	}
	return true
}

// allSubsetsFrequent checks every subset obtained by dropping one value. The two
// subsets dropping either of the last two values are the join parents.
func allSubsetsFrequent(values []string, known map[string]bool) bool {
	if len(values) <= 2 {
		return true
	}
	subset := make([]string, 0, len(values)-1)
	for drop := 0; drop < len(values)-2; drop++ {
		subset = subset[:0]
		subset = append(subset, values[:drop]...)
		subset = append(subset, values[drop+1:]...)
		if !known[strings.Join(subset, "\x00")] {
			return false
		}
	}
	return true
}

// countLevel intersects the parents' transaction lists of every candidate,
// with at most Workers candidates in flight.
func (m *Miner) countLevel(ctx context.Context, candidates []candidate, frequent func(int) bool) ([]*node, error) {
	counted := make([]*node, len(candidates))
	sem := semaphore.NewWeighted(int64(m.opts.workers()))
	g, gctx := errgroup.WithContext(ctx)

	for i, c := range candidates {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := gctx.Err(); err != nil {
				return err
			}
			tids := intersect(c.left.tids, c.right.tids)
			if frequent(len(tids)) {
				counted[i] = &node{values: c.values(), tids: tids}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// candidates were generated in sorted order, so survivors stay sorted
	next := make([]*node, 0, len(counted))
	for _, n := range counted {
		if n != nil {
			next = append(next, n)
		}
	}
	return next, nil
}

// intersect merges two strictly increasing lists
func intersect(a, b []int) []int {
	out := make([]int, 0, min(len(a), len(b)))
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

func toItemsets(dimension string, nodes []*node, total int) []rules.FrequentItemset {
	out := make([]rules.FrequentItemset, len(nodes))
	for i, n := range nodes {
		items := make([]basket.Item, len(n.values))
		for j, v := range n.values {
			items[j] = basket.Item{Dimension: dimension, Value: v}
		}
		out[i] = rules.FrequentItemset{
			Items:   basket.NewItemSet(items...),
			Count:   len(n.tids),
			Support: float64(len(n.tids)) / float64(total),
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		if len(out[a].Items) != len(out[b].Items) {
			return len(out[a].Items) < len(out[b].Items)
		}
		if out[a].Support != out[b].Support {
			return out[a].Support > out[b].Support
		}
		return out[a].Items.Key() < out[b].Items.Key()
	})
	return out
}
