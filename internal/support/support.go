// Package support computes the fraction of transactions containing each entity.
package support

import (
	"gobasket/domain/basket"
	"gobasket/internal/index"
)

// Table holds the precomputed supports of every indexed (dimension, value).
// It is read-only after New returns.
type Table struct {
	idx   *index.TransactionIndex
	total int
	byDim map[string]map[string]float64
}

// New precomputes support for every value of every dimension
func New(idx *index.TransactionIndex) *Table {
	t := &Table{
		idx:   idx,
		total: idx.Total(),
		byDim: make(map[string]map[string]float64),
	}
	for _, dim := range idx.Dimensions() {
		values := idx.DistinctValues(dim)
		supports := make(map[string]float64, len(values))
		for _, v := range values {
			supports[v] = t.ratio(idx.Count(basket.Item{Dimension: dim, Value: v}))
		}
		t.byDim[dim] = supports
	}
	return t
}

func (t *Table) ratio(count int) float64 {
	if t.total == 0 {
		return 0
	}
	return float64(count) / float64(t.total)
}

// Total is the canonical denominator, the number of distinct transactions
func (t *Table) Total() int { return t.total }

// Support returns the support of one entity, 0 when the value was never seen.
func (t *Table) Support(dimension, value string) (float64, error) {
	supports, ok := t.byDim[dimension]
	if !ok {
		return 0, t.idx.CheckDimension(dimension)
	}
	return supports[value], nil
}

// Of returns the support of an item without dimension checks
func (t *Table) Of(item basket.Item) float64 {
	return t.byDim[item.Dimension][item.Value]
}

// Count returns the number of distinct transactions containing the entity
func (t *Table) Count(dimension, value string) (int, error) {
	if err := t.idx.CheckDimension(dimension); err != nil {
		return 0, err
	}
	return t.idx.Count(basket.Item{Dimension: dimension, Value: value}), nil
}

// SupportAll returns a copy of the supports of every value in a dimension
func (t *Table) SupportAll(dimension string) (map[string]float64, error) {
	supports, ok := t.byDim[dimension]
	if !ok {
		return nil, t.idx.CheckDimension(dimension)
	}
	out := make(map[string]float64, len(supports))
	for v, s := range supports {
		out[v] = s
	}
	return out, nil
}
