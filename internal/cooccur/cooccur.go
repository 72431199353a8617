// Package cooccur counts, for one antecedent entity, how many of its transactions
// contain each value of the target dimensions.
package cooccur

import (
	"gobasket/domain/basket"
	"gobasket/internal/index"
)

// Result is the co-occurrence table of one antecedent.
// Every count is at most Baskets.
type Result struct {
	Antecedent basket.Item               `json:"antecedent"`
	Baskets    int                       `json:"baskets"`
	WithOthers int                       `json:"with_others"`
	Counts     map[string]map[string]int `json:"counts"`
}

// Count walks the antecedent's posting list and increments each distinct target value
// once per transaction. The antecedent is excluded from its own dimension.
// Empty targets means every indexed dimension.
func Count(idx *index.TransactionIndex, antecedent basket.EntitySelector, targets []string) (*Result, error) {
	if err := idx.CheckDimension(antecedent.Dimension); err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		targets = idx.Dimensions()
	}
	for _, dim := range targets {
		if err := idx.CheckDimension(dim); err != nil {
			return nil, err
		}
	}

	item := antecedent.Item()
	txs := idx.Transactions(item)
	res := &Result{
		Antecedent: item,
		Baskets:    len(txs),
		Counts:     make(map[string]map[string]int, len(targets)),
	}
	for _, dim := range targets {
		if _, ok := res.Counts[dim]; !ok {
			res.Counts[dim] = make(map[string]int)
		}
	}

	for _, tx := range txs {
		// the antecedent value is always present, so any second value means company
		if len(idx.Values(tx, item.Dimension)) > 1 {
			res.WithOthers++
		}
		for dim, counts := range res.Counts {
			for _, v := range idx.Values(tx, dim) {
				if dim == item.Dimension && v == item.Value {
					continue
				}
				counts[v]++
			}
		}
	}

	return res, nil
}

// AttachRate is the fraction of the antecedent's baskets that hold another value
// of the same dimension.
func (r *Result) AttachRate() float64 {
	if r.Baskets == 0 {
		return 0
	}
	return float64(r.WithOthers) / float64(r.Baskets)
}

// Sum adds up the counts of one dimension
func (r *Result) Sum(dimension string) int {
	total := 0
	for _, n := range r.Counts[dimension] {
		total += n
	}
	return total
}
