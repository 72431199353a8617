// Package index turns raw line-level records into a transaction -> item-set mapping.
//
// Every (dimension, value) pair is recorded at most once per transaction, no matter how
// many rows repeat it: support and co-occurrence count baskets, not lines.
package index

import (
	"sort"
	"strings"

	"gobasket/domain/basket"
	"gobasket/domain/core"
)

// TransactionIndex is immutable once Build returns and safe for concurrent readers.
type TransactionIndex struct {
	ids         []string
	dimensions  []string
	dimSet      map[string]bool
	baskets     []map[string][]string
	postings    map[basket.Item][]int
	values      map[string][]string
	fingerprint core.Fingerprint
}

// Build indexes a dataset. Rows with a blank transaction id are skipped and blank
// dimension values are omitted from their transaction.
func Build(ds *basket.Dataset) (*TransactionIndex, error) {
	if ds == nil || len(ds.Records) == 0 {
		return nil, core.ErrEmptyDataset
	}

	grouped := make(map[string]map[string]map[string]struct{})
	for _, rec := range ds.Records {
		txID := strings.TrimSpace(rec.TransactionID)
		if txID == "" {
			continue
		}
		tx, ok := grouped[txID]
		if !ok {
			tx = make(map[string]map[string]struct{}, len(ds.Dimensions))
			grouped[txID] = tx
		}
		for _, dim := range ds.Dimensions {
			value := rec.Value(dim)
			if value == "" {
				continue
			}
			set, ok := tx[dim]
			if !ok {
				set = make(map[string]struct{})
				tx[dim] = set
			}
			set[value] = struct{}{}
		}
	}
	if len(grouped) == 0 {
		return nil, core.ErrEmptyDataset
	}

	ids := make([]string, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	idx := &TransactionIndex{
		ids:        ids,
		dimensions: append([]string(nil), ds.Dimensions...),
		dimSet:     make(map[string]bool, len(ds.Dimensions)),
		baskets:    make([]map[string][]string, len(ids)),
		postings:   make(map[basket.Item][]int),
		values:     make(map[string][]string, len(ds.Dimensions)),
	}
	for _, dim := range idx.dimensions {
		idx.dimSet[dim] = true
	}

	fp := core.NewFingerprintBuilder()
	for _, dim := range idx.dimensions {
		fp.Add(dim)
	}

	for ord, id := range ids {
		fp.Add(id)
		tx := grouped[id]
		contents := make(map[string][]string, len(tx))
		for _, dim := range idx.dimensions {
			set := tx[dim]
			if len(set) == 0 {
				continue
			}
			values := make([]string, 0, len(set))
			for v := range set {
				values = append(values, v)
			}
			sort.Strings(values)
			contents[dim] = values

			fp.Add(dim)
			for _, v := range values {
				fp.Add(v)
				item := basket.Item{Dimension: dim, Value: v}
				if _, seen := idx.postings[item]; !seen {
					idx.values[dim] = append(idx.values[dim], v)
				}
				// ordinals are visited in increasing order, so posting lists stay sorted
				idx.postings[item] = append(idx.postings[item], ord)
			}
		}
		idx.baskets[ord] = contents
	}
	for _, values := range idx.values {
		sort.Strings(values)
	}
	idx.fingerprint = fp.Sum()

	return idx, nil
}

// Total is the number of distinct transactions
func (x *TransactionIndex) Total() int { return len(x.ids) }

// Dimensions returns the indexed dimensions in dataset order
func (x *TransactionIndex) Dimensions() []string {
	return append([]string(nil), x.dimensions...)
}

func (x *TransactionIndex) HasDimension(dimension string) bool { return x.dimSet[dimension] }

// CheckDimension returns ErrUnknownDimension for dimensions absent from the dataset
func (x *TransactionIndex) CheckDimension(dimension string) error {
	if !x.dimSet[dimension] {
		return core.NewUnknownDimensionError(dimension)
	}
	return nil
}

// Transactions returns the sorted ordinals of transactions containing item.
// The slice is shared and must not be modified.
func (x *TransactionIndex) Transactions(item basket.Item) []int {
	return x.postings[item]
}

// Count is the number of distinct transactions containing item
func (x *TransactionIndex) Count(item basket.Item) int {
	return len(x.postings[item])
}

// Values returns the sorted distinct values of a dimension in one transaction.
// The slice is shared and must not be modified.
func (x *TransactionIndex) Values(tx int, dimension string) []string {
	return x.baskets[tx][dimension]
}

// TransactionID maps an ordinal back to the caller's identifier
func (x *TransactionIndex) TransactionID(tx int) string { return x.ids[tx] }

// DistinctValues returns every value observed for a dimension, sorted
func (x *TransactionIndex) DistinctValues(dimension string) []string {
	return append([]string(nil), x.values[dimension]...)
}

// Fingerprint identifies the indexed basket contents independently of row order
func (x *TransactionIndex) Fingerprint() core.Fingerprint { return x.fingerprint }
