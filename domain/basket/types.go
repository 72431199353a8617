package basket

import (
	"sort"
	"strings"
)

// Common retail dimension names. Datasets may use any other names.
const (
	DimensionItem     = "item"
	DimensionBrand    = "brand"
	DimensionCategory = "category"
	DimensionGroup    = "group"
)

// Record is one purchased line item
type Record struct {
	TransactionID string            `json:"transaction_id"`
	Values        map[string]string `json:"values"`
}

// Value returns the trimmed value of a dimension, "" when missing or blank.
func (r Record) Value(dimension string) string {
	return strings.TrimSpace(r.Values[dimension])
}

// Item is a (dimension, value) pair observed in a transaction
type Item struct {
	Dimension string `json:"dimension"`
	Value     string `json:"value"`
}

func (i Item) String() string {
	return i.Dimension + "=" + i.Value
}

// Less orders items by dimension, then value
func (i Item) Less(other Item) bool {
	if i.Dimension != other.Dimension {
		return i.Dimension < other.Dimension
	}
	return i.Value < other.Value
}

// EntitySelector names the antecedent under analysis
type EntitySelector struct {
	Dimension string `json:"dimension" binding:"required"`
	Value     string `json:"value" binding:"required"`
}

func (s EntitySelector) Item() Item {
	return Item{Dimension: s.Dimension, Value: strings.TrimSpace(s.Value)}
}

func (s EntitySelector) String() string { return s.Item().String() }

// ItemSet is a canonical (sorted, duplicate free) set of items
type ItemSet []Item

// NewItemSet sorts and deduplicates items
func NewItemSet(items ...Item) ItemSet {
	set := make(ItemSet, len(items))
	copy(set, items)
	sort.Slice(set, func(a, b int) bool { return set[a].Less(set[b]) })

	out := set[:0]
	for i, item := range set {
		if i > 0 && item == set[i-1] {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Key joins the items into a stable lexical identifier
func (s ItemSet) Key() string {
	parts := make([]string, len(s))
	for i, item := range s {
		parts[i] = item.String()
	}
	return strings.Join(parts, ",")
}

// Values returns the bare values, in set order
func (s ItemSet) Values() []string {
	values := make([]string, len(s))
	for i, item := range s {
		values[i] = item.Value
	}
	return values
}

func (s ItemSet) Contains(item Item) bool {
	idx := sort.Search(len(s), func(i int) bool { return !s[i].Less(item) })
	return idx < len(s) && s[idx] == item
}
