package basket

import (
	"strings"
)

// Dataset is an ordered sequence of records plus the dimensions tracked for them.
// The engine treats it as read-only.
type Dataset struct {
	Name       string   `json:"name"`
	Dimensions []string `json:"dimensions"`
	Records    []Record `json:"records"`
}

// NewDataset creates a dataset tracking the given dimensions
func NewDataset(name string, dimensions []string, records []Record) *Dataset {
	dims := make([]string, 0, len(dimensions))
	seen := make(map[string]bool, len(dimensions))
	for _, d := range dimensions {
		d = strings.TrimSpace(d)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		dims = append(dims, d)
	}
	return &Dataset{Name: name, Dimensions: dims, Records: records}
}

// Len returns the number of raw rows
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// HasDimension reports whether the dimension is tracked by the dataset
func (d *Dataset) HasDimension(dimension string) bool {
	for _, dim := range d.Dimensions {
		if dim == dimension {
			return true
		}
	}
	return false
}

// Filter returns a new dataset holding only rows whose dimension value is one of values.
// Records are shared, not copied. An empty values list keeps every row.
func (d *Dataset) Filter(dimension string, values ...string) *Dataset {
	if len(values) == 0 {
		return d
	}
	allowed := make(map[string]bool, len(values))
	for _, v := range values {
		allowed[strings.TrimSpace(v)] = true
	}

	kept := make([]Record, 0, len(d.Records))
	for _, r := range d.Records {
		if allowed[r.Value(dimension)] {
			kept = append(kept, r)
		}
	}
	return &Dataset{Name: d.Name, Dimensions: d.Dimensions, Records: kept}
}
