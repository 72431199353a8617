package excel

import (
	"fmt"
	"strings"
)

// RawRowData represents a row of raw Excel data as string key-value pairs
type RawRowData map[string]string

// ExcelData represents the complete Excel dataset
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// ColumnBinding maps a file column onto a basket dimension
type ColumnBinding struct {
	Dimension string `json:"dimension" yaml:"dimension"`
	Column    string `json:"column" yaml:"column"`
}

// ParseColumnBindings parses "item=sku,brand=Brand" into bindings.
// A bare name binds a column to the dimension of the same name.
func ParseColumnBindings(s string) ([]ColumnBinding, error) {
	var bindings []ColumnBinding
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dim, col, found := strings.Cut(part, "=")
		if !found {
			col = dim
		}
		dim, col = strings.TrimSpace(dim), strings.TrimSpace(col)
		if dim == "" || col == "" {
			return nil, fmt.Errorf("invalid column binding %q", part)
		}
		bindings = append(bindings, ColumnBinding{Dimension: dim, Column: col})
	}
	return bindings, nil
}
