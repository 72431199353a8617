package ports

import (
	"context"

	"gobasket/domain/basket"
)

// DatasetReader loads line-level transaction records from a source
// (CSV/XLSX file, REST endpoint).
type DatasetReader interface {
	Read(ctx context.Context) (*basket.Dataset, error)
	// Source describes where records come from, for logs and run metadata
	Source() string
}
