package index

import (
	"github.com/montanaflynn/stats"
)

// SizeStats describes how many distinct values of one dimension a basket holds
type SizeStats struct {
	Distinct int     `json:"distinct_values"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	P90      float64 `json:"p90"`
	Max      float64 `json:"max"`
}

// BasketStats summarizes an index for dataset overviews
type BasketStats struct {
	Transactions int                  `json:"transactions"`
	Fingerprint  string               `json:"fingerprint"`
	Dimensions   map[string]SizeStats `json:"dimensions"`
}

// Summarize computes per-dimension basket size statistics
func Summarize(x *TransactionIndex) (BasketStats, error) {
	summary := BasketStats{
		Transactions: x.Total(),
		Fingerprint:  x.Fingerprint().String(),
		Dimensions:   make(map[string]SizeStats, len(x.dimensions)),
	}

	for _, dim := range x.dimensions {
		sizes := make(stats.Float64Data, x.Total())
		for tx := range x.baskets {
			sizes[tx] = float64(len(x.baskets[tx][dim]))
		}

		mean, err := sizes.Mean()
		if err != nil {
			return BasketStats{}, err
		}
		median, err := sizes.Median()
		if err != nil {
			return BasketStats{}, err
		}
		p90, err := sizes.Percentile(90)
		if err != nil {
			return BasketStats{}, err
		}
		max, err := sizes.Max()
		if err != nil {
			return BasketStats{}, err
		}

		summary.Dimensions[dim] = SizeStats{
			Distinct: len(x.values[dim]),
			Mean:     mean,
			Median:   median,
			P90:      p90,
			Max:      max,
		}
	}

	return summary, nil
}
