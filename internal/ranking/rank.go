// Package ranking orders result rows by a score and keeps the top K.
package ranking

import (
	"math"
	"sort"

	"gobasket/domain/core"
)

// Rank returns the topK rows ordered by score. Ties, and NaN scores, are ordered
// by key ascending whatever the direction. +Inf ranks first when descending.
// The input slice is not modified.
func Rank[T any](rows []T, key func(T) string, score func(T) float64, topK int, descending bool) ([]T, error) {
	if topK < 1 {
		return nil, core.ErrInvalidTopK
	}

	sorted := make([]T, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(a, b int) bool {
		sa, sb := normalize(score(sorted[a])), normalize(score(sorted[b]))
		if sa != sb {
			if descending {
				return sa > sb
			}
			return sa < sb
		}
		return key(sorted[a]) < key(sorted[b])
	})

	if len(sorted) > topK {
		sorted = sorted[:topK]
	}
	return sorted, nil
}

// normalize maps NaN to -Inf so comparisons stay a strict weak ordering
func normalize(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}
