package ports

import "time"

// AnalysisObserver receives timings of engine operations, e.g. for metrics export
type AnalysisObserver interface {
	ObserveQuery(kind string, duration time.Duration, err error)
	ObserveMining(dimension string, duration time.Duration, itemsets, rules int, err error)
	ObserveSession(transactions int, duration time.Duration)
}
