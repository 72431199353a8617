package rules

import (
	"strings"

	"gobasket/domain/core"
)

// Metric names a sortable measure
type Metric string

const (
	MetricSupport    Metric = "support"
	MetricConfidence Metric = "confidence"
	MetricLift       Metric = "lift"
	MetricConviction Metric = "conviction"
	MetricLeverage   Metric = "leverage"
	MetricFrequency  Metric = "frequency"
)

// ParseMetric accepts metric names case-insensitively; "" means lift.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MetricLift, nil
	case MetricSupport, MetricConfidence, MetricLift, MetricConviction, MetricLeverage, MetricFrequency:
		return m, nil
	default:
		return "", core.NewUnknownMetricError(s)
	}
}

// Of reads the metric from a set of measures. Frequency is carried separately
// by callers since Metrics has no count.
func (m Metric) Of(metrics Metrics, frequency int) float64 {
	switch m {
	case MetricSupport:
		return metrics.Support
	case MetricConfidence:
		return metrics.Confidence
	case MetricConviction:
		return float64(metrics.Conviction)
	case MetricLeverage:
		return metrics.Leverage
	case MetricFrequency:
		return float64(frequency)
	default:
		return metrics.Lift
	}
}
