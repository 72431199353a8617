// Package association derives rule measures from supports and joint counts.
//
// Edge cases resolve to numeric sentinels instead of errors: confidence is 0 when the
// antecedent never occurs, lift is 0 when the consequent never occurs, and conviction
// is +Inf for a perfect implication.
package association

import (
	"math"

	"gobasket/domain/rules"
)

// Inputs are the counts and supports for a rule A -> B
type Inputs struct {
	SupportA float64
	SupportB float64
	Joint    int
	Total    int
}

// Compute derives the measures for A -> B using the global transaction total.
func Compute(in Inputs) rules.Metrics {
	joint := 0.0
	if in.Total > 0 {
		joint = float64(in.Joint) / float64(in.Total)
	}
	return FromSupports(joint, in.SupportA, in.SupportB)
}

// FromSupports derives the measures when the joint support is already known,
// as for mined itemsets.
func FromSupports(joint, supportA, supportB float64) rules.Metrics {
	m := rules.Metrics{
		Support:  joint,
		Leverage: joint - supportA*supportB,
	}
	if supportA > 0 {
		m.Confidence = joint / supportA
	}
	if supportB > 0 {
		m.Lift = m.Confidence / supportB
	}
	m.Conviction = Conviction(m.Confidence, supportB)
	return m
}

// Conviction is (1 - s_B) / (1 - confidence), +Inf once confidence reaches 1.
func Conviction(confidence, supportB float64) rules.Ratio {
	if confidence >= 1 {
		return rules.Ratio(math.Inf(1))
	}
	return rules.Ratio((1 - supportB) / (1 - confidence))
}
