package association

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_BreadButter(t *testing.T) {
	m := Compute(Inputs{SupportA: 0.8, SupportB: 0.7, Joint: 6, Total: 10})

	assert.InDelta(t, 0.6, m.Support, 1e-12)
	assert.InDelta(t, 0.75, m.Confidence, 1e-12)
	assert.InDelta(t, 1.0714285714, m.Lift, 1e-9)
	assert.InDelta(t, 0.04, m.Leverage, 1e-12)
	assert.InDelta(t, 1.2, float64(m.Conviction), 1e-9)
}

func TestCompute_EdgeCases(t *testing.T) {
	tests := []struct {
		name           string
		in             Inputs
		wantConfidence float64
		wantLift       float64
		wantInf        bool
	}{
		{
			name:           "antecedent never occurs",
			in:             Inputs{SupportA: 0, SupportB: 0.5, Joint: 0, Total: 10},
			wantConfidence: 0,
			wantLift:       0,
		},
		{
			name:           "consequent never occurs",
			in:             Inputs{SupportA: 0.5, SupportB: 0, Joint: 0, Total: 10},
			wantConfidence: 0,
			wantLift:       0,
		},
		{
			name:           "perfect implication",
			in:             Inputs{SupportA: 0.3, SupportB: 0.6, Joint: 3, Total: 10},
			wantConfidence: 1,
			wantLift:       1 / 0.6,
			wantInf:        true,
		},
		{
			name: "empty universe",
			in:   Inputs{SupportA: 0, SupportB: 0, Joint: 0, Total: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Compute(tt.in)
			assert.InDelta(t, tt.wantConfidence, m.Confidence, 1e-12)
			assert.InDelta(t, tt.wantLift, m.Lift, 1e-12)
			assert.Equal(t, tt.wantInf, m.Conviction.IsInf())
			if !tt.wantInf {
				assert.False(t, math.IsNaN(float64(m.Conviction)))
				assert.GreaterOrEqual(t, float64(m.Conviction), 0.0)
			}
		})
	}
}

func TestCompute_ConfidenceBounded(t *testing.T) {
	for joint := 0; joint <= 4; joint++ {
		m := Compute(Inputs{SupportA: 0.4, SupportB: 0.9, Joint: joint, Total: 10})
		assert.GreaterOrEqual(t, m.Confidence, 0.0)
		assert.LessOrEqual(t, m.Confidence, 1.0)
		assert.Equal(t, joint == 4, m.Conviction.IsInf())
	}
}

func TestMetrics_JSONWithInfiniteConviction(t *testing.T) {
	m := FromSupports(0.3, 0.3, 0.6)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"conviction":"Infinity"`)
}
