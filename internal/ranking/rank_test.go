package ranking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gobasket/domain/core"
)

type row struct {
	name  string
	score float64
}

func byName(r row) string   { return r.name }
func byScore(r row) float64 { return r.score }

func names(rows []row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.name
	}
	return out
}

func TestRank_TopKTiesResolveLexically(t *testing.T) {
	rows := []row{
		{"Yogurt", 0.05},
		{"Milk", 0.5},
		{"Eggs", 0.1},
		{"Butter", 0.5},
		{"Jam", 0.3},
	}

	top, err := Rank(rows, byName, byScore, 2, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Butter", "Milk"}, names(top))
}

func TestRank_Directions(t *testing.T) {
	rows := []row{
		{"b", 1},
		{"a", math.Inf(1)},
		{"c", 0.5},
		{"d", 1},
	}

	tests := []struct {
		name       string
		descending bool
		want       []string
	}{
		{name: "descending puts infinity first", descending: true, want: []string{"a", "b", "d", "c"}},
		{name: "ascending puts infinity last", descending: false, want: []string{"c", "b", "d", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Rank(rows, byName, byScore, 10, tt.descending)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestRank_InvalidTopK(t *testing.T) {
	_, err := Rank([]row{{"a", 1}}, byName, byScore, 0, true)
	assert.ErrorIs(t, err, core.ErrInvalidTopK)
}

func TestRank_DoesNotModifyInput(t *testing.T) {
	rows := []row{{"b", 1}, {"a", 2}}

	_, err := Rank(rows, byName, byScore, 1, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, names(rows))
}

func TestRank_EmptyInput(t *testing.T) {
	got, err := Rank([]row{}, byName, byScore, 3, true)
	require.NoError(t, err)
	assert.Empty(t, got)
}
