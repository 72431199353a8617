package apriori

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gobasket/domain/basket"
	"gobasket/domain/core"
	"gobasket/domain/rules"
	"gobasket/internal/index"
	"gobasket/internal/testkit"
)

func buildIndex(t *testing.T, ds *basket.Dataset) *index.TransactionIndex {
	t.Helper()
	idx, err := index.Build(ds)
	require.NoError(t, err)
	return idx
}

func keys(itemsets []rules.FrequentItemset) []string {
	out := make([]string, len(itemsets))
	for i, fs := range itemsets {
		out[i] = fs.Items.Key()
	}
	return out
}

func findRule(t *testing.T, rs []rules.AssociationRule, key string) rules.AssociationRule {
	t.Helper()
	for _, r := range rs {
		if r.Key() == key {
			return r
		}
	}
	t.Fatalf("rule %s not found", key)
	return rules.AssociationRule{}
}

func TestMine_BreadButterMilk(t *testing.T) {
	idx := buildIndex(t, testkit.BreadButterMilk())

	res, err := NewMiner(Options{MinSupport: 0.3, MinConfidence: 0.5, Workers: 2}).Mine(context.Background(), idx, basket.DimensionItem)
	require.NoError(t, err)

	assert.Equal(t, 10, res.Transactions)
	assert.Equal(t, []string{
		"item=Bread",
		"item=Butter",
		"item=Milk",
		"item=Bread,item=Butter",
		"item=Bread,item=Milk",
		"item=Butter,item=Milk",
		"item=Bread,item=Butter,item=Milk",
	}, keys(res.Itemsets))
	assert.Equal(t, 3, res.Itemsets[6].Count)

	breadButter := findRule(t, res.Rules, "item=Bread=>item=Butter")
	assert.InDelta(t, 0.6, breadButter.Support, 1e-12)
	assert.InDelta(t, 0.75, breadButter.Confidence, 1e-12)
	assert.InDelta(t, 1.0714285714, breadButter.Lift, 1e-9)
	assert.InDelta(t, 0.8, breadButter.AntecedentSupport, 1e-12)
	assert.InDelta(t, 0.7, breadButter.ConsequentSupport, 1e-12)

	pairToMilk := findRule(t, res.Rules, "item=Bread,item=Butter=>item=Milk")
	assert.InDelta(t, 0.5, pairToMilk.Confidence, 1e-12)

	for _, r := range res.Rules {
		assert.GreaterOrEqual(t, r.Confidence, 0.5, r.Key())
	}
}

func TestMine_MaxSize(t *testing.T) {
	idx := buildIndex(t, testkit.BreadButterMilk())

	res, err := NewMiner(Options{MinSupport: 0.3, MaxSize: 2}).Mine(context.Background(), idx, basket.DimensionItem)
	require.NoError(t, err)

	for _, fs := range res.Itemsets {
		assert.LessOrEqual(t, len(fs.Items), 2)
	}
	assert.Len(t, res.Itemsets, 6)
}

func TestMine_NothingFrequent(t *testing.T) {
	idx := buildIndex(t, testkit.Receipts(basket.DimensionItem, "a", "b", "c", "d"))

	res, err := NewMiner(Options{MinSupport: 0.5}).Mine(context.Background(), idx, basket.DimensionItem)
	require.NoError(t, err)

	assert.Empty(t, res.Itemsets)
	assert.Empty(t, res.Rules)
	assert.NotNil(t, res.Rules)
}

func TestMine_Within(t *testing.T) {
	idx := buildIndex(t, testkit.BreadButterMilk())
	within := &basket.EntitySelector{Dimension: basket.DimensionItem, Value: "Milk"}

	res, err := NewMiner(Options{MinSupport: 0.5, Within: within}).Mine(context.Background(), idx, basket.DimensionItem)
	require.NoError(t, err)

	assert.Equal(t, 7, res.Transactions)
	require.NotEmpty(t, res.Itemsets)
	assert.Equal(t, "item=Milk", res.Itemsets[0].Items.Key())
	assert.InDelta(t, 1.0, res.Itemsets[0].Support, 1e-12)
	assert.InDelta(t, 5.0/7.0, res.Itemsets[1].Support, 1e-12)

	// every rule into Milk is a perfect implication inside Milk baskets
	toMilk := findRule(t, res.Rules, "item=Bread=>item=Milk")
	assert.True(t, toMilk.Conviction.IsInf())
}

func TestMine_InvalidOptions(t *testing.T) {
	idx := buildIndex(t, testkit.BreadButterMilk())

	tests := []struct {
		name string
		opts Options
	}{
		{name: "zero support", opts: Options{MinSupport: 0}},
		{name: "support above one", opts: Options{MinSupport: 1.5}},
		{name: "negative confidence", opts: Options{MinSupport: 0.1, MinConfidence: -0.1}},
		{name: "negative max size", opts: Options{MinSupport: 0.1, MaxSize: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMiner(tt.opts).Mine(context.Background(), idx, basket.DimensionItem)
			assert.ErrorIs(t, err, core.ErrInvalidThreshold)
		})
	}
}

func TestMine_UnknownDimension(t *testing.T) {
	idx := buildIndex(t, testkit.BreadButterMilk())

	_, err := NewMiner(DefaultOptions()).Mine(context.Background(), idx, "region")
	assert.ErrorIs(t, err, core.ErrUnknownDimension)

	within := &basket.EntitySelector{Dimension: "region", Value: "North"}
	_, err = NewMiner(Options{MinSupport: 0.1, Within: within}).Mine(context.Background(), idx, basket.DimensionItem)
	assert.ErrorIs(t, err, core.ErrUnknownDimension)
}

func TestMine_Canceled(t *testing.T) {
	idx := buildIndex(t, testkit.BreadButterMilk())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMiner(Options{MinSupport: 0.1}).Mine(ctx, idx, basket.DimensionItem)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMine_AntiMonotone(t *testing.T) {
	config := testkit.DefaultBasketConfig()
	config.ProductCount = 15
	config.BasketCount = 400
	idx := buildIndex(t, testkit.NewBasketGenerator(config).Dataset())

	res, err := NewMiner(Options{MinSupport: 0.02, MinConfidence: 0.1}).Mine(context.Background(), idx, basket.DimensionItem)
	require.NoError(t, err)

	supports := make(map[string]float64, len(res.Itemsets))
	for _, fs := range res.Itemsets {
		supports[fs.Items.Key()] = fs.Support
	}

	for _, fs := range res.Itemsets {
		if len(fs.Items) < 2 {
			continue
		}
		for drop := range fs.Items {
			subset := make([]basket.Item, 0, len(fs.Items)-1)
			subset = append(subset, fs.Items[:drop]...)
			subset = append(subset, fs.Items[drop+1:]...)
			sub, ok := supports[basket.NewItemSet(subset...).Key()]
			if !ok {
				t.Fatalf("subset of %s missing from frequent itemsets", fs.Items.Key())
			}
			if sub < fs.Support {
				t.Errorf("support(%s)=%f below superset %s=%f", basket.NewItemSet(subset...).Key(), sub, fs.Items.Key(), fs.Support)
			}
		}
	}
}

func TestMine_DeterministicAcrossWorkers(t *testing.T) {
	config := testkit.DefaultBasketConfig()
	config.ProductCount = 20
	config.BasketCount = 300
	idx := buildIndex(t, testkit.NewBasketGenerator(config).Dataset())

	serial, err := NewMiner(Options{MinSupport: 0.02, MinConfidence: 0.2, Workers: 1}).Mine(context.Background(), idx, basket.DimensionItem)
	require.NoError(t, err)
	parallel, err := NewMiner(Options{MinSupport: 0.02, MinConfidence: 0.2, Workers: 8}).Mine(context.Background(), idx, basket.DimensionItem)
	require.NoError(t, err)

	if !reflect.DeepEqual(serial, parallel) {
		t.Error("Expected identical results regardless of worker count")
	}
}

func TestIntersect(t *testing.T) {
	assert.Equal(t, []int{2, 5}, intersect([]int{1, 2, 5, 9}, []int{2, 3, 5}))
	assert.Empty(t, intersect([]int{1}, nil))
}
