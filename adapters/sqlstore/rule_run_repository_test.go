package sqlstore

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gobasket/domain/basket"
	"gobasket/domain/core"
	"gobasket/domain/rules"
	"gobasket/internal/apriori"
	"gobasket/internal/errors"
	"gobasket/internal/index"
	"gobasket/internal/migration"
	"gobasket/internal/testkit"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.NewRunner().Run(ctx, db))
	return db
}

func minedRun(t *testing.T) *rules.MiningRun {
	t.Helper()
	ds := testkit.BreadButterMilk()
	idx, err := index.Build(ds)
	require.NoError(t, err)

	opts := apriori.DefaultOptions()
	opts.MinSupport = 0.3
	opts.MinConfidence = 0.5
	result, err := apriori.NewMiner(opts).Mine(context.Background(), idx, basket.DimensionItem)
	require.NoError(t, err)

	return &rules.MiningRun{
		Dataset:       ds.Name,
		Fingerprint:   idx.Fingerprint(),
		Dimension:     basket.DimensionItem,
		MinSupport:    opts.MinSupport,
		MinConfidence: opts.MinConfidence,
		Transactions:  result.Transactions,
		Itemsets:      result.Itemsets,
		Rules:         result.Rules,
	}
}

func TestRuleRunRepository_SaveAndGet(t *testing.T) {
	repo := NewRuleRunRepository(newTestDB(t))
	ctx := context.Background()

	run := minedRun(t)
	require.NoError(t, repo.SaveRun(ctx, run))
	require.NotEmpty(t, run.ID)
	require.False(t, run.CreatedAt.IsZero())

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, len(run.Itemsets), got.ItemsetCount)
	assert.Equal(t, len(run.Rules), got.RuleCount)
	assert.Equal(t, run.Fingerprint, got.Fingerprint)
	assert.Equal(t, 10, got.Transactions)
	assert.Equal(t, run.Itemsets, got.Itemsets)
	require.Len(t, got.Rules, len(run.Rules))
	for i := range run.Rules {
		assert.Equal(t, run.Rules[i].Key(), got.Rules[i].Key())
		assert.InDelta(t, run.Rules[i].Lift, got.Rules[i].Lift, 1e-12)
		assert.InDelta(t, float64(run.Rules[i].Conviction), float64(got.Rules[i].Conviction), 1e-12)
	}
	assert.WithinDuration(t, run.CreatedAt.Time(), got.CreatedAt.Time(), time.Second)
}

func TestRuleRunRepository_InfiniteConviction(t *testing.T) {
	repo := NewRuleRunRepository(newTestDB(t))
	ctx := context.Background()

	pasta := basket.Item{Dimension: basket.DimensionItem, Value: "Pasta"}
	sauce := basket.Item{Dimension: basket.DimensionItem, Value: "Tomato Sauce"}
	run := &rules.MiningRun{
		Dataset:      "pantry",
		Dimension:    basket.DimensionItem,
		Transactions: 4,
		Rules: []rules.AssociationRule{{
			Antecedent: basket.NewItemSet(pasta),
			Consequent: basket.NewItemSet(sauce),
			Metrics:    rules.Metrics{Support: 0.5, Confidence: 1, Lift: 2, Leverage: 0.25, Conviction: rules.Ratio(math.Inf(1))},
		}},
	}
	require.NoError(t, repo.SaveRun(ctx, run))

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got.Rules, 1)
	assert.True(t, got.Rules[0].Conviction.IsInf())
	assert.Empty(t, got.Itemsets)
}

func TestRuleRunRepository_NotFound(t *testing.T) {
	repo := NewRuleRunRepository(newTestDB(t))

	_, err := repo.GetRun(context.Background(), core.RunID("missing"))
	assert.ErrorIs(t, err, core.ErrRunNotFound)
	assert.True(t, core.IsNotFoundError(err))
}

func TestRuleRunRepository_ListRuns(t *testing.T) {
	repo := NewRuleRunRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []core.RunID
	for i := 0; i < 3; i++ {
		run := minedRun(t)
		run.CreatedAt = core.NewTimestamp(base.Add(time.Duration(i) * time.Hour))
		require.NoError(t, repo.SaveRun(ctx, run))
		ids = append(ids, run.ID)
	}

	runs, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.Nil(t, runs[0].Rules)
	for _, run := range runs {
		assert.Equal(t, 7, run.ItemsetCount)
		assert.Equal(t, 9, run.RuleCount)
	}

	data, err := json.Marshal(runs[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"itemset_count":7`)
	assert.Contains(t, string(data), `"rule_count":9`)
	assert.NotContains(t, string(data), `"rules"`)

	all, err := repo.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	assert.ErrorContains(t, err, "unsupported database driver")
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestRuleRunRepository_DatabaseErrors(t *testing.T) {
	db := newTestDB(t)
	repo := NewRuleRunRepository(db)
	ctx := context.Background()

	run := minedRun(t)
	require.NoError(t, repo.SaveRun(ctx, run))
	assert.Equal(t, 7, run.ItemsetCount)
	assert.Equal(t, 9, run.RuleCount)
	require.NoError(t, db.Close())

	_, err := repo.GetRun(ctx, run.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
	assert.False(t, core.IsNotFoundError(err))

	err = repo.SaveRun(ctx, minedRun(t))
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))

	_, err = repo.ListRuns(ctx, 10)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
}
