package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gobasket/domain/basket"
	"gobasket/domain/core"
	"gobasket/domain/rules"
	"gobasket/internal/apriori"
)

// MockRuleRunRepository is a mock implementation of ports.RuleRunRepository
type MockRuleRunRepository struct {
	mock.Mock
}

func (m *MockRuleRunRepository) SaveRun(ctx context.Context, run *rules.MiningRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRuleRunRepository) GetRun(ctx context.Context, id core.RunID) (*rules.MiningRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rules.MiningRun), args.Error(1)
}

func (m *MockRuleRunRepository) ListRuns(ctx context.Context, limit int) ([]*rules.MiningRun, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*rules.MiningRun), args.Error(1)
}

func testDefaults() MiningDefaults {
	return MiningDefaults{
		Options: apriori.Options{MinSupport: 0.3, MinConfidence: 0.5, Workers: 2},
		TopK:    3,
		SortBy:  rules.MetricConfidence,
		Timeout: 5 * time.Second,
	}
}

func TestMiningService_Run(t *testing.T) {
	svc := NewMiningService(nil, testDefaults(), nil)
	sess := newBreadSession(t)

	resp, err := svc.Run(context.Background(), sess, MineRequest{Dimension: basket.DimensionItem})
	require.NoError(t, err)

	assert.Empty(t, resp.RunID)
	assert.Equal(t, 10, resp.Transactions)
	assert.Len(t, resp.Itemsets, 7)
	assert.Len(t, resp.Rules, 3)
	assert.Greater(t, resp.TotalRules, 3)
	for i := 1; i < len(resp.Rules); i++ {
		assert.GreaterOrEqual(t, resp.Rules[i-1].Confidence, resp.Rules[i].Confidence)
	}
}

func TestMiningService_Overrides(t *testing.T) {
	svc := NewMiningService(nil, testDefaults(), nil)
	sess := newBreadSession(t)
	zero := 0.0

	resp, err := svc.Run(context.Background(), sess, MineRequest{
		Dimension:     basket.DimensionItem,
		MinSupport:    0.5,
		MinConfidence: &zero,
		SortBy:        "lift",
		TopK:          100,
	})
	require.NoError(t, err)

	// Bread&Butter and Bread&Milk reach 0.5, Butter&Milk does not
	assert.Len(t, resp.Itemsets, 5)
	assert.Equal(t, 4, resp.TotalRules)
	assert.Len(t, resp.Rules, 4)
}

func TestMiningService_InvalidRequests(t *testing.T) {
	svc := NewMiningService(nil, testDefaults(), nil)
	sess := newBreadSession(t)

	_, err := svc.Run(context.Background(), sess, MineRequest{Dimension: basket.DimensionItem, SortBy: "zscore"})
	assert.ErrorIs(t, err, core.ErrUnknownMetric)

	_, err = svc.Run(context.Background(), sess, MineRequest{Dimension: basket.DimensionItem, TopK: -1})
	assert.ErrorIs(t, err, core.ErrInvalidTopK)

	_, err = svc.Run(context.Background(), sess, MineRequest{Dimension: basket.DimensionItem, MinSupport: 2})
	assert.ErrorIs(t, err, core.ErrInvalidThreshold)
}

func TestMiningService_PersistsRun(t *testing.T) {
	repo := new(MockRuleRunRepository)
	repo.On("SaveRun", mock.Anything, mock.MatchedBy(func(run *rules.MiningRun) bool {
		return run.Dimension == basket.DimensionItem && len(run.Itemsets) == 7 && !run.ID.IsEmpty() &&
			run.ItemsetCount == 7 && run.RuleCount == 9
	})).Return(nil)

	svc := NewMiningService(repo, testDefaults(), nil)
	sess := newBreadSession(t)

	resp, err := svc.Run(context.Background(), sess, MineRequest{Dimension: basket.DimensionItem, Persist: true})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.RunID)
	repo.AssertExpectations(t)
}

func TestMiningService_SaveFailure(t *testing.T) {
	repo := new(MockRuleRunRepository)
	repo.On("SaveRun", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	svc := NewMiningService(repo, testDefaults(), nil)

	_, err := svc.Run(context.Background(), newBreadSession(t), MineRequest{Dimension: basket.DimensionItem, Persist: true})
	assert.ErrorContains(t, err, "disk full")
}

func TestMiningService_RunsWithoutRepository(t *testing.T) {
	svc := NewMiningService(nil, testDefaults(), nil)

	_, err := svc.GetRun(context.Background(), core.NewRunID())
	assert.ErrorIs(t, err, core.ErrRunNotFound)

	runs, err := svc.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
