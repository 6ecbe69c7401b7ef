package searchcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchify/search-cache/pkg/models"
)

type fakeQuerySource struct {
	queries []PopularQuery
	err     error
}

func (f *fakeQuerySource) PopularQueries(_ context.Context, _ time.Duration, _ int) ([]PopularQuery, error) {
	return f.queries, f.err
}

func TestWarmer_WarmCache(t *testing.T) {
	svc, _, _, cleanup := setupTestService(t, nil)
	defer cleanup()

	source := &fakeQuerySource{
		queries: []PopularQuery{
			{
				Query:            "fintech seed",
				Filters:          map[string]interface{}{"stage": "seed"},
				UserType:         models.UserTypeEntrepreneur,
				SubscriptionTier: models.TierGold,
				Count:            42,
			},
			{
				Query:            "climate growth",
				UserType:         models.UserTypeFunder,
				SubscriptionTier: models.TierBasic,
				Count:            17,
			},
		},
	}

	results := sampleResults()
	executor := func(_ context.Context, query string, _ map[string]interface{}, _ models.UserContext) ([]CachedResult, error) {
		if query == "climate growth" {
			return nil, errors.New("search backend unavailable")
		}
		return results, nil
	}

	warmer := NewWarmer(svc, source, executor, DefaultWarmerConfig(), svc.logger, nil)
	result, err := warmer.WarmCache(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Queries)
	assert.Equal(t, 1, result.Warmed)
	assert.Equal(t, 1, result.Failed)
	assert.Greater(t, result.Duration, time.Duration(0))

	// A warmed entry is immediately servable to a matching requester,
	// with no hit accumulation required.
	uc := models.UserContext{
		UserType:         models.UserTypeEntrepreneur,
		SubscriptionTier: models.TierGold,
	}
	got := svc.Read(context.Background(), "fintech seed", map[string]interface{}{"stage": "seed"}, uc)
	assert.Equal(t, results, got)
}

func TestWarmer_SourceFailure(t *testing.T) {
	svc, _, _, cleanup := setupTestService(t, nil)
	defer cleanup()

	source := &fakeQuerySource{err: errors.New("analytics store down")}
	executor := func(_ context.Context, _ string, _ map[string]interface{}, _ models.UserContext) ([]CachedResult, error) {
		t.Fatal("executor must not run when the source fails")
		return nil, nil
	}

	warmer := NewWarmer(svc, source, executor, DefaultWarmerConfig(), svc.logger, nil)
	result, err := warmer.WarmCache(context.Background())
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestWarmer_EmptySource(t *testing.T) {
	svc, _, _, cleanup := setupTestService(t, nil)
	defer cleanup()

	warmer := NewWarmer(svc, &fakeQuerySource{}, nil, DefaultWarmerConfig(), svc.logger, nil)
	result, err := warmer.WarmCache(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Queries)
	assert.Zero(t, result.Warmed)
}

func TestNewWarmer_ConfigDefaults(t *testing.T) {
	svc, _, _, cleanup := setupTestService(t, nil)
	defer cleanup()

	warmer := NewWarmer(svc, &fakeQuerySource{}, nil, WarmerConfig{}, nil, nil)
	assert.Equal(t, 7*24*time.Hour, warmer.config.Window)
	assert.Equal(t, 100, warmer.config.Limit)
	assert.Equal(t, 5*time.Minute, warmer.config.CycleTimeout)
}

func TestWarmer_GroupBySegment(t *testing.T) {
	svc, _, _, cleanup := setupTestService(t, nil)
	defer cleanup()

	warmer := NewWarmer(svc, &fakeQuerySource{}, nil, DefaultWarmerConfig(), svc.logger, nil)
	groups := warmer.groupBySegment([]PopularQuery{
		{Query: "a", UserType: models.UserTypeFunder, SubscriptionTier: models.TierGold},
		{Query: "b", UserType: models.UserTypeFunder, SubscriptionTier: models.TierGold},
		{Query: "c", UserType: models.UserTypeEntrepreneur, SubscriptionTier: models.TierBasic},
	})

	assert.Len(t, groups, 2)
	assert.Len(t, groups["funder/Gold"], 2)
	assert.Len(t, groups["entrepreneur/Basic"], 1)
}
