package searchcache

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/launchify/search-cache/pkg/models"
)

func TestDeriveSegments(t *testing.T) {
	t.Run("full context", func(t *testing.T) {
		uc := models.UserContext{
			UserID:           uuid.New(),
			UserType:         models.UserTypeEntrepreneur,
			SubscriptionTier: models.TierGold,
			Industries:       []string{"Technology", "Healthcare"},
			Preferences: map[string]string{
				"region": "EMEA",
				"stage":  "seed",
			},
		}

		segments := DeriveSegments(uc)

		assert.Equal(t, []string{
			"entrepreneur",
			"Gold",
			"industry:Technology",
			"industry:Healthcare",
			"pref:region:EMEA",
			"pref:stage:seed",
		}, segments)
	})

	t.Run("missing optional fields contribute nothing", func(t *testing.T) {
		uc := models.UserContext{
			UserType:         models.UserTypeFunder,
			SubscriptionTier: models.TierBasic,
		}

		assert.Equal(t, []string{"funder", "Basic"}, DeriveSegments(uc))
	})

	t.Run("zero context yields no segments", func(t *testing.T) {
		assert.Empty(t, DeriveSegments(models.UserContext{}))
	})

	t.Run("preference order is stable", func(t *testing.T) {
		uc := models.UserContext{
			UserType:         models.UserTypeFunder,
			SubscriptionTier: models.TierSilver,
			Preferences: map[string]string{
				"c": "3", "a": "1", "b": "2",
			},
		}

		first := DeriveSegments(uc)
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, DeriveSegments(uc))
		}
	})

	t.Run("empty industry names are skipped", func(t *testing.T) {
		uc := models.UserContext{
			UserType:   models.UserTypeFunder,
			Industries: []string{"", "Energy"},
		}

		assert.Equal(t, []string{"funder", "industry:Energy"}, DeriveSegments(uc))
	})
}

func TestSubscriptionTier_IsPremium(t *testing.T) {
	assert.True(t, models.TierGold.IsPremium())
	assert.True(t, models.TierPlatinum.IsPremium())
	assert.False(t, models.TierBasic.IsPremium())
	assert.False(t, models.TierChrome.IsPremium())
	assert.False(t, models.TierBronze.IsPremium())
	assert.False(t, models.TierSilver.IsPremium())
	assert.False(t, models.SubscriptionTier("Unknown").IsPremium())
}
