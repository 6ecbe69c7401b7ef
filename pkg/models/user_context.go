// Package models holds the platform domain types shared between the
// search-cache subsystem and the request-handling layer that consumes it.
package models

import "github.com/google/uuid"

// UserType identifies which side of the marketplace a user belongs to
type UserType string

// Marketplace user types
const (
	UserTypeEntrepreneur UserType = "entrepreneur"
	UserTypeFunder       UserType = "funder"
)

// SubscriptionTier is the ordered subscription level of a user
type SubscriptionTier string

// Subscription tiers, lowest to highest
const (
	TierBasic    SubscriptionTier = "Basic"
	TierChrome   SubscriptionTier = "Chrome"
	TierBronze   SubscriptionTier = "Bronze"
	TierSilver   SubscriptionTier = "Silver"
	TierGold     SubscriptionTier = "Gold"
	TierPlatinum SubscriptionTier = "Platinum"
)

// tierRank orders tiers for comparisons. Unknown tiers rank below Basic.
var tierRank = map[SubscriptionTier]int{
	TierBasic:    1,
	TierChrome:   2,
	TierBronze:   3,
	TierSilver:   4,
	TierGold:     5,
	TierPlatinum: 6,
}

// IsPremium reports whether the tier qualifies for the premium cache
// configuration (Gold and above).
func (t SubscriptionTier) IsPremium() bool {
	return tierRank[t] >= tierRank[TierGold]
}

// UserContext carries the requester attributes the cache derives segments
// from. It is ephemeral: the cache never persists it verbatim.
type UserContext struct {
	UserID           uuid.UUID         `json:"user_id"`
	UserType         UserType          `json:"user_type"`
	SubscriptionTier SubscriptionTier  `json:"subscription_tier"`
	Industries       []string          `json:"industries,omitempty"`
	Preferences      map[string]string `json:"preferences,omitempty"`
}
