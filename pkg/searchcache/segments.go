package searchcache

import (
	"sort"

	"github.com/launchify/search-cache/pkg/models"
)

// DeriveSegments maps a user context to the segment tags used for
// relevance comparison and targeted invalidation. Derivation is
// deterministic and total: missing optional fields simply contribute no
// segments.
func DeriveSegments(uc models.UserContext) []string {
	segments := make([]string, 0, 2+len(uc.Industries)+len(uc.Preferences))

	if uc.UserType != "" {
		segments = append(segments, string(uc.UserType))
	}
	if uc.SubscriptionTier != "" {
		segments = append(segments, string(uc.SubscriptionTier))
	}

	for _, industry := range uc.Industries {
		if industry != "" {
			segments = append(segments, "industry:"+industry)
		}
	}

	// Preference map iteration order is random; sort keys so the
	// derived list is stable.
	prefKeys := make([]string, 0, len(uc.Preferences))
	for k := range uc.Preferences {
		prefKeys = append(prefKeys, k)
	}
	sort.Strings(prefKeys)

	for _, k := range prefKeys {
		segments = append(segments, "pref:"+k+":"+uc.Preferences[k])
	}

	return segments
}
