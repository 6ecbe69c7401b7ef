package searchcache

// RelevanceChecker decides whether a cached entry written under one set
// of segments may be served to a requester with another. The check runs
// per read: the same entry can be relevant for one requester and
// irrelevant for the next within a single TTL window.
type RelevanceChecker struct {
	threshold float64
}

// NewRelevanceChecker creates a checker with the given minimum overlap
// ratio
func NewRelevanceChecker(threshold float64) *RelevanceChecker {
	return &RelevanceChecker{threshold: threshold}
}

// IsRelevant reports whether the overlap between the cached segments and
// the requester's segments, as a fraction of the cached segments, meets
// the threshold.
//
// An entry with no cached segments is never relevant: a context-free
// entry must not be served as universally valid, so the next read
// invalidates it instead.
func (r *RelevanceChecker) IsRelevant(cachedSegments, requesterSegments []string) bool {
	if len(cachedSegments) == 0 {
		return false
	}

	requester := make(map[string]struct{}, len(requesterSegments))
	for _, s := range requesterSegments {
		requester[s] = struct{}{}
	}

	overlap := 0
	for _, s := range cachedSegments {
		if _, ok := requester[s]; ok {
			overlap++
		}
	}

	return float64(overlap)/float64(len(cachedSegments)) >= r.threshold
}
