package searchcache

import (
	"crypto/md5" // #nosec G401 -- key derivation, not authentication
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// DeriveKey maps a normalized query, filter set, and segment list to a
// deterministic cache key. The inputs are serialized canonically before
// hashing: encoding/json emits map keys in sorted order at every level,
// and the segment list is sorted explicitly, so two logically identical
// requests produce the same key regardless of filter key ordering or
// segment ordering.
func DeriveKey(query string, filters map[string]interface{}, segments []string) string {
	sorted := append([]string(nil), segments...)
	sort.Strings(sorted)

	canonical := map[string]interface{}{
		"query":    query,
		"filters":  filters,
		"segments": sorted,
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		// Filters containing unmarshalable values still need a stable
		// key; %v formatting of a map is not order-stable, so fall back
		// to query+segments only.
		data = []byte(fmt.Sprintf("%s|%v", query, sorted))
	}

	sum := md5.Sum(data) // #nosec G401
	return hex.EncodeToString(sum[:])
}
