package search

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// CacheKey derives the stage-1 cache key for a query. Filter lists are
// canonicalized first so semantically equal requests share one entry; the
// user ID participates only when present so anonymous traffic shares a
// partition.
func CacheKey(q Query) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%d", q.Text(), q.Filters().Canonical(), q.Page(), q.PageSize())
	if q.UserID() != "" {
		fmt.Fprintf(h, "\x00%s", q.UserID())
	}
	return "gim:search:" + hex.EncodeToString(h.Sum(nil))
}
