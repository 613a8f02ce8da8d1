// Package lock serializes work per key (an item code). Multi-key
// acquisition always happens in sorted order so two callers locking
// overlapping sets cannot deadlock.
package lock

import (
	"context"
	"sort"
)

type Locker interface {
	// Lock blocks until every key is held or ctx is done. The returned
	// func releases all keys and is safe to call once.
	Lock(ctx context.Context, keys ...string) (func(), error)
}

func normalizeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
