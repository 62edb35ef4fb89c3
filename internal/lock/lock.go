package lock

import (
	"context"
	"sort"
)

// Unlock releases every key acquired by a Lock call. Calling it twice is a no-op.
type Unlock func()

// Locker grants exclusive access to a set of keys.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (Unlock, error)
}

// ItemKey names the lock guarding an item's availability.
func ItemKey(itemID string) string {
	return "item:" + itemID
}

// PatronKey names the lock guarding a patron's loan count.
func PatronKey(patronID string) string {
	return "patron:" + patronID
}

// normalize sorts and de-duplicates keys so concurrent callers acquire them in the same order.
func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok || k == "" {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
