package database

import (
	"context"
	"fmt"
	"sort"
)

// AdvisoryKey names one (tenant, warehouse, item) exclusivity unit. The two
// halves are hashed server-side with hashtext, so exclusivity is exact per
// string pair.
type AdvisoryKey struct {
	Class  string // "atp:<tenant>"
	Member string // "<warehouse>:<item>"
}

// ATPAdvisoryKey builds the lock key for one (tenant, warehouse, item).
func ATPAdvisoryKey(tenantID, warehouseID, itemID string) AdvisoryKey {
	return AdvisoryKey{
		Class:  "atp:" + tenantID,
		Member: warehouseID + ":" + itemID,
	}
}

// AcquireAdvisoryLocks takes transaction-scoped advisory locks for every key,
// deduplicated and in sorted order. Sorted acquisition is the deadlock-freedom
// invariant: every writer touching the same keys locks them in the same
// sequence. Locks release automatically at commit or rollback.
func AcquireAdvisoryLocks(ctx context.Context, db DBTX, keys []AdvisoryKey) error {
	uniq := make(map[AdvisoryKey]struct{}, len(keys))
	for _, k := range keys {
		uniq[k] = struct{}{}
	}

	ordered := make([]AdvisoryKey, 0, len(uniq))
	for k := range uniq {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Class != ordered[j].Class {
			return ordered[i].Class < ordered[j].Class
		}
		return ordered[i].Member < ordered[j].Member
	})

	for _, k := range ordered {
		if _, err := db.Exec(ctx,
			"SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))",
			k.Class, k.Member,
		); err != nil {
			return fmt.Errorf("failed to acquire advisory lock (%s, %s): %w", k.Class, k.Member, err)
		}
	}

	return nil
}
