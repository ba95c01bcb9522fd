package postgres

import (
    "sort"

    domain "github.com/bryanwahyu/review-swarm/internal/domain/reviews"
)

// sortedResultKeys keeps insert order deterministic across saves
func sortedResultKeys(m map[string]domain.PerspectiveResult) []string {
    keys := make([]string, 0, len(m))
    for k := range m {
        keys = append(keys, k)
    }
    sort.Strings(keys)
    return keys
}
