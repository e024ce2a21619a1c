// Package sliceutil provides generic slice helpers.
package sliceutil

// Deduplicate returns a new slice with duplicate elements removed,
// preserving first-occurrence order.
func Deduplicate[T comparable](items []T) []T {
	if len(items) == 0 {
		return []T{}
	}

	seen := make(map[T]struct{}, len(items))
	result := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}

// Truncate returns at most n leading elements of items. The original
// slice is returned unchanged when it is already short enough.
func Truncate[T any](items []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(items) <= n {
		return items
	}
	return items[:n]
}
