// Package delta computes the rows a dimension load must insert and assigns
// their surrogate keys.
package delta

import (
	"cmp"
	"slices"
)

// Dimension describes how rows of one dimension are identified and keyed.
type Dimension[T any, K comparable] struct {
	Name string
	// Identity returns the natural-key tuple that decides whether a row already exists.
	Identity func(T) K
	Key      func(T) int64
	WithKey  func(T, int64) T
	// Dummy returns the placeholder row stored under key 0. Nil disables seeding.
	Dummy func() T
	// Compare orders new rows before key assignment. Nil keeps source order.
	Compare func(a, b T) int
}

// Result is the outcome of one delta computation.
type Result[T any] struct {
	Rows []T
	// MaxKey is the highest key after assignment: the last new key, or the
	// existing maximum when nothing was added.
	MaxKey int64
}

// Compute returns source rows whose identity is absent from existing, keyed
// from max(existing)+1. When existing has no key-0 row, the dummy row is
// prepended. Source duplicates collapse to their first occurrence.
func (d Dimension[T, K]) Compute(source, existing []T) Result[T] {
	known := make(map[K]struct{}, len(existing))
	var maxKey int64
	hasDummy := false
	for _, row := range existing {
		known[d.Identity(row)] = struct{}{}
		k := d.Key(row)
		if k > maxKey {
			maxKey = k
		}
		if k == 0 {
			hasDummy = true
		}
	}

	var out []T
	if d.Dummy != nil && !hasDummy {
		dummy := d.WithKey(d.Dummy(), 0)
		out = append(out, dummy)
		known[d.Identity(dummy)] = struct{}{}
	}

	fresh := Missing(source, known, d.Identity)
	if d.Compare != nil {
		slices.SortStableFunc(fresh, d.Compare)
	}
	keys := NewKeys(maxKey)
	for _, row := range fresh {
		out = append(out, d.WithKey(row, keys.Next()))
	}
	return Result[T]{Rows: out, MaxKey: keys.Last()}
}

// Missing returns the rows of source whose identity is not in known, keeping
// the first occurrence of each identity in source order.
func Missing[T any, K comparable](source []T, known map[K]struct{}, identity func(T) K) []T {
	seen := make(map[K]struct{}, len(source))
	out := make([]T, 0, len(source))
	for _, row := range source {
		id := identity(row)
		if _, ok := known[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, row)
	}
	return out
}

// Diff returns source rows whose identity is absent from existing. It is the
// key-less variant used for facts and hierarchy edges.
func Diff[T any, K comparable](source, existing []T, identity func(T) K) []T {
	known := make(map[K]struct{}, len(existing))
	for _, row := range existing {
		known[identity(row)] = struct{}{}
	}
	return Missing(source, known, identity)
}

// NumberGroups assigns each distinct key a group number: the keys are sorted
// and numbered offset+1, offset+2, ... The returned map is keyed by the
// original key.
func NumberGroups[K cmp.Ordered](keys []K, offset int64) map[K]int64 {
	distinct := make([]K, 0, len(keys))
	seen := make(map[K]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		distinct = append(distinct, k)
	}
	slices.Sort(distinct)

	groups := make(map[K]int64, len(distinct))
	for i, k := range distinct {
		groups[k] = offset + int64(i) + 1
	}
	return groups
}

// Keys hands out consecutive surrogate keys above a starting maximum.
type Keys struct {
	last int64
}

func NewKeys(maxKey int64) *Keys {
	return &Keys{last: maxKey}
}

func (k *Keys) Next() int64 {
	k.last++
	return k.last
}

// Last returns the most recently issued key, or the starting maximum.
func (k *Keys) Last() int64 {
	return k.last
}

// MaxKey returns the largest key in rows, or 0 for none.
func MaxKey[T any](rows []T, key func(T) int64) int64 {
	var maxKey int64
	for _, row := range rows {
		if k := key(row); k > maxKey {
			maxKey = k
		}
	}
	return maxKey
}
