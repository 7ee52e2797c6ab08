package core

// Group is one bucket produced by GroupBy.
type Group[K comparable, T any] struct {
	Key   K
	Items []T
}

// GroupBy buckets items by key. Groups appear in the order their key was first
// seen and members keep their input order. It holds no state between calls.
func GroupBy[T any, K comparable](items []T, key func(T) K) []Group[K, T] {
	index := make(map[K]int)
	var groups []Group[K, T]
	for _, item := range items {
		k := key(item)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[K, T]{Key: k})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// Filter returns the items for which keep reports true, in input order.
func Filter[T any](items []T, keep func(T) bool) []T {
	var out []T
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// OfType selects the transactions whose category has type t.
func OfType(txs []Transaction, t CategoryType) []Transaction {
	return Filter(txs, func(tx Transaction) bool { return tx.CategoryType == t })
}
