// Package shuffle assigns randomized dense output indices to source images.
// The permutation is what severs any relationship between original filenames
// and published indices: a caller requesting sequential indices learns
// nothing about image identity or original order.
package shuffle

import "math/rand"

// Asset pairs a source file with its assigned zero-based output index.
type Asset struct {
	Index  int
	Source string
}

// Shuffle permutes items in place with a Fisher-Yates pass: positions are
// scanned from the last element down to the second, each swapped with a
// uniformly drawn position at or before it. Every permutation of items is
// equally likely; runs in linear time with no extra storage. Zero or one
// item is a no-op.
func Shuffle(items []string, rng *rand.Rand) {
	for i := len(items) - 1; i >= 1; i-- {
		j := rng.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// Renumber returns a randomized bijection from items onto the dense index
// range [0, len(items)): a shuffled copy of items with each position's index
// attached. Every item maps to exactly one index and every index to exactly
// one item. The assignment is computed fresh on every call; nothing about it
// is stable across builds. The input slice is left untouched.
func Renumber(items []string, rng *rand.Rand) []Asset {
	shuffled := make([]string, len(items))
	copy(shuffled, items)
	Shuffle(shuffled, rng)

	assets := make([]Asset, len(shuffled))
	for i, src := range shuffled {
		assets[i] = Asset{Index: i, Source: src}
	}
	return assets
}
