// Package hashindex implements the DictCoder's hash-to-position multimap:
// a mapping from a 3-byte key to a bounded, most-recent-last list of
// absolute input positions where that key occurred.
//
// The per-key bound (MaxPosPerKey) comes straight from the dictionary
// coder's spec. The bound on the number of *distinct* keys tracked at
// once does not: the spec leaves distinct-key pruning optional, since an
// unordered map growing with the number of distinct 3-byte sequences seen
// is fine for any file that fits sanely in memory. For very large or very
// high-entropy inputs that assumption strains, so this index is backed by
// an LRU cache capped at MaxKeys distinct keys, evicting the
// least-recently-touched key first once the cap is hit.
package hashindex

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// MaxPosPerKey bounds how many candidate positions a single key keeps.
const MaxPosPerKey = 64

// MaxKeys bounds how many distinct 3-byte keys the index tracks at once.
const MaxKeys = 1 << 20

// Index is the DictCoder's sliding-window match candidate table.
type Index struct {
	cache *lru.Cache[uint32, []int64]
}

// New returns an empty Index.
func New() *Index {
	c, err := lru.New[uint32, []int64](MaxKeys)
	if err != nil {
		// MaxKeys is a positive compile-time constant; lru.New only
		// fails for size <= 0.
		panic("hashindex: " + err.Error())
	}
	return &Index{cache: c}
}

// Add records pos as an occurrence of key, evicting the oldest recorded
// position for that key once MaxPosPerKey is exceeded.
func (idx *Index) Add(key uint32, pos int64) {
	positions, _ := idx.cache.Get(key)
	positions = append(positions, pos)
	if len(positions) > MaxPosPerKey {
		positions = positions[len(positions)-MaxPosPerKey:]
	}
	idx.cache.Add(key, positions)
}

// Candidates returns the recorded positions for key, oldest first, most
// recent last. The returned slice must not be mutated by the caller.
func (idx *Index) Candidates(key uint32) []int64 {
	positions, ok := idx.cache.Get(key)
	if !ok {
		return nil
	}
	return positions
}
