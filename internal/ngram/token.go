// Package ngram implements n-gram feature extraction over a fixed vocabulary
// of token patterns. A compiled Extractor counts occurrences of each
// vocabulary pattern in an input token sequence, across a configurable range
// of pattern lengths and skip distances, and emits a weighted feature vector
// (TF, IDF, or TFIDF).
//
// The vocabulary pool, index map, and weights are built once and immutable
// thereafter, so any number of extractions may run concurrently on the same
// Extractor.
package ngram

import (
	"encoding/binary"
	"hash/fnv"
)

// Token constrains the element kinds a vocabulary pool can hold. Narrower
// integer inputs are widened to int64 at the Extractor boundary rather than
// modelled as a separate kind.
type Token interface {
	~int64 | ~string
}

// hashMixConstant is the golden-ratio constant of the order-sensitive
// running mix.
const hashMixConstant = 0x9e3779b9

// tokenHash returns the stand-alone hash of a single token: FNV-1a over the
// token's canonical bytes (little-endian for integers, raw bytes for text).
func tokenHash[T Token](v T) uint64 {
	h := fnv.New64a()
	switch x := any(v).(type) {
	case int64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(x))
		h.Write(b[:])
	case string:
		h.Write([]byte(x))
	}
	return h.Sum64()
}

// runningMix folds one token into the running pattern hash. The accumulation
// is order-sensitive, so a prefix of a window can be hashed incrementally as
// the window grows.
func runningMix[T Token](h uint64, v T) uint64 {
	return h ^ (tokenHash(v) + hashMixConstant + (h << 6) + (h >> 2))
}
