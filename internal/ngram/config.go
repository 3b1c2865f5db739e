package ngram

import (
	"fmt"

	apperrors "github.com/lhnows1/textvec/pkg/errors"
)

// Weighting selects how the per-slot frequency counts are converted into the
// output feature vector.
type Weighting int

const (
	// WeightingUnset is the zero value; Validate rejects it.
	WeightingUnset Weighting = iota
	// TF propagates raw counts.
	TF
	// IDF emits the slot weight (or 1.0 without weights) for any slot with a
	// non-zero count, and 0.0 otherwise.
	IDF
	// TFIDF multiplies counts by the slot weights; without weights it
	// degrades to TF.
	TFIDF
)

// ParseWeighting converts a mode string ("TF", "IDF", "TFIDF") into a
// Weighting.
func ParseWeighting(s string) (Weighting, error) {
	switch s {
	case "TF":
		return TF, nil
	case "IDF":
		return IDF, nil
	case "TFIDF":
		return TFIDF, nil
	default:
		return WeightingUnset, fmt.Errorf("%w: unrecognized weighting mode %q", apperrors.ErrInvalidConfig, s)
	}
}

func (w Weighting) String() string {
	switch w {
	case TF:
		return "TF"
	case IDF:
		return "IDF"
	case TFIDF:
		return "TFIDF"
	default:
		return "unset"
	}
}

// Config describes one extractor: the weighting mode, the range of pattern
// lengths and skip distances to match, the flattened vocabulary pool, and
// the mapping from pattern ids to output slots.
//
// The pool is flat: GramCounts[s-1] gives the starting offset of the
// s-gram segment, which runs until the next segment (or the end of the pool
// for the last class). Pattern ids are assigned to every chunk of every
// class in order, whether or not the class is matched, so GramIndexes is
// indexed by an id numbering that never depends on MinGram/MaxGram.
type Config struct {
	Weighting  Weighting
	MinGram    int // shortest matched length when AllLengths is set
	MaxGram    int // longest matched length; the only one without AllLengths
	Skips      int // max skip distance between adjacent window tokens
	AllLengths bool

	GramCounts  []int     // per-length-class segment start offsets into the pool
	GramIndexes []int     // pattern id -> output slot
	Weights     []float32 // optional, one entry per GramIndexes entry

	// Exactly one pool must be non-empty.
	PoolInt64s  []int64
	PoolStrings []string
}

// Validate checks every construction-time requirement. A Config that fails
// validation cannot be compiled into an Extractor.
func (c *Config) Validate() error {
	if c.Weighting == WeightingUnset {
		return fmt.Errorf("%w: weighting mode is required", apperrors.ErrInvalidConfig)
	}
	if c.MinGram < 1 {
		return fmt.Errorf("%w: min_gram must be positive, got %d", apperrors.ErrInvalidConfig, c.MinGram)
	}
	if c.MaxGram < c.MinGram {
		return fmt.Errorf("%w: max_gram %d must be >= min_gram %d", apperrors.ErrInvalidConfig, c.MaxGram, c.MinGram)
	}
	if c.Skips < 0 {
		return fmt.Errorf("%w: skips must be non-negative, got %d", apperrors.ErrInvalidConfig, c.Skips)
	}
	if len(c.GramCounts) == 0 {
		return fmt.Errorf("%w: gram_counts must not be empty", apperrors.ErrInvalidConfig)
	}
	if c.MinGram > len(c.GramCounts) {
		return fmt.Errorf("%w: min_gram %d exceeds the %d length classes in gram_counts", apperrors.ErrInvalidConfig, c.MinGram, len(c.GramCounts))
	}
	if c.MaxGram > len(c.GramCounts) {
		return fmt.Errorf("%w: max_gram %d exceeds the %d length classes in gram_counts", apperrors.ErrInvalidConfig, c.MaxGram, len(c.GramCounts))
	}
	if len(c.GramIndexes) == 0 {
		return fmt.Errorf("%w: gram_indexes must not be empty", apperrors.ErrInvalidConfig)
	}
	for i, slot := range c.GramIndexes {
		if slot < 0 {
			return fmt.Errorf("%w: gram_indexes[%d] is negative", apperrors.ErrInvalidConfig, i)
		}
	}
	if len(c.Weights) > 0 && len(c.Weights) != len(c.GramIndexes) {
		return fmt.Errorf("%w: weights has %d entries, gram_indexes has %d", apperrors.ErrInvalidConfig, len(c.Weights), len(c.GramIndexes))
	}
	switch {
	case len(c.PoolInt64s) == 0 && len(c.PoolStrings) == 0:
		return fmt.Errorf("%w: a non-empty token pool is required", apperrors.ErrInvalidConfig)
	case len(c.PoolInt64s) > 0 && len(c.PoolStrings) > 0:
		return fmt.Errorf("%w: only one of the integer and string pools may be set", apperrors.ErrInvalidConfig)
	}
	return nil
}

// activeLength reports whether patterns of the given length are matched:
// exactly MaxGram, or any length in [MinGram, MaxGram] with AllLengths.
func (c *Config) activeLength(size int) bool {
	if c.AllLengths {
		return size >= c.MinGram && size <= c.MaxGram
	}
	return size == c.MaxGram
}

// outputSize is the feature vector length: one past the greatest output slot.
func (c *Config) outputSize() int {
	max := 0
	for _, slot := range c.GramIndexes {
		if slot > max {
			max = slot
		}
	}
	return max + 1
}
