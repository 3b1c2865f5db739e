package ngram

import (
	"fmt"
	"slices"

	apperrors "github.com/lhnows1/textvec/pkg/errors"
)

// pool is the compiled vocabulary: patterns bucketed by their running hash,
// each carrying the dense pattern id assigned during construction. Entries
// hold subslices of the Config's pool data; the pool never references
// transient matching buffers.
type pool[T Token] struct {
	buckets map[uint64][]poolEntry[T]
	size    int // patterns inserted (active classes only)
	total   int // pattern ids assigned, active or not
}

type poolEntry[T Token] struct {
	id     int
	tokens []T
}

// buildPool partitions the flat pool data into length-class segments per
// cfg.GramCounts, assigns pattern ids to every chunk in order, and inserts
// the chunks of active length classes. Ids advance for inactive classes too,
// keeping GramIndexes (computed against the full numbering) aligned.
func buildPool[T Token](cfg *Config, tokens []T) (*pool[T], error) {
	p := &pool[T]{buckets: make(map[uint64][]poolEntry[T])}
	id := 0
	for class := 0; class < len(cfg.GramCounts); class++ {
		size := class + 1
		start := cfg.GramCounts[class]
		end := len(tokens)
		if class+1 < len(cfg.GramCounts) {
			end = cfg.GramCounts[class+1]
		}
		if start < 0 || end < start || end > len(tokens) {
			return nil, fmt.Errorf("%w: gram_counts segment [%d, %d) out of bounds for %d-grams", apperrors.ErrInvalidConfig, start, end, size)
		}
		items := end - start
		if items == 0 {
			continue
		}
		if items%size != 0 {
			return nil, fmt.Errorf("%w: %d pool tokens do not compose whole %d-grams", apperrors.ErrInvalidConfig, items, size)
		}
		chunks := items / size
		if !cfg.activeLength(size) {
			id += chunks
			continue
		}
		for i := 0; i < chunks; i++ {
			chunk := tokens[start+i*size : start+(i+1)*size]
			if err := p.insert(id, chunk); err != nil {
				return nil, fmt.Errorf("%w among %d-grams", err, size)
			}
			id++
		}
	}
	p.total = id
	if len(cfg.GramIndexes) < id {
		return nil, fmt.Errorf("%w: gram_indexes has %d entries but the pool assigns %d pattern ids", apperrors.ErrInvalidConfig, len(cfg.GramIndexes), id)
	}
	return p, nil
}

func (p *pool[T]) insert(id int, tokens []T) error {
	var h uint64
	for _, t := range tokens {
		h = runningMix(h, t)
	}
	for _, e := range p.buckets[h] {
		if slices.Equal(e.tokens, tokens) {
			return apperrors.ErrDuplicatePattern
		}
	}
	p.buckets[h] = append(p.buckets[h], poolEntry[T]{id: id, tokens: tokens})
	p.size++
	return nil
}

// lookup finds the pattern id of a window given its precomputed running hash.
func (p *pool[T]) lookup(h uint64, window []T) (int, bool) {
	for _, e := range p.buckets[h] {
		if slices.Equal(e.tokens, window) {
			return e.id, true
		}
	}
	return 0, false
}
