package ngram

import (
	"fmt"

	apperrors "github.com/lhnows1/textvec/pkg/errors"
)

// Extractor is a compiled n-gram feature extractor. It is immutable after
// construction and safe for concurrent use.
type Extractor struct {
	cfg        Config
	intPool    *pool[int64]
	strPool    *pool[string]
	outputSize int
}

// NewExtractor validates cfg and builds the vocabulary pool. All
// configuration problems are reported here; a returned Extractor never fails
// for configuration reasons afterwards.
func NewExtractor(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Extractor{cfg: cfg, outputSize: cfg.outputSize()}
	if len(cfg.PoolStrings) > 0 {
		p, err := buildPool(&e.cfg, cfg.PoolStrings)
		if err != nil {
			return nil, err
		}
		e.strPool = p
	} else {
		p, err := buildPool(&e.cfg, cfg.PoolInt64s)
		if err != nil {
			return nil, err
		}
		e.intPool = p
	}
	return e, nil
}

// OutputSize returns the length of every emitted feature vector.
func (e *Extractor) OutputSize() int { return e.outputSize }

// PoolSize returns the number of active vocabulary patterns.
func (e *Extractor) PoolSize() int {
	if e.strPool != nil {
		return e.strPool.size
	}
	return e.intPool.size
}

// PatternIDs returns the total number of pattern ids assigned during
// construction, counting inactive length classes.
func (e *Extractor) PatternIDs() int {
	if e.strPool != nil {
		return e.strPool.total
	}
	return e.intPool.total
}

// Kind reports the token kind of the vocabulary pool: "int64" or "string".
func (e *Extractor) Kind() string {
	if e.strPool != nil {
		return "string"
	}
	return "int64"
}

// Weighting returns the configured output weighting mode.
func (e *Extractor) Weighting() Weighting { return e.cfg.Weighting }

// TransformInt64 extracts the feature vector from an integer token sequence.
// An empty input is scanned as a single implicit zero token rather than as
// "no tokens", so a vocabulary containing the zero unigram still matches it.
func (e *Extractor) TransformInt64(input []int64) ([]float32, error) {
	if e.intPool == nil {
		return nil, fmt.Errorf("%w: extractor has a string vocabulary, integer input not supported", apperrors.ErrInvalidInput)
	}
	freq := countFrequencies(e.intPool, &e.cfg, e.outputSize, padEmpty(input))
	return applyWeighting(freq, e.cfg.Weighting, e.cfg.Weights), nil
}

// TransformInt32 widens the input to int64 and extracts the feature vector.
func (e *Extractor) TransformInt32(input []int32) ([]float32, error) {
	widened := make([]int64, len(input))
	for i, v := range input {
		widened[i] = int64(v)
	}
	return e.TransformInt64(widened)
}

// TransformStrings extracts the feature vector from a text token sequence.
// The empty-input rule of TransformInt64 applies, with "" as the implicit
// token.
func (e *Extractor) TransformStrings(input []string) ([]float32, error) {
	if e.strPool == nil {
		return nil, fmt.Errorf("%w: extractor has an integer vocabulary, string input not supported", apperrors.ErrInvalidInput)
	}
	freq := countFrequencies(e.strPool, &e.cfg, e.outputSize, padEmpty(input))
	return applyWeighting(freq, e.cfg.Weighting, e.cfg.Weights), nil
}

// padEmpty substitutes a single zero-value token for an empty input.
func padEmpty[T Token](input []T) []T {
	if len(input) == 0 {
		var zero T
		return []T{zero}
	}
	return input
}
