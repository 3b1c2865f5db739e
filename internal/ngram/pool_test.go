package ngram

import (
	"errors"
	"testing"

	apperrors "github.com/lhnows1/textvec/pkg/errors"
)

// TestPatternIDNumberingIgnoresActivity verifies that inactive length
// classes still advance the pattern id counter, keeping gram_indexes (built
// against the full numbering) aligned with the inserted patterns.
func TestPatternIDNumberingIgnoresActivity(t *testing.T) {
	cfg := Config{
		Weighting:   TF,
		MinGram:     2,
		MaxGram:     2,
		GramCounts:  []int{0, 2},
		GramIndexes: []int{9, 9, 0}, // ids 0,1 are unigrams, never matched
		PoolInt64s:  []int64{1, 2, 5, 6},
	}
	e, err := NewExtractor(cfg)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	if got := e.PatternIDs(); got != 3 {
		t.Errorf("PatternIDs = %d, want 3 (2 inactive unigrams + 1 bigram)", got)
	}
	if got := e.PoolSize(); got != 1 {
		t.Errorf("PoolSize = %d, want 1", got)
	}

	// The bigram carries id 2 and must land in slot 0, not in the slots of
	// the skipped unigrams.
	out, err := e.TransformInt64([]int64{5, 6})
	if err != nil {
		t.Fatalf("TransformInt64: %v", err)
	}
	if out[0] != 1 {
		t.Errorf("slot 0 = %v, want 1", out[0])
	}
}

// TestDuplicatePatternSameClass checks that two content-equal patterns in
// the same length class are rejected at construction.
func TestDuplicatePatternSameClass(t *testing.T) {
	cfg := Config{
		Weighting:   TF,
		MinGram:     2,
		MaxGram:     2,
		GramCounts:  []int{0, 0},
		GramIndexes: []int{0, 1},
		PoolInt64s:  []int64{5, 6, 5, 6},
	}
	_, err := NewExtractor(cfg)
	if !errors.Is(err, apperrors.ErrDuplicatePattern) {
		t.Fatalf("NewExtractor error = %v, want ErrDuplicatePattern", err)
	}
}

// TestSharedPrefixAcrossClasses verifies that patterns of different lengths
// with overlapping content coexist.
func TestSharedPrefixAcrossClasses(t *testing.T) {
	cfg := Config{
		Weighting:   TF,
		MinGram:     1,
		MaxGram:     2,
		AllLengths:  true,
		GramCounts:  []int{0, 1},
		GramIndexes: []int{0, 1},
		PoolInt64s:  []int64{5, 5, 5},
	}
	e, err := NewExtractor(cfg)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	if e.PoolSize() != 2 {
		t.Errorf("PoolSize = %d, want 2", e.PoolSize())
	}
}

func TestPoolConstructionErrors(t *testing.T) {
	base := func() Config {
		return Config{
			Weighting:   TF,
			MinGram:     2,
			MaxGram:     2,
			GramCounts:  []int{0, 0},
			GramIndexes: []int{0, 1},
			PoolInt64s:  []int64{5, 6, 7, 8},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name: "segment not divisible by class size",
			mutate: func(c *Config) {
				c.PoolInt64s = []int64{5, 6, 7}
			},
		},
		{
			name: "segment start out of bounds",
			mutate: func(c *Config) {
				c.GramCounts = []int{0, 10}
			},
		},
		{
			name: "segments overlap backwards",
			mutate: func(c *Config) {
				c.GramCounts = []int{4, 0}
			},
		},
		{
			name: "gram_indexes shorter than assigned ids",
			mutate: func(c *Config) {
				c.GramIndexes = []int{0}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			if _, err := NewExtractor(cfg); !errors.Is(err, apperrors.ErrInvalidConfig) {
				t.Errorf("NewExtractor error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

// TestStringPool covers construction and duplicate detection for the text
// token kind.
func TestStringPool(t *testing.T) {
	cfg := Config{
		Weighting:   TF,
		MinGram:     2,
		MaxGram:     2,
		GramCounts:  []int{0, 0},
		GramIndexes: []int{0},
		PoolStrings: []string{"new", "york"},
	}
	e, err := NewExtractor(cfg)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	if e.Kind() != "string" {
		t.Errorf("Kind = %q, want %q", e.Kind(), "string")
	}

	cfg.PoolStrings = []string{"new", "york", "new", "york"}
	cfg.GramIndexes = []int{0, 1}
	if _, err := NewExtractor(cfg); !errors.Is(err, apperrors.ErrDuplicatePattern) {
		t.Errorf("duplicate string bigram error = %v, want ErrDuplicatePattern", err)
	}
}
