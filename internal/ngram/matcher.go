package ngram

import "golang.org/x/sync/errgroup"

// parallelMinTokens is the input length below which the per-stride passes run
// sequentially; goroutine startup is not worth it for short sequences.
const parallelMinTokens = 2048

// countFrequencies scans the input and returns the per-slot frequency
// vector. Windows of every active length are enumerated at every stride in
// [1, Skips+1], overlapping windows included (start positions advance by 1).
func countFrequencies[T Token](p *pool[T], cfg *Config, outputSize int, input []T) []uint32 {
	freq := make([]uint32, outputSize)
	startSize := cfg.MaxGram
	if cfg.AllLengths {
		startSize = cfg.MinGram
	}

	// Unigrams need no stride handling: a one-token window is the same at
	// every skip distance, so a single linear pass covers them.
	if startSize == 1 {
		for i := range input {
			h := runningMix(0, input[i])
			if id, ok := p.lookup(h, input[i:i+1]); ok {
				freq[cfg.GramIndexes[id]]++
			}
		}
		if cfg.MaxGram == 1 {
			return freq
		}
		startSize = 2
	}

	strides := cfg.Skips + 1
	if strides == 1 || len(input) < parallelMinTokens {
		for d := 1; d <= strides; d++ {
			matchStride(p, cfg, input, d, startSize, freq)
		}
		return freq
	}

	// Each stride pass reads only the shared pool and writes a stride-local
	// accumulator; addition commutes, so the merge order never changes the
	// result.
	locals := make([][]uint32, strides)
	var g errgroup.Group
	for d := 1; d <= strides; d++ {
		d := d
		local := make([]uint32, outputSize)
		locals[d-1] = local
		g.Go(func() error {
			matchStride(p, cfg, input, d, startSize, local)
			return nil
		})
	}
	_ = g.Wait()
	for _, local := range locals {
		for i, v := range local {
			freq[i] += v
		}
	}
	return freq
}

// matchStride enumerates every window at one skip distance. From each start
// position the window grows one token at a time up to MaxGram (or the end of
// the input), and every prefix of length >= startSize is looked up using the
// incrementally accumulated hash.
func matchStride[T Token](p *pool[T], cfg *Config, input []T, stride, startSize int, freq []uint32) {
	window := make([]T, 0, cfg.MaxGram)
	for pos := 0; pos < len(input); pos++ {
		// Not even the shortest window fits from here; later positions only
		// get worse.
		if pos+stride*(startSize-1) >= len(input) {
			break
		}
		window = window[:0]
		var h uint64
		for ni, at := 1, pos; ni <= cfg.MaxGram && at < len(input); ni, at = ni+1, at+stride {
			h = runningMix(h, input[at])
			window = append(window, input[at])
			if ni >= startSize {
				if id, ok := p.lookup(h, window); ok {
					freq[cfg.GramIndexes[id]]++
				}
			}
		}
	}
}
