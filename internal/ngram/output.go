package ngram

// applyWeighting converts the frequency vector into the final feature
// vector. With weights absent, IDF emits 1.0 for any non-zero count and
// TFIDF degrades to TF. Weights are indexed by output slot; a slot beyond
// the weights table falls back to the weights-absent rule.
func applyWeighting(freq []uint32, mode Weighting, weights []float32) []float32 {
	out := make([]float32, len(freq))
	switch mode {
	case TF:
		for i, f := range freq {
			out[i] = float32(f)
		}
	case IDF:
		for i, f := range freq {
			if f == 0 {
				continue
			}
			if i < len(weights) {
				out[i] = weights[i]
			} else {
				out[i] = 1
			}
		}
	case TFIDF:
		for i, f := range freq {
			if i < len(weights) {
				out[i] = float32(f) * weights[i]
			} else {
				out[i] = float32(f)
			}
		}
	}
	return out
}
