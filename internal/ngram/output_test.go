package ngram

import (
	"slices"
	"testing"
)

// TestApplyWeighting pins the full weighting table: each mode with and
// without a weights table.
func TestApplyWeighting(t *testing.T) {
	freq := []uint32{2, 0, 3}
	weights := []float32{0.5, 2, 4}

	tests := []struct {
		name    string
		mode    Weighting
		weights []float32
		want    []float32
	}{
		{"TF without weights", TF, nil, []float32{2, 0, 3}},
		{"TF ignores weights", TF, weights, []float32{2, 0, 3}},
		{"IDF without weights", IDF, nil, []float32{1, 0, 1}},
		{"IDF with weights", IDF, weights, []float32{0.5, 0, 4}},
		{"TFIDF without weights degrades to TF", TFIDF, nil, []float32{2, 0, 3}},
		{"TFIDF with weights", TFIDF, weights, []float32{1, 0, 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyWeighting(freq, tt.mode, tt.weights)
			if !slices.Equal(got, tt.want) {
				t.Errorf("applyWeighting = %v, want %v", got, tt.want)
			}
		})
	}
}
