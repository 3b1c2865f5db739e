package model

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	apperrors "github.com/lhnows1/textvec/pkg/errors"
)

const bigramDoc = `
name: bigram-demo
mode: TF
minGram: 2
maxGram: 2
skips: 0
allLengths: false
gramCounts: [0, 0]
gramIndexes: [0]
poolInt64s: [5, 6]
`

func TestParseAndCompile(t *testing.T) {
	m, err := Parse([]byte(bigramDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Name != "bigram-demo" || m.Kind() != "int64" {
		t.Fatalf("parsed model = %+v", m)
	}

	e, err := m.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, err := e.TransformInt64([]int64{5, 6, 5, 6, 7})
	if err != nil {
		t.Fatalf("TransformInt64: %v", err)
	}
	if !slices.Equal(out, []float32{2}) {
		t.Errorf("output = %v, want [2]", out)
	}
}

func TestParseErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"not yaml":     ":\n :",
		"missing name": "mode: TF",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); !errors.Is(err, apperrors.ErrInvalidConfig) {
				t.Errorf("Parse error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestCompileRejectsBadMode(t *testing.T) {
	m, err := Parse([]byte(bigramDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m.Mode = "BM25"
	if _, err := m.Compile(); !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Errorf("Compile error = %v, want ErrInvalidConfig", err)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	m, err := Parse([]byte(bigramDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	data, err := m.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	again, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal): %v", err)
	}
	if again.Name != m.Name || !slices.Equal(again.PoolInt64s, m.PoolInt64s) {
		t.Errorf("round trip changed the model: %+v vs %+v", again, m)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bigram.yaml"), []byte(bigramDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	models, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(models) != 1 || models[0].Name != "bigram-demo" {
		t.Errorf("LoadDir = %+v, want the single bigram-demo model", models)
	}
}

func TestStore(t *testing.T) {
	s := NewStore()
	m, err := Parse([]byte(bigramDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := s.Put(m); err != nil {
		t.Fatalf("Put: %v", err)
	}
	entry, err := s.Get("bigram-demo")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Extractor.OutputSize() != 1 {
		t.Errorf("OutputSize = %d, want 1", entry.Extractor.OutputSize())
	}
	if _, err := s.Get("missing"); !errors.Is(err, apperrors.ErrModelNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrModelNotFound", err)
	}
	if got := s.Names(); len(got) != 1 || got[0] != "bigram-demo" {
		t.Errorf("Names = %v", got)
	}
}
