// Package model defines the serialisable YAML description of a vectorizer
// model and an in-memory store of compiled extractors.
package model

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lhnows1/textvec/internal/ngram"
	apperrors "github.com/lhnows1/textvec/pkg/errors"
)

// Model is a named vectorizer definition as stored on disk and in the
// registry. Field semantics follow ngram.Config; Mode is the textual
// weighting mode ("TF", "IDF", "TFIDF").
type Model struct {
	Name        string    `yaml:"name"`
	Mode        string    `yaml:"mode"`
	MinGram     int       `yaml:"minGram"`
	MaxGram     int       `yaml:"maxGram"`
	Skips       int       `yaml:"skips"`
	AllLengths  bool      `yaml:"allLengths"`
	GramCounts  []int     `yaml:"gramCounts"`
	GramIndexes []int     `yaml:"gramIndexes"`
	Weights     []float32 `yaml:"weights,omitempty"`
	PoolInt64s  []int64   `yaml:"poolInt64s,omitempty"`
	PoolStrings []string  `yaml:"poolStrings,omitempty"`
}

// Parse decodes a YAML model document. Full validation happens at Compile;
// Parse only requires a name.
func Parse(data []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parsing model document: %v", apperrors.ErrInvalidConfig, err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("%w: model name is required", apperrors.ErrInvalidConfig)
	}
	return &m, nil
}

// Load reads and parses a model document from disk.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("model file %s: %w", path, err)
	}
	return m, nil
}

// LoadDir loads every *.yaml / *.yml model document in dir.
func LoadDir(dir string) ([]*Model, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading model dir %s: %w", dir, err)
	}
	var models []*Model
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		m, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

// Marshal encodes the model as a YAML document, the storage format of the
// registry.
func (m *Model) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding model %s: %w", m.Name, err)
	}
	return data, nil
}

// Kind reports the token kind of the model's pool.
func (m *Model) Kind() string {
	if len(m.PoolStrings) > 0 {
		return "string"
	}
	return "int64"
}

// Config converts the document into a core extractor configuration.
func (m *Model) Config() (ngram.Config, error) {
	mode, err := ngram.ParseWeighting(m.Mode)
	if err != nil {
		return ngram.Config{}, fmt.Errorf("model %s: %w", m.Name, err)
	}
	return ngram.Config{
		Weighting:   mode,
		MinGram:     m.MinGram,
		MaxGram:     m.MaxGram,
		Skips:       m.Skips,
		AllLengths:  m.AllLengths,
		GramCounts:  m.GramCounts,
		GramIndexes: m.GramIndexes,
		Weights:     m.Weights,
		PoolInt64s:  m.PoolInt64s,
		PoolStrings: m.PoolStrings,
	}, nil
}

// Compile validates the document and builds its extractor.
func (m *Model) Compile() (*ngram.Extractor, error) {
	cfg, err := m.Config()
	if err != nil {
		return nil, err
	}
	e, err := ngram.NewExtractor(cfg)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", m.Name, err)
	}
	return e, nil
}

// Entry pairs a model document with its compiled extractor.
type Entry struct {
	Model     *Model
	Extractor *ngram.Extractor
}

// Store is a concurrency-safe collection of compiled models keyed by name.
type Store struct {
	mu     sync.RWMutex
	models map[string]*Entry
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{models: make(map[string]*Entry)}
}

// Put compiles the model and adds it to the store, replacing any existing
// model of the same name.
func (s *Store) Put(m *Model) (*Entry, error) {
	e, err := m.Compile()
	if err != nil {
		return nil, err
	}
	entry := &Entry{Model: m, Extractor: e}
	s.mu.Lock()
	s.models[m.Name] = entry
	s.mu.Unlock()
	return entry, nil
}

// Get returns the entry for the named model.
func (s *Store) Get(name string) (*Entry, error) {
	s.mu.RLock()
	entry, ok := s.models[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrModelNotFound, name)
	}
	return entry, nil
}

// Names returns the names of all stored models, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.models))
	for name := range s.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored models.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.models)
}
