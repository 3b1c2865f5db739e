package stream

import (
	"context"
	"encoding/json"
	"slices"
	"testing"

	"github.com/lhnows1/textvec/internal/model"
	"github.com/lhnows1/textvec/pkg/kafka"
)

const bigramDoc = `
name: bigram-demo
mode: TF
minGram: 2
maxGram: 2
gramCounts: [0, 0]
gramIndexes: [0]
poolInt64s: [5, 6]
`

type capturePublisher struct {
	events []kafka.Event
}

func (p *capturePublisher) Publish(_ context.Context, event kafka.Event) error {
	p.events = append(p.events, event)
	return nil
}

func newTestWorker(t *testing.T) (*Worker, *capturePublisher) {
	t.Helper()
	store := model.NewStore()
	m, err := model.Parse([]byte(bigramDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := store.Put(m); err != nil {
		t.Fatalf("Put: %v", err)
	}
	pub := &capturePublisher{}
	return New(store, pub, nil), pub
}

func TestWorkerHandle(t *testing.T) {
	w, pub := newTestWorker(t)
	msg, _ := json.Marshal(Request{ID: "job-1", Model: "bigram-demo", Tokens: []int64{5, 6, 5, 6, 7}})

	if err := w.Handle(context.Background(), []byte("job-1"), msg); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	result, ok := pub.events[0].Value.(Result)
	if !ok {
		t.Fatalf("published value has type %T", pub.events[0].Value)
	}
	if result.ID != "job-1" || !slices.Equal(result.Vector, []float32{2}) {
		t.Errorf("result = %+v, want job-1 with vector [2]", result)
	}
}

func TestWorkerHandleErrors(t *testing.T) {
	w, pub := newTestWorker(t)

	tests := []struct {
		name  string
		value []byte
	}{
		{"malformed message", []byte(`{`)},
		{"unknown model", mustMarshal(t, Request{ID: "x", Model: "nope", Tokens: []int64{1}})},
		{"wrong token kind", mustMarshal(t, Request{ID: "x", Model: "bigram-demo", Strings: []string{"a"}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := w.Handle(context.Background(), nil, tt.value); err == nil {
				t.Error("Handle returned nil, want error")
			}
		})
	}
	if len(pub.events) != 0 {
		t.Errorf("published %d events for failing requests, want 0", len(pub.events))
	}
}

func mustMarshal(t *testing.T, req Request) []byte {
	t.Helper()
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
