package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/lhnows1/textvec/internal/model"
)

const bigramDoc = `
name: bigram-demo
mode: TF
minGram: 2
maxGram: 2
skips: 0
gramCounts: [0, 0]
gramIndexes: [0]
poolInt64s: [5, 6]
`

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	store := model.NewStore()
	m, err := model.Parse([]byte(bigramDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := store.Put(m); err != nil {
		t.Fatalf("Put: %v", err)
	}
	return New(store, nil, nil, nil, 1024)
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vectorize", strings.NewReader(body))
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestVectorize(t *testing.T) {
	h := newTestHandler(t)
	w := postJSON(t, h.Vectorize, `{"model":"bigram-demo","tokens":[5,6,5,6,7]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp VectorizeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Size != 1 || !slices.Equal(resp.Vector, []float32{2}) {
		t.Errorf("response = %+v, want size 1 vector [2]", resp)
	}
}

func TestVectorizeErrors(t *testing.T) {
	h := newTestHandler(t)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed body", `{`, http.StatusBadRequest},
		{"missing model", `{"tokens":[1]}`, http.StatusBadRequest},
		{"unknown model", `{"model":"nope","tokens":[1]}`, http.StatusNotFound},
		{"both kinds", `{"model":"bigram-demo","tokens":[1],"strings":["a"]}`, http.StatusBadRequest},
		{"wrong kind", `{"model":"bigram-demo","strings":["a","b"]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := postJSON(t, h.Vectorize, tt.body); w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestVectorizeTokenLimit(t *testing.T) {
	store := model.NewStore()
	m, _ := model.Parse([]byte(bigramDoc))
	store.Put(m)
	h := New(store, nil, nil, nil, 2)

	if w := postJSON(t, h.Vectorize, `{"model":"bigram-demo","tokens":[5,6,7]}`); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListModels(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/models", nil)
	w := httptest.NewRecorder()
	h.ListModels(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Models []ModelInfo `json:"models"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Models) != 1 || resp.Models[0].Name != "bigram-demo" || resp.Models[0].Mode != "TF" {
		t.Errorf("models = %+v", resp.Models)
	}
}

func TestUploadModel(t *testing.T) {
	h := newTestHandler(t)
	doc := `
name: unigram
mode: IDF
minGram: 1
maxGram: 1
allLengths: true
gramCounts: [0]
gramIndexes: [0]
poolInt64s: [5]
`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/models", strings.NewReader(doc))
	w := httptest.NewRecorder()
	h.UploadModel(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	if resp := postJSON(t, h.Vectorize, `{"model":"unigram","tokens":[5,5,9]}`); resp.Code != http.StatusOK {
		t.Errorf("vectorize against uploaded model: status = %d", resp.Code)
	}
}

func TestUploadModelRejectsBadDocument(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/models", strings.NewReader(`name: broken`))
	w := httptest.NewRecorder()
	h.UploadModel(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
	}
}

func TestCacheEndpointsDisabled(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	h.CacheStats(w, httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "disabled") {
		t.Errorf("CacheStats = %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.CacheInvalidate(w, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("CacheInvalidate = %d, want 503", w.Code)
	}
}
