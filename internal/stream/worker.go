// Package stream implements the Kafka vectorize pipeline: requests are
// consumed from the feature-requests topic and extracted vectors are
// published to the feature-vectors topic.
package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lhnows1/textvec/internal/model"
	apperrors "github.com/lhnows1/textvec/pkg/errors"
	"github.com/lhnows1/textvec/pkg/kafka"
	"github.com/lhnows1/textvec/pkg/metrics"
)

// Request is one vectorize job consumed from Kafka. Exactly one of Tokens
// and Strings should be set, matching the model's token kind.
type Request struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Tokens  []int64  `json:"tokens,omitempty"`
	Strings []string `json:"strings,omitempty"`
}

// Result is the published outcome of one Request.
type Result struct {
	ID     string    `json:"id"`
	Model  string    `json:"model"`
	Size   int       `json:"size"`
	Vector []float32 `json:"vector"`
}

// Publisher publishes events; satisfied by kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Worker turns Requests into Results. Its Handle method has the
// kafka.MessageHandler shape.
type Worker struct {
	store     *model.Store
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a Worker publishing to the given Publisher. metrics may be
// nil.
func New(store *model.Store, publisher Publisher, m *metrics.Metrics) *Worker {
	return &Worker{
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    slog.Default().With("component", "stream-worker"),
	}
}

// Handle processes one Kafka message. Decode and extraction failures are
// reported as errors but are not retryable; the consumer logs them and moves
// on.
func (w *Worker) Handle(ctx context.Context, key []byte, value []byte) error {
	req, err := kafka.DecodeJSON[Request](value)
	if err != nil {
		w.count("decode_error")
		return err
	}

	vector, err := w.vectorize(req)
	if err != nil {
		w.count("vectorize_error")
		w.logger.Error("vectorize failed", "id", req.ID, "model", req.Model, "error", err)
		return err
	}

	result := Result{
		ID:     req.ID,
		Model:  req.Model,
		Size:   len(vector),
		Vector: vector,
	}
	if err := w.publisher.Publish(ctx, kafka.Event{Key: req.ID, Value: result}); err != nil {
		w.count("publish_error")
		return fmt.Errorf("publishing result for %s: %w", req.ID, err)
	}

	w.count("ok")
	w.logger.Debug("request processed", "id", req.ID, "model", req.Model, "output_size", len(vector))
	return nil
}

func (w *Worker) vectorize(req Request) ([]float32, error) {
	entry, err := w.store.Get(req.Model)
	if err != nil {
		return nil, err
	}
	if entry.Extractor.Kind() == "string" {
		if len(req.Tokens) > 0 {
			return nil, fmt.Errorf("%w: model %s takes string tokens", apperrors.ErrInvalidInput, req.Model)
		}
		return entry.Extractor.TransformStrings(req.Strings)
	}
	if len(req.Strings) > 0 {
		return nil, fmt.Errorf("%w: model %s takes integer tokens", apperrors.ErrInvalidInput, req.Model)
	}
	return entry.Extractor.TransformInt64(req.Tokens)
}

func (w *Worker) count(outcome string) {
	if w.metrics != nil {
		w.metrics.StreamMessagesTotal.WithLabelValues(outcome).Inc()
	}
}
