package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu      sync.Mutex
	written []kafka.Message
	err     error
	closed  bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublish_WritesKeyValueAndHeaders(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "booking-events")

	msg := NewMessage().
		WithKey("42").
		WithEventType("booking.created").
		WithValue(map[string]any{"id": 7}).
		Build()

	require.NoError(t, p.Publish(context.Background(), msg))
	require.Len(t, w.written, 1)

	got := w.written[0]
	assert.Equal(t, "42", string(got.Key))
	assert.JSONEq(t, `{"id":7}`, string(got.Value))

	headers := map[string]string{}
	for _, h := range got.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "booking.created", headers[HeaderEventType])
	assert.NotEmpty(t, headers[HeaderEventID])
	assert.NotEmpty(t, headers[HeaderTimestamp])
}

func TestPublish_RejectsInvalidMessages(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{}, "booking-events")

	err := p.Publish(context.Background(), NewMessage().WithValue("x").Build())
	assert.ErrorIs(t, err, ErrEmptyKey)

	err = p.Publish(context.Background(), NewMessage().WithKey("1").Build())
	assert.ErrorIs(t, err, ErrEmptyValue)

	err = p.Publish(context.Background(), NewMessage().WithKey("1").WithValue(make(chan int)).Build())
	assert.ErrorIs(t, err, ErrEmptyValue)
}

func TestPublish_MiddlewareOrder(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "booking-events")

	var calls []string
	record := func(name string) ProducerMiddleware {
		return func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
			calls = append(calls, name+":before")
			assert.Equal(t, "booking-events", msg.Topic)
			err := next(ctx, msg)
			calls = append(calls, name+":after")
			return err
		}
	}
	p.Use(record("outer"))
	p.Use(record("inner"))

	require.NoError(t, p.Publish(context.Background(), NewMessage().WithKey("1").WithValue(1).Build()))
	assert.Equal(t, []string{"outer:before", "inner:before", "inner:after", "outer:after"}, calls)
}

func TestPublish_PropagatesWriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	p := NewProducerWithWriter(w, "booking-events")

	err := p.Publish(context.Background(), NewMessage().WithKey("1").WithValue(1).Build())
	assert.EqualError(t, err, "broker unavailable")
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "booking-events")

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)

	err := p.Publish(context.Background(), NewMessage().WithKey("1").WithValue(1).Build())
	assert.ErrorIs(t, err, ErrProducerClosed)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, NewConfig([]string{"localhost:9092"}, "booking-events").Validate())

	cfg := NewConfig(nil, "")
	cfg.Compression = "brotli"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "At least one Kafka broker")
	assert.Contains(t, err.Error(), "Topic cannot be empty")
	assert.Contains(t, err.Error(), "Compression must be one of")
}
