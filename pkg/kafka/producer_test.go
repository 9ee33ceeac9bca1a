package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestProducerPublishEncodesJSON(t *testing.T) {
	w := &captureWriter{}
	p := NewProducerWithWriter(w, "fxforecast.snapshots", "gzip")

	err := p.Publish(context.Background(), []byte("currency"), map[string]int{"horizon": 90})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "currency", string(w.msgs[0].Key))

	var got map[string]int
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, 90, got["horizon"])
}

func TestProducerPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&captureWriter{err: boom}, "t", "gzip")

	err := p.Publish(context.Background(), nil, "x")
	require.ErrorIs(t, err, boom)
}

func TestNewProducerRequiresBrokersAndTopic(t *testing.T) {
	_, err := NewProducer(WithTopic("t"))
	require.Error(t, err)
	_, err = NewProducer(WithBrokers([]string{"localhost:9092"}))
	require.Error(t, err)
}
