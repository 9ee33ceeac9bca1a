package repository

import (
	"context"
	"sort"

	"FxForecast/internal/domain/models"
	domrepo "FxForecast/internal/domain/repository"
)

// EventPublisher is satisfied by *pkg/kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, key []byte, value interface{}) error
}

// KafkaNotifier announces each persisted snapshot, keyed by snapshot name so
// consumers see runs of the same snapshot in order.
type KafkaNotifier struct {
	producer EventPublisher
	clock    domrepo.Clock
}

func NewKafkaNotifier(producer EventPublisher, clock domrepo.Clock) *KafkaNotifier {
	if clock == nil {
		clock = domrepo.SystemClock
	}
	return &KafkaNotifier{producer: producer, clock: clock}
}

func (n *KafkaNotifier) Name() string { return "kafka" }

func (n *KafkaNotifier) Publish(ctx context.Context, spec models.SnapshotSpec, runID string, snap *models.Snapshot) error {
	instruments := make([]string, 0, len(snap.Forecasts))
	for k := range snap.Forecasts {
		instruments = append(instruments, k)
	}
	sort.Strings(instruments)

	return n.producer.Publish(ctx, []byte(spec.Name), models.SnapshotEvent{
		RunID:       runID,
		Name:        spec.Name,
		File:        spec.File,
		GeneratedAt: snap.GeneratedAt,
		Horizon:     spec.Horizon,
		Instruments: instruments,
		WrittenAt:   n.clock.Now().UTC(),
	})
}

var _ domrepo.SnapshotSink = (*KafkaNotifier)(nil)
