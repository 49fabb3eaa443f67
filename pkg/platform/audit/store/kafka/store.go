package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	audit "clinic/pkg/platform/audit"
)

// Producer writes one keyed record.
type Producer interface {
	Produce(ctx context.Context, key, value []byte) error
}

// Store publishes audit events as JSON records keyed by entity ID, so all
// events for one patient land on the same partition in order.
type Store struct {
	producer Producer
}

func New(producer Producer) *Store {
	return &Store{producer: producer}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	return s.producer.Produce(ctx, []byte(event.EntityID), payload)
}
