package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "clinic/pkg/platform/audit"
)

type recordingProducer struct {
	key, value []byte
	err        error
}

func (r *recordingProducer) Produce(_ context.Context, key, value []byte) error {
	r.key, r.value = key, value
	return r.err
}

func TestStore_Append(t *testing.T) {
	producer := &recordingProducer{}
	store := New(producer)
	event := audit.Event{
		Timestamp: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Action:    string(audit.EventPatientCreated),
		Entity:    audit.EntityPatient,
		EntityID:  "p-1",
		CPFHash:   audit.NewHasher([]byte("k")).Hash("52998224725"),
	}

	require.NoError(t, store.Append(context.Background(), event))
	assert.Equal(t, "p-1", string(producer.key))

	var decoded audit.Event
	require.NoError(t, json.Unmarshal(producer.value, &decoded))
	assert.Equal(t, event, decoded)
	assert.NotContains(t, string(producer.value), "52998224725")
}

func TestStore_AppendPropagatesError(t *testing.T) {
	want := errors.New("broker down")
	store := New(&recordingProducer{err: want})
	err := store.Append(context.Background(), audit.Event{EntityID: "p"})
	assert.ErrorIs(t, err, want)
}
