package services

import (
	"context"
	"testing"
	"time"

	"collections_flow_go/models"

	"github.com/stretchr/testify/assert"
)

func newTestGate(t *testing.T) (*IntegrityGate, *StatusEngine, *FolderStore) {
	t.Helper()
	cfg := testConfig()
	store := newTestStore(t, cfg)
	engine := NewStatusEngine(store, cfg)
	engine.now = func() time.Time { return testNow }
	return NewIntegrityGate(store, engine), engine, store
}

func TestValidateStateChangeL1AlwaysAllowed(t *testing.T) {
	gate, engine, _ := newTestGate(t)

	updates := engine.MetadataUpdatesForAction(models.ActionL1, testNow)
	result := gate.ValidateStateChange(context.Background(), testCase(), nil, models.ActionL1, updates)
	assert.True(t, result.Allowed)
	assert.Empty(t, result.Corrections)
}

func TestValidateStateChangeL2RequiresL1Document(t *testing.T) {
	ctx := context.Background()

	t.Run("DeniedWithoutL1Document", func(t *testing.T) {
		gate, engine, store := newTestGate(t)
		record := testCase()
		container, _, err := store.CreateContainer(ctx, record)
		assert.NoError(t, err)

		updates := engine.MetadataUpdatesForAction(models.ActionL2, testNow)
		result := gate.ValidateStateChange(ctx, record, container, models.ActionL2, updates)
		assert.False(t, result.Allowed)
		assert.Equal(t, "L1 document must exist before L2", result.Reason)
		assert.Equal(t, "Generate L1 first", result.Recovery)
	})

	t.Run("AllowedWithL1Document", func(t *testing.T) {
		gate, engine, store := newTestGate(t)
		record := testCase()
		container, _, err := store.CreateContainer(ctx, record)
		assert.NoError(t, err)
		saveTestDocument(t, store, record, models.ActionL1)
		err = store.UpdateMetadata(ctx, container, models.MetadataUpdates{"currentState.l1_sent": testNow.AddDate(0, 0, -1)})
		assert.NoError(t, err)

		updates := engine.MetadataUpdatesForAction(models.ActionL2, testNow)
		result := gate.ValidateStateChange(ctx, record, container, models.ActionL2, updates)
		assert.True(t, result.Allowed)
	})
}

func TestValidateStateChangeStaleL1Claim(t *testing.T) {
	ctx := context.Background()
	gate, engine, store := newTestGate(t)
	record := testCase()
	container, _, err := store.CreateContainer(ctx, record)
	assert.NoError(t, err)

	// Metadata claims L1 sent; no document backs the claim
	err = store.UpdateMetadata(ctx, container, models.MetadataUpdates{"currentState.l1_sent": testNow.AddDate(0, 0, -1)})
	assert.NoError(t, err)

	updates := engine.MetadataUpdatesForAction(models.ActionNOTE, testNow)
	result := gate.ValidateStateChange(ctx, record, container, models.ActionNOTE, updates)
	assert.False(t, result.Allowed)
	assert.Equal(t, "Metadata claims L1 sent but document missing", result.Reason)
	assert.Equal(t, "Metadata will be corrected", result.Recovery)

	// The correction proposes nulling the stale claim; the gate applies nothing
	correction, present := result.Corrections["currentState.l1_sent"]
	assert.True(t, present)
	assert.Nil(t, correction)

	metadata, err := store.GetMetadata(ctx, container)
	assert.NoError(t, err)
	assert.NotNil(t, metadata.CurrentState.L1Sent, "the gate itself must not mutate metadata")
}

func TestValidateStateChangeSLAVerification(t *testing.T) {
	ctx := context.Background()
	gate, engine, store := newTestGate(t)
	record := testCase()
	future := testNow.AddDate(0, 0, 5)
	record.PlacementDate = &future
	container, _, err := store.CreateContainer(ctx, record)
	assert.NoError(t, err)

	updates := engine.MetadataUpdatesForAction(models.ActionNOTE, testNow)
	result := gate.ValidateStateChange(ctx, record, container, models.ActionNOTE, updates)
	assert.False(t, result.Allowed)
	assert.Equal(t, "SLA verification failed", result.Reason)
	assert.Equal(t, "Review case SLA inputs", result.Recovery)
}
