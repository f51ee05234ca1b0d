package events

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
)

func TestPublishSyncDeliversToAllSubscribers(t *testing.T) {
	bus := NewService(arbor.NewLogger())

	var calls int32
	handler := func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}
	require.NoError(t, bus.Subscribe(interfaces.EventJobCompleted, handler))
	require.NoError(t, bus.Subscribe(interfaces.EventJobCompleted, handler))

	err := bus.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventJobCompleted,
		Payload: models.JobSummary{ID: "job_bus"},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	// No subscribers for this type: a no-op, not an error.
	assert.NoError(t, bus.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventJobFailed}))
}

func TestPublishSyncPropagatesHandlerError(t *testing.T) {
	bus := NewService(arbor.NewLogger())

	require.NoError(t, bus.Subscribe(interfaces.EventJobFailed, func(ctx context.Context, event interfaces.Event) error {
		return fmt.Errorf("sink unavailable")
	}))

	err := bus.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventJobFailed})
	assert.Error(t, err)
}

func TestSubscribeRejectsNilHandler(t *testing.T) {
	bus := NewService(arbor.NewLogger())
	assert.Error(t, bus.Subscribe(interfaces.EventJobCreated, nil))
}

func TestRegisterAuditLogCoversLifecycle(t *testing.T) {
	bus := NewService(arbor.NewLogger())
	require.NoError(t, RegisterAuditLog(bus, arbor.NewLogger()))

	ctx := context.Background()
	for _, eventType := range auditedEvents {
		err := bus.PublishSync(ctx, interfaces.Event{
			Type:    eventType,
			Payload: models.JobSummary{ID: "job_audit", Status: models.JobStatusQueued},
		})
		assert.NoError(t, err, eventType)
	}

	// An unexpected payload is logged and swallowed, never an error.
	assert.NoError(t, bus.PublishSync(ctx, interfaces.Event{
		Type:    interfaces.EventJobUpdated,
		Payload: "not a summary",
	}))
}
