// -----------------------------------------------------------------------
// Audit Log - Operational log subscriber for job lifecycle events
// -----------------------------------------------------------------------

package events

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
)

// auditedEvents are the lifecycle events recorded in the operational log.
var auditedEvents = []interfaces.EventType{
	interfaces.EventJobCreated,
	interfaces.EventJobRetried,
	interfaces.EventJobUpdated,
	interfaces.EventJobCompleted,
	interfaces.EventJobFailed,
}

// RegisterAuditLog subscribes an audit handler for every job lifecycle
// event, so the operational log carries a trail of job transitions even
// when no websocket client is watching.
func RegisterAuditLog(bus interfaces.EventService, logger arbor.ILogger) error {
	handler := auditHandler(logger)
	for _, eventType := range auditedEvents {
		if err := bus.Subscribe(eventType, handler); err != nil {
			return fmt.Errorf("failed to register audit handler for %s: %w", eventType, err)
		}
	}
	return nil
}

func auditHandler(logger arbor.ILogger) interfaces.EventHandler {
	return func(ctx context.Context, event interfaces.Event) error {
		summary, ok := event.Payload.(models.JobSummary)
		if !ok {
			logger.Warn().
				Str("event_type", string(event.Type)).
				Msg("Audit event carried an unexpected payload")
			return nil
		}

		entry := logger.Info().
			Str("event_type", string(event.Type)).
			Str("job_id", summary.ID).
			Str("status", string(summary.Status)).
			Int("progress", summary.Progress)
		if summary.Error != "" {
			entry = entry.Str("error", summary.Error)
		}
		entry.Msg("Job event")
		return nil
	}
}
