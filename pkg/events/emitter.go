package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	EventTypeEntrySaved   = "entry.saved"
	EventTypeEntryDeleted = "entry.deleted"
)

type Publisher interface {
	PublishEntryEvent(ctx context.Context, evt *kafka.EntryEvent) error
}

// Emitter forwards committed entry changes to Kafka. Publishing failures are
// logged and counted; they never undo the save.
type Emitter struct {
	producer Publisher
	logger   ectologger.Logger
}

func NewEmitter(producer Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// Register subscribes the emitter to the bus.
func (e *Emitter) Register(bus *Bus) {
	bus.OnAfterSaveEntry(e.onAfterSave)
	bus.OnAfterDeleteEntry(e.onAfterDelete)
}

func (e *Emitter) onAfterSave(ctx context.Context, event AfterSaveEntryEvent) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitEntrySaved")
	defer span.End()

	e.publish(ctx, &kafka.EntryEvent{
		Type:       EventTypeEntrySaved,
		EntryID:    event.Entry.ID,
		FormID:     event.Entry.FormID,
		FormHandle: event.Entry.FormHandle,
		StatusID:   event.Entry.StatusID,
		SiteID:     event.Entry.SiteID,
		IsNew:      event.IsNewEntry,
		Values:     event.Entry.Values,
	})
}

func (e *Emitter) onAfterDelete(ctx context.Context, event AfterDeleteEntryEvent) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitEntryDeleted")
	defer span.End()

	e.publish(ctx, &kafka.EntryEvent{
		Type:       EventTypeEntryDeleted,
		EntryID:    event.Entry.ID,
		FormID:     event.Entry.FormID,
		FormHandle: event.Entry.FormHandle,
		SiteID:     event.Entry.SiteID,
	})
}

func (e *Emitter) publish(ctx context.Context, evt *kafka.EntryEvent) {
	if err := e.producer.PublishEntryEvent(ctx, evt); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(evt.Type, "error").Inc()
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", evt.Type)
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(evt.Type, "success").Inc()
}
