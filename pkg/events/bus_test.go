package events

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeforeSaveListenersRunInOrder(t *testing.T) {
	bus := NewBus()
	var order []string

	bus.OnBeforeSaveEntry(func(_ context.Context, event *BeforeSaveEntryEvent) {
		order = append(order, "first")
		event.AddError("email", "Blocked domain.")
	})
	bus.OnBeforeSaveEntry(func(_ context.Context, event *BeforeSaveEntryEvent) {
		order = append(order, "second")
		assert.False(t, event.IsValid)
		event.FakeIt = true
	})

	event := bus.BeforeSaveEntry(context.Background(), &models.Entry{})
	assert.Equal(t, []string{"first", "second"}, order)
	assert.False(t, event.IsValid)
	assert.True(t, event.FakeIt)
	assert.Equal(t, []string{"Blocked domain."}, event.Errors["email"])
}

func TestBeforeSaveWithoutListenersIsValid(t *testing.T) {
	event := NewBus().BeforeSaveEntry(context.Background(), &models.Entry{})
	assert.True(t, event.IsValid)
	assert.False(t, event.FakeIt)
	assert.False(t, event.Errors.HasErrors())
}

type recordingPublisher struct {
	events []*kafka.EntryEvent
	err    error
}

func (p *recordingPublisher) PublishEntryEvent(_ context.Context, evt *kafka.EntryEvent) error {
	p.events = append(p.events, evt)
	return p.err
}

func TestEmitterPublishesLifecycleEvents(t *testing.T) {
	bus := NewBus()
	publisher := &recordingPublisher{}
	NewEmitter(publisher, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})).Register(bus)

	entry := &models.Entry{ID: 8, FormID: 2, FormHandle: "contact", SiteID: 1}
	bus.AfterSaveEntry(context.Background(), entry, true)
	bus.AfterDeleteEntry(context.Background(), entry)

	require.Len(t, publisher.events, 2)
	assert.Equal(t, EventTypeEntrySaved, publisher.events[0].Type)
	assert.True(t, publisher.events[0].IsNew)
	assert.Equal(t, EventTypeEntryDeleted, publisher.events[1].Type)
	assert.Equal(t, int64(8), publisher.events[1].EntryID)

	publisher.err = errors.New("broker down")
	assert.NotPanics(t, func() { bus.AfterSaveEntry(context.Background(), entry, false) })
}
