// Package events dispatches entry save events to in-process listeners.
package events

import (
	"context"
	"sync"

	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
)

// BeforeSaveEntryEvent is handed to every before-save listener in turn.
// Listeners may add errors, mark the entry invalid or ask for a faked success.
type BeforeSaveEntryEvent struct {
	Entry   *models.Entry
	IsValid bool
	Errors  errors.ValidationErrors
	// FakeIt asks the pipeline to report the submission as handled without writing it.
	FakeIt bool
}

func (e *BeforeSaveEntryEvent) AddError(handle string, messages ...string) {
	if e.Errors == nil {
		e.Errors = errors.ValidationErrors{}
	}
	e.Errors.Add(handle, messages...)
	e.IsValid = false
}

type AfterSaveEntryEvent struct {
	Entry      *models.Entry
	IsNewEntry bool
}

type AfterDeleteEntryEvent struct {
	Entry *models.Entry
}

type (
	BeforeSaveListener  func(ctx context.Context, event *BeforeSaveEntryEvent)
	AfterSaveListener   func(ctx context.Context, event AfterSaveEntryEvent)
	AfterDeleteListener func(ctx context.Context, event AfterDeleteEntryEvent)
)

// Bus runs listeners synchronously in registration order.
type Bus struct {
	mu          sync.RWMutex
	beforeSave  []BeforeSaveListener
	afterSave   []AfterSaveListener
	afterDelete []AfterDeleteListener
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) OnBeforeSaveEntry(listener BeforeSaveListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.beforeSave = append(b.beforeSave, listener)
}

func (b *Bus) OnAfterSaveEntry(listener AfterSaveListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.afterSave = append(b.afterSave, listener)
}

func (b *Bus) OnAfterDeleteEntry(listener AfterDeleteListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.afterDelete = append(b.afterDelete, listener)
}

// BeforeSaveEntry runs the before-save listeners and returns the final event state.
func (b *Bus) BeforeSaveEntry(ctx context.Context, entry *models.Entry) *BeforeSaveEntryEvent {
	event := &BeforeSaveEntryEvent{
		Entry:   entry,
		IsValid: true,
		Errors:  errors.ValidationErrors{},
	}

	b.mu.RLock()
	listeners := append([]BeforeSaveListener{}, b.beforeSave...)
	b.mu.RUnlock()

	for _, listener := range listeners {
		listener(ctx, event)
	}
	return event
}

func (b *Bus) AfterSaveEntry(ctx context.Context, entry *models.Entry, isNew bool) {
	b.mu.RLock()
	listeners := append([]AfterSaveListener{}, b.afterSave...)
	b.mu.RUnlock()

	for _, listener := range listeners {
		listener(ctx, AfterSaveEntryEvent{Entry: entry, IsNewEntry: isNew})
	}
}

func (b *Bus) AfterDeleteEntry(ctx context.Context, entry *models.Entry) {
	b.mu.RLock()
	listeners := append([]AfterDeleteListener{}, b.afterDelete...)
	b.mu.RUnlock()

	for _, listener := range listeners {
		listener(ctx, AfterDeleteEntryEvent{Entry: entry})
	}
}
