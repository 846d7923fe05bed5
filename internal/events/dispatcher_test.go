package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.TicketID)
		return errors.New("boom")
	}, EventTicketCreated)
	d.Subscribe(func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.TicketID)
		return nil
	}, EventTicketCreated)
	d.Subscribe(func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	}, EventEscalationOffered)

	event := New(EventTicketCreated, time.Now())
	event.TicketID = "T-1"
	err := d.Publish(context.Background(), event)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []string{"first:T-1", "second:T-1"}, calls)
}

func TestPanickingHandlerIsReported(t *testing.T) {
	d := NewInMemoryDispatcher()
	reached := false
	d.Subscribe(func(context.Context, Event) error { panic("bad handler") }, EventTicketCreated)
	d.Subscribe(func(context.Context, Event) error {
		reached = true
		return nil
	}, EventTicketCreated)

	err := d.Publish(context.Background(), New(EventTicketCreated, time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad handler")
	assert.True(t, reached)
}

func TestSubscribeToSeveralTypes(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []EventType
	d.Subscribe(func(_ context.Context, e Event) error {
		seen = append(seen, e.Type)
		return nil
	}, AllEventTypes...)

	for _, et := range AllEventTypes {
		require.NoError(t, d.Publish(context.Background(), New(et, time.Now())))
	}
	assert.Equal(t, AllEventTypes, seen)
}

func TestPublishWithoutListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), New(EventTicketStatusRefreshed, time.Now())))
}

func TestNewAssignsUniqueIDs(t *testing.T) {
	a := New(EventTicketCreated, time.Now())
	b := New(EventTicketCreated, time.Now())
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, time.UTC, a.Timestamp.Location())
}
