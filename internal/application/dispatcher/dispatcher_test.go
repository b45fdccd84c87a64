package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/event"
)

func statusEvent() *event.Event {
	return event.NewEvent(event.TypeStatusChanged, "acme", "c1", map[string]interface{}{
		"new_status": "PENDING_HR",
	})
}

func TestDispatchRunsHandlersInOrder(t *testing.T) {
	d := NewDispatcher()
	var order []string

	d.SubscribeNamed(event.TypeStatusChanged, "first", func(ctx context.Context, e *event.Event) error {
		order = append(order, "first")
		return nil
	})
	d.SubscribeNamed(event.TypeStatusChanged, "second", func(ctx context.Context, e *event.Event) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), statusEvent()))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestDispatchStopsOnHandlerError(t *testing.T) {
	d := NewDispatcher()
	var reached bool

	d.SubscribeNamed(event.TypeStatusChanged, "failing", func(ctx context.Context, e *event.Event) error {
		return errors.New("boom")
	})
	d.SubscribeNamed(event.TypeStatusChanged, "after", func(ctx context.Context, e *event.Event) error {
		reached = true
		return nil
	})

	err := d.Dispatch(context.Background(), statusEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing")
	assert.False(t, reached)
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	d := NewDispatcher()

	d.Subscribe(event.TypeStatusChanged, func(ctx context.Context, e *event.Event) error {
		panic("handler bug")
	})

	err := d.Dispatch(context.Background(), statusEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}

func TestDispatchAsyncCompletesBeforeClose(t *testing.T) {
	d := NewDispatcher()
	var calls atomic.Int32

	d.Subscribe(event.TypeStatusChanged, func(ctx context.Context, e *event.Event) error {
		calls.Add(1)
		return nil
	})

	d.DispatchAsync(context.Background(), statusEvent())
	d.DispatchAsync(context.Background(), statusEvent())

	// Close waits for in-flight async handlers.
	require.NoError(t, d.Close())
	assert.Equal(t, int32(2), calls.Load())
}

func TestDispatchAfterCloseFails(t *testing.T) {
	d := NewDispatcher()
	require.NoError(t, d.Close())

	assert.Error(t, d.Dispatch(context.Background(), statusEvent()))
	assert.Error(t, d.Close())
}

func TestDispatchIgnoresUnrelatedEventTypes(t *testing.T) {
	d := NewDispatcher()
	var called bool

	d.Subscribe(event.TypeClaimSettled, func(ctx context.Context, e *event.Event) error {
		called = true
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), statusEvent()))
	assert.False(t, called)
}
