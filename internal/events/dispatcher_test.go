package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/events"
)

func TestInMemoryDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to all subscribers of the type", func(t *testing.T) {
		dispatcher := events.NewInMemoryDispatcher()

		var calls int
		handler := func(_ context.Context, _ events.Event) error {
			calls++
			return nil
		}
		dispatcher.Subscribe(events.EventAccountCreated, handler)
		dispatcher.Subscribe(events.EventAccountCreated, handler)
		dispatcher.Subscribe(events.EventAccountDeleted, handler)

		err := dispatcher.Publish(ctx, events.Event{Type: events.EventAccountCreated})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("failing handler does not stop the rest", func(t *testing.T) {
		dispatcher := events.NewInMemoryDispatcher()

		var reached bool
		dispatcher.Subscribe(events.EventPasswordChanged, func(_ context.Context, _ events.Event) error {
			return errors.New("boom")
		})
		dispatcher.Subscribe(events.EventPasswordChanged, func(_ context.Context, _ events.Event) error {
			reached = true
			return nil
		})

		err := dispatcher.Publish(ctx, events.Event{Type: events.EventPasswordChanged})
		require.NoError(t, err)
		assert.True(t, reached)
	})

	t.Run("no subscribers is a no-op", func(t *testing.T) {
		dispatcher := events.NewInMemoryDispatcher()
		assert.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventAccountUpdated}))
	})
}
