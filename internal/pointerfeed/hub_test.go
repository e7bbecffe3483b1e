package pointerfeed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHubDeliversOnlyToMatchingUser(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	chA, cancelA, err := hub.Subscribe(ctx, "user-a")
	require.NoError(t, err)
	defer cancelA()
	chB, cancelB, err := hub.Subscribe(ctx, "user-b")
	require.NoError(t, err)
	defer cancelB()

	require.NoError(t, hub.Publish(ctx, PointerChange{UserID: "user-a", FamilyID: "fam-1"}))

	select {
	case change := <-chA:
		require.Equal(t, "fam-1", change.FamilyID)
	case <-time.After(time.Second):
		t.Fatal("expected change for user-a")
	}

	select {
	case change := <-chB:
		t.Fatalf("unexpected change for user-b: %+v", change)
	default:
	}
}

func TestHubCancelClosesChannelAndIsIdempotent(t *testing.T) {
	hub := NewHub()
	ch, cancel, err := hub.Subscribe(context.Background(), "user-a")
	require.NoError(t, err)
	require.Equal(t, 1, hub.SubscriberCount("user-a"))

	cancel()
	cancel()

	_, ok := <-ch
	require.False(t, ok)
	require.Equal(t, 0, hub.SubscriberCount("user-a"))
	require.NoError(t, hub.Publish(context.Background(), PointerChange{UserID: "user-a"}))
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewHub()
	ch, cancel, err := hub.Subscribe(context.Background(), "user-a")
	require.NoError(t, err)
	defer cancel()

	for i := 0; i < hubBufferSize*2; i++ {
		require.NoError(t, hub.Publish(context.Background(), PointerChange{UserID: "user-a"}))
	}
	require.Len(t, ch, hubBufferSize)
}

func TestPublishAll(t *testing.T) {
	hub := NewHub()
	chA, cancelA, _ := hub.Subscribe(context.Background(), "a")
	defer cancelA()
	chB, cancelB, _ := hub.Subscribe(context.Background(), "b")
	defer cancelB()

	require.NoError(t, PublishAll(context.Background(), hub, "", "a", "b"))
	require.Len(t, chA, 1)
	require.Len(t, chB, 1)
}
