package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"family-ledger/internal/pointerfeed"
	"family-ledger/pkg/logger"
	"github.com/stretchr/testify/require"
)

type fakePointers struct {
	mu       sync.Mutex
	pointers map[string]string
	err      error
	reads    int
}

func newFakePointers() *fakePointers {
	return &fakePointers{pointers: make(map[string]string)}
}

func (p *fakePointers) CurrentFamilyID(ctx context.Context, userID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads++
	if p.err != nil {
		return "", p.err
	}
	return p.pointers[userID], nil
}

func (p *fakePointers) set(userID, familyID string) {
	p.mu.Lock()
	p.pointers[userID] = familyID
	p.mu.Unlock()
}

func (p *fakePointers) fail(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func (p *fakePointers) readCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}

func waitEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case event, ok := <-sub.Events():
		require.True(t, ok, "events closed")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return Event{}
	}
}

func waitEvicted(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case <-sub.Evicted():
	case <-time.After(2 * time.Second):
		t.Fatal("not evicted")
	}
}

func TestAttachRequiresFamily(t *testing.T) {
	w := New(newFakePointers(), pointerfeed.NewHub(), time.Minute, logger.Nop())
	_, err := w.Attach(context.Background(), "bob", "")
	require.ErrorIs(t, err, ErrFamilyRequired)
}

func TestEvictsOnPublishedChange(t *testing.T) {
	pointers := newFakePointers()
	pointers.set("bob", "fam-1")
	hub := pointerfeed.NewHub()
	w := New(pointers, hub, time.Hour, logger.Nop())

	sub, err := w.Attach(context.Background(), "bob", "fam-1")
	require.NoError(t, err)
	defer sub.Close()

	event := waitEvent(t, sub)
	require.Equal(t, StateConsistent, event.State)
	require.Equal(t, "fam-1", event.FamilyID)
	require.Equal(t, StateConsistent, sub.State())

	pointers.set("bob", "")
	require.NoError(t, hub.Publish(context.Background(), pointerfeed.PointerChange{UserID: "bob"}))

	event = waitEvent(t, sub)
	require.Equal(t, StateEvicted, event.State)
	require.Empty(t, event.FamilyID)
	waitEvicted(t, sub)
	require.Equal(t, StateEvicted, sub.State())

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not stop after eviction")
	}
}

func TestEvictsOnResyncWithoutNotification(t *testing.T) {
	pointers := newFakePointers()
	pointers.set("bob", "fam-1")
	w := New(pointers, pointerfeed.Noop(), 10*time.Millisecond, logger.Nop())

	sub, err := w.Attach(context.Background(), "bob", "fam-1")
	require.NoError(t, err)
	defer sub.Close()

	require.Equal(t, StateConsistent, waitEvent(t, sub).State)

	pointers.set("bob", "fam-2")
	waitEvicted(t, sub)

	event := waitEvent(t, sub)
	require.Equal(t, StateEvicted, event.State)
	require.Equal(t, "fam-2", event.FamilyID)
}

func TestEvictsImmediatelyOnStaleExpectation(t *testing.T) {
	pointers := newFakePointers()
	w := New(pointers, pointerfeed.NewHub(), time.Hour, logger.Nop())

	sub, err := w.Attach(context.Background(), "bob", "fam-1")
	require.NoError(t, err)
	defer sub.Close()

	waitEvicted(t, sub)
	require.Equal(t, StateEvicted, sub.State())
}

func TestReadErrorsDoNotEvict(t *testing.T) {
	pointers := newFakePointers()
	pointers.fail(errors.New("store unavailable"))
	w := New(pointers, pointerfeed.Noop(), 5*time.Millisecond, logger.Nop())

	sub, err := w.Attach(context.Background(), "bob", "fam-1")
	require.NoError(t, err)
	defer sub.Close()

	require.Eventually(t, func() bool { return pointers.readCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, StateAttached, sub.State())

	pointers.fail(nil)
	pointers.set("bob", "fam-1")
	require.Equal(t, StateConsistent, waitEvent(t, sub).State)
}

func TestCloseIsNotEviction(t *testing.T) {
	pointers := newFakePointers()
	pointers.set("bob", "fam-1")
	hub := pointerfeed.NewHub()
	w := New(pointers, hub, time.Hour, logger.Nop())

	sub, err := w.Attach(context.Background(), "bob", "fam-1")
	require.NoError(t, err)
	require.Equal(t, StateConsistent, waitEvent(t, sub).State)
	require.Equal(t, 1, hub.SubscriberCount("bob"))

	sub.Close()

	_, ok := <-sub.Events()
	require.False(t, ok)
	select {
	case <-sub.Evicted():
		t.Fatal("close must not evict")
	default:
	}
	require.Equal(t, 0, hub.SubscriberCount("bob"))
}

func TestParentCancelStopsSubscription(t *testing.T) {
	pointers := newFakePointers()
	pointers.set("bob", "fam-1")
	w := New(pointers, pointerfeed.NewHub(), time.Hour, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := w.Attach(ctx, "bob", "fam-1")
	require.NoError(t, err)

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription still running")
	}
}

func TestStateString(t *testing.T) {
	require.Equal(t, "attached", StateAttached.String())
	require.Equal(t, "consistent", StateConsistent.String())
	require.Equal(t, "evicted", StateEvicted.String())
	require.Equal(t, "unknown", State(42).String())
}
