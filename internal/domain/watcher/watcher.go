package watcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"family-ledger/internal/pointerfeed"
	"family-ledger/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	defaultResyncInterval = 30 * time.Second
	eventBufferSize       = 8
)

var ErrFamilyRequired = errors.New("expected family id is required")

// Watcher attaches read-only subscriptions to an account's current-family
// pointer. It never writes the pointer.
type Watcher struct {
	pointers PointerReader
	feed     pointerfeed.Subscriber
	resync   time.Duration
	log      logger.Logger
}

func New(pointers PointerReader, feed pointerfeed.Subscriber, resync time.Duration, log logger.Logger) *Watcher {
	if resync <= 0 {
		resync = defaultResyncInterval
	}
	if feed == nil {
		feed = pointerfeed.Noop()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Watcher{pointers: pointers, feed: feed, resync: resync, log: log}
}

// Subscription compares the live pointer of one account against the family
// it was attached with. Eviction is terminal: attach again with a fresh
// expected family to keep watching.
type Subscription struct {
	accountID string
	expected  string

	events  chan Event
	evicted chan struct{}
	once    sync.Once

	mu    sync.RWMutex
	state State

	cancel context.CancelFunc
	done   chan struct{}
	log    logger.Logger
}

type observation struct {
	familyID string
}

// Attach subscribes to pointer changes before taking the first reading, so a
// write landing between the two is not lost.
func (w *Watcher) Attach(ctx context.Context, accountID, expectedFamilyID string) (*Subscription, error) {
	if expectedFamilyID == "" {
		return nil, ErrFamilyRequired
	}

	runCtx, cancel := context.WithCancel(ctx)
	changes, unsubscribe, err := w.feed.Subscribe(runCtx, accountID)
	if err != nil {
		cancel()
		return nil, err
	}

	sub := &Subscription{
		accountID: accountID,
		expected:  expectedFamilyID,
		events:    make(chan Event, eventBufferSize),
		evicted:   make(chan struct{}),
		state:     StateAttached,
		cancel:    cancel,
		done:      make(chan struct{}),
		log:       w.log.With("user_id", accountID, "family_id", expectedFamilyID),
	}

	go func() {
		defer close(sub.done)
		defer close(sub.events)
		defer unsubscribe()
		w.run(runCtx, sub, changes)
	}()

	return sub, nil
}

func (w *Watcher) run(ctx context.Context, sub *Subscription, changes <-chan pointerfeed.PointerChange) {
	group, groupCtx := errgroup.WithContext(ctx)
	observations := make(chan observation)

	// The feed only says "something changed"; the store read is the
	// observation, so every trigger funnels through read.
	read := func() error {
		familyID, err := w.pointers.CurrentFamilyID(groupCtx, sub.accountID)
		if err != nil {
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}
			sub.log.InternalError("watcher: pointer read failed", err)
			return nil
		}
		select {
		case observations <- observation{familyID: familyID}:
			return nil
		case <-groupCtx.Done():
			return groupCtx.Err()
		}
	}

	group.Go(func() error {
		if err := read(); err != nil {
			return err
		}
		ticker := time.NewTicker(w.resync)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			case <-ticker.C:
				if err := read(); err != nil {
					return err
				}
			case _, ok := <-changes:
				if !ok {
					changes = nil
					continue
				}
				if err := read(); err != nil {
					return err
				}
			}
		}
	})

	group.Go(func() error {
		for {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			case obs := <-observations:
				if sub.observe(obs.familyID) {
					return errEvicted
				}
			}
		}
	})

	if err := group.Wait(); err != nil && !errors.Is(err, errEvicted) && !errors.Is(err, context.Canceled) {
		sub.log.InternalError("watcher: stopped", err)
	}
}

var errEvicted = errors.New("evicted")

// observe applies one pointer reading and reports whether it evicted.
func (s *Subscription) observe(familyID string) bool {
	next := StateConsistent
	if familyID != s.expected {
		next = StateEvicted
	}

	s.mu.Lock()
	changed := s.state != next
	s.state = next
	s.mu.Unlock()

	if changed {
		s.emit(Event{State: next, FamilyID: familyID, ObservedAt: time.Now().UTC()})
	}

	if next == StateEvicted {
		s.once.Do(func() { close(s.evicted) })
		s.log.Info("watcher: evicted", "observed_family_id", familyID)
		return true
	}
	return false
}

// emit never blocks: consumers that only wait on Evicted do not stall the
// watcher, and the eviction itself is always visible through Evicted.
func (s *Subscription) emit(event Event) {
	select {
	case s.events <- event:
	default:
	}
}

// Events delivers state transitions and is closed when the subscription
// stops. Undrained intermediate events may be dropped.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Evicted is closed exactly once, when the pointer is observed to differ
// from the expected family.
func (s *Subscription) Evicted() <-chan struct{} {
	return s.evicted
}

func (s *Subscription) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Subscription) ExpectedFamilyID() string {
	return s.expected
}

// Close stops the subscription and waits for it to wind down. Closing does
// not count as an eviction.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

// Done is closed once the subscription has fully stopped.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}
