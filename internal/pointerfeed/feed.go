// Package pointerfeed carries current-family pointer change notifications
// from the writers of the pointer to the watchers observing it.
//
// Notifications are hints: a subscriber that misses one must still converge
// by re-reading the pointer from the store.
package pointerfeed

import (
	"context"
	"time"
)

type PointerChange struct {
	UserID    string    `json:"user_id"`
	FamilyID  string    `json:"family_id"`
	ChangedAt time.Time `json:"changed_at"`
}

type Publisher interface {
	Publish(ctx context.Context, change PointerChange) error
}

// Subscriber delivers changes for a single account. The returned cancel func
// releases the subscription and closes the channel.
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) (<-chan PointerChange, func(), error)
}

type Feed interface {
	Publisher
	Subscriber
}

// PublishAll publishes one change per user and returns the first error.
func PublishAll(ctx context.Context, pub Publisher, familyID string, userIDs ...string) error {
	var firstErr error
	now := time.Now().UTC()
	for _, userID := range userIDs {
		err := pub.Publish(ctx, PointerChange{UserID: userID, FamilyID: familyID, ChangedAt: now})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type noopFeed struct{}

// Noop returns a feed that drops every change and never delivers.
func Noop() Feed {
	return noopFeed{}
}

func (noopFeed) Publish(context.Context, PointerChange) error {
	return nil
}

func (noopFeed) Subscribe(context.Context, string) (<-chan PointerChange, func(), error) {
	ch := make(chan PointerChange)
	return ch, func() {}, nil
}
