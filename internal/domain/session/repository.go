package session

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	// LockSession returns the account's session row, creating an inactive one
	// first if needed, and holds a row lock until the transaction ends.
	LockSession(ctx context.Context, userID string) (*Session, error)
	GetSession(ctx context.Context, userID string) (*Session, error)
	Activate(ctx context.Context, userID, deviceID string) error
	Deactivate(ctx context.Context, userID string) error
}
