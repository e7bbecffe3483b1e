package ledger

import "context"

type Repository interface {
	ListEntries(ctx context.Context, familyID string, filter ListFilter) ([]Entry, int64, error)
	CreateEntry(ctx context.Context, entry *Entry) error
}
