package profile

import "context"

type Repository interface {
	UpsertProfile(ctx context.Context, profile *Profile) error
	// GetFamilyID returns the current-family pointer, "" when unset or when
	// the profile does not exist.
	GetFamilyID(ctx context.Context, userID string) (string, error)
}
