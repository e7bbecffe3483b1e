package family

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	GetFamily(ctx context.Context, familyID string) (*Family, error)
	// FindFamilyByName returns the earliest created family with exactly this name.
	FindFamilyByName(ctx context.Context, name string) (*Family, error)
	CreateFamily(ctx context.Context, family *Family) error
	DeleteFamily(ctx context.Context, familyID string) error

	GetMember(ctx context.Context, familyID, userID string) (*Membership, error)
	ListMembers(ctx context.Context, familyID string) ([]Membership, error)
	CountMembers(ctx context.Context, familyID string) (int64, error)
	AddMember(ctx context.Context, member *Membership) error
	DeleteMember(ctx context.Context, familyID, userID string) (bool, error)
	// ListMemberUserIDs returns up to limit member user ids of the family.
	ListMemberUserIDs(ctx context.Context, familyID string, limit int) ([]string, error)
	DeleteMembers(ctx context.Context, familyID string, userIDs []string) error

	// LockPointer returns the account's current-family pointer ("" when unset)
	// and locks the profile row, creating it when missing.
	LockPointer(ctx context.Context, userID string) (string, error)
	GetPointer(ctx context.Context, userID string) (string, error)
	SetPointer(ctx context.Context, userID, familyID string) error
	// ListPointerHolders returns the accounts whose pointer references familyID.
	ListPointerHolders(ctx context.Context, familyID string) ([]string, error)
	// ClearPointers unsets the pointer of each account whose pointer still
	// references familyID.
	ClearPointers(ctx context.Context, familyID string, userIDs []string) error

	DeleteLedgerEntries(ctx context.Context, familyID string, limit int) (int64, error)
	DeleteJoinRequests(ctx context.Context, familyID string, limit int) (int64, error)
}
