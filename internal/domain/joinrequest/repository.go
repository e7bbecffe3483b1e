package joinrequest

import (
	"context"

	familydomain "family-ledger/internal/domain/family"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	FamilyExists(ctx context.Context, familyID string) (bool, error)
	CreateRequest(ctx context.Context, request *JoinRequest) error
	// ListPending returns the family's requests, newest first.
	ListPending(ctx context.Context, familyID string) ([]JoinRequest, error)
	// LockRequest returns the request and holds a row lock on it until the
	// transaction ends.
	LockRequest(ctx context.Context, requestID string) (*JoinRequest, error)
	DeleteRequest(ctx context.Context, requestID string) (bool, error)

	MemberRole(ctx context.Context, familyID, userID string) (string, error)
	AddMember(ctx context.Context, member *familydomain.Membership) error
	LockPointer(ctx context.Context, userID string) (string, error)
	SetPointer(ctx context.Context, userID, familyID string) error
}

// FamilyFinder resolves a family name to a family.
type FamilyFinder interface {
	FindFamilyByName(ctx context.Context, name string) (*familydomain.Family, error)
}
