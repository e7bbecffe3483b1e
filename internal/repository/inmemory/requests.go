package inmemory

import (
	"context"
	"sort"

	familydomain "family-ledger/internal/domain/family"
	joinrequestdomain "family-ledger/internal/domain/joinrequest"
)

type JoinRequestRepository struct {
	store *Store
	tx    *state
}

func (r *JoinRequestRepository) v() view {
	return view{store: r.store, tx: r.tx}
}

func (r *JoinRequestRepository) Transaction(ctx context.Context, fn func(joinrequestdomain.Repository) error) error {
	return r.v().transaction(ctx, func(tx view) error {
		return fn(&JoinRequestRepository{store: tx.store, tx: tx.tx})
	})
}

func (r *JoinRequestRepository) FamilyExists(ctx context.Context, familyID string) (bool, error) {
	var exists bool
	err := r.v().read(ctx, "FamilyExists", func(st *state) error {
		_, exists = st.families[familyID]
		return nil
	})
	return exists, err
}

func (r *JoinRequestRepository) CreateRequest(ctx context.Context, request *joinrequestdomain.JoinRequest) error {
	return r.v().do(ctx, "CreateRequest", func(st *state) error {
		if _, ok := st.families[request.FamilyID]; !ok {
			return familydomain.ErrFamilyNotFound
		}
		if request.Status == "" {
			request.Status = joinrequestdomain.StatusPending
		}
		request.CreatedAt = r.store.now()
		st.requests[request.ID] = *request
		return nil
	})
}

func (r *JoinRequestRepository) ListPending(ctx context.Context, familyID string) ([]joinrequestdomain.JoinRequest, error) {
	result := make([]joinrequestdomain.JoinRequest, 0)
	err := r.v().read(ctx, "ListPending", func(st *state) error {
		for _, request := range st.requests {
			if request.FamilyID == familyID {
				result = append(result, request)
			}
		}
		sort.Slice(result, func(i, j int) bool {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		})
		return nil
	})
	return result, err
}

func (r *JoinRequestRepository) LockRequest(ctx context.Context, requestID string) (*joinrequestdomain.JoinRequest, error) {
	var result joinrequestdomain.JoinRequest
	err := r.v().do(ctx, "LockRequest", func(st *state) error {
		request, ok := st.requests[requestID]
		if !ok {
			return joinrequestdomain.ErrRequestNotFound
		}
		result = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *JoinRequestRepository) DeleteRequest(ctx context.Context, requestID string) (bool, error) {
	var deleted bool
	err := r.v().do(ctx, "DeleteRequest", func(st *state) error {
		if _, ok := st.requests[requestID]; ok {
			delete(st.requests, requestID)
			deleted = true
		}
		return nil
	})
	return deleted, err
}

func (r *JoinRequestRepository) MemberRole(ctx context.Context, familyID, userID string) (string, error) {
	var role string
	err := r.v().read(ctx, "MemberRole", func(st *state) error {
		if member, ok := st.findMember(familyID, userID); ok {
			role = member.Role
		}
		return nil
	})
	return role, err
}

func (r *JoinRequestRepository) AddMember(ctx context.Context, member *familydomain.Membership) error {
	return r.v().do(ctx, "AddMember", func(st *state) error {
		return st.addMember(r.store, member)
	})
}

func (r *JoinRequestRepository) LockPointer(ctx context.Context, userID string) (string, error) {
	var familyID string
	err := r.v().do(ctx, "LockPointer", func(st *state) error {
		st.ensureProfile(r.store, userID)
		familyID = st.pointer(userID)
		return nil
	})
	return familyID, err
}

func (r *JoinRequestRepository) SetPointer(ctx context.Context, userID, familyID string) error {
	return r.v().do(ctx, "SetPointer", func(st *state) error {
		st.setPointer(r.store, userID, familyID)
		return nil
	})
}
