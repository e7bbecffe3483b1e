package inmemory

import (
	"context"
	"sort"

	familydomain "family-ledger/internal/domain/family"
)

type FamilyRepository struct {
	store *Store
	tx    *state
}

func (r *FamilyRepository) v() view {
	return view{store: r.store, tx: r.tx}
}

func (r *FamilyRepository) Transaction(ctx context.Context, fn func(familydomain.Repository) error) error {
	return r.v().transaction(ctx, func(tx view) error {
		return fn(&FamilyRepository{store: tx.store, tx: tx.tx})
	})
}

func (r *FamilyRepository) GetFamily(ctx context.Context, familyID string) (*familydomain.Family, error) {
	var result familydomain.Family
	err := r.v().read(ctx, "GetFamily", func(st *state) error {
		family, ok := st.families[familyID]
		if !ok {
			return familydomain.ErrFamilyNotFound
		}
		result = family
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *FamilyRepository) FindFamilyByName(ctx context.Context, name string) (*familydomain.Family, error) {
	var result *familydomain.Family
	err := r.v().read(ctx, "FindFamilyByName", func(st *state) error {
		for _, family := range st.families {
			if family.Name != name {
				continue
			}
			if result == nil || family.CreatedAt.Before(result.CreatedAt) {
				found := family
				result = &found
			}
		}
		if result == nil {
			return familydomain.ErrFamilyNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *FamilyRepository) CreateFamily(ctx context.Context, family *familydomain.Family) error {
	return r.v().do(ctx, "CreateFamily", func(st *state) error {
		family.CreatedAt = r.store.now()
		st.families[family.ID] = *family
		return nil
	})
}

func (r *FamilyRepository) DeleteFamily(ctx context.Context, familyID string) error {
	return r.v().do(ctx, "DeleteFamily", func(st *state) error {
		delete(st.families, familyID)
		for id, member := range st.members {
			if member.FamilyID == familyID {
				delete(st.members, id)
			}
		}
		// Mirrors the foreign-key cascade of the postgres schema.
		for id, request := range st.requests {
			if request.FamilyID == familyID {
				delete(st.requests, id)
			}
		}
		for id, entry := range st.entries {
			if entry.FamilyID == familyID {
				delete(st.entries, id)
			}
		}
		return nil
	})
}

func (r *FamilyRepository) GetMember(ctx context.Context, familyID, userID string) (*familydomain.Membership, error) {
	var result familydomain.Membership
	err := r.v().read(ctx, "GetMember", func(st *state) error {
		member, ok := st.findMember(familyID, userID)
		if !ok {
			return familydomain.ErrMemberNotFound
		}
		result = member
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *FamilyRepository) ListMembers(ctx context.Context, familyID string) ([]familydomain.Membership, error) {
	var result []familydomain.Membership
	err := r.v().read(ctx, "ListMembers", func(st *state) error {
		result = st.familyMembers(familyID)
		return nil
	})
	return result, err
}

func (r *FamilyRepository) CountMembers(ctx context.Context, familyID string) (int64, error) {
	members, err := r.ListMembers(ctx, familyID)
	return int64(len(members)), err
}

func (r *FamilyRepository) AddMember(ctx context.Context, member *familydomain.Membership) error {
	return r.v().do(ctx, "AddMember", func(st *state) error {
		return st.addMember(r.store, member)
	})
}

func (r *FamilyRepository) DeleteMember(ctx context.Context, familyID, userID string) (bool, error) {
	var deleted bool
	err := r.v().do(ctx, "DeleteMember", func(st *state) error {
		member, ok := st.findMember(familyID, userID)
		if ok {
			delete(st.members, member.ID)
			deleted = true
		}
		return nil
	})
	return deleted, err
}

func (r *FamilyRepository) ListMemberUserIDs(ctx context.Context, familyID string, limit int) ([]string, error) {
	var result []string
	err := r.v().read(ctx, "ListMemberUserIDs", func(st *state) error {
		for _, member := range st.familyMembers(familyID) {
			if limit > 0 && len(result) >= limit {
				break
			}
			result = append(result, member.UserID)
		}
		return nil
	})
	return result, err
}

func (r *FamilyRepository) DeleteMembers(ctx context.Context, familyID string, userIDs []string) error {
	return r.v().do(ctx, "DeleteMembers", func(st *state) error {
		for _, userID := range userIDs {
			if member, ok := st.findMember(familyID, userID); ok {
				delete(st.members, member.ID)
			}
		}
		return nil
	})
}

func (r *FamilyRepository) LockPointer(ctx context.Context, userID string) (string, error) {
	var familyID string
	err := r.v().do(ctx, "LockPointer", func(st *state) error {
		st.ensureProfile(r.store, userID)
		familyID = st.pointer(userID)
		return nil
	})
	return familyID, err
}

func (r *FamilyRepository) GetPointer(ctx context.Context, userID string) (string, error) {
	var familyID string
	err := r.v().read(ctx, "GetPointer", func(st *state) error {
		familyID = st.pointer(userID)
		return nil
	})
	return familyID, err
}

func (r *FamilyRepository) SetPointer(ctx context.Context, userID, familyID string) error {
	return r.v().do(ctx, "SetPointer", func(st *state) error {
		st.setPointer(r.store, userID, familyID)
		return nil
	})
}

func (r *FamilyRepository) ListPointerHolders(ctx context.Context, familyID string) ([]string, error) {
	var result []string
	err := r.v().read(ctx, "ListPointerHolders", func(st *state) error {
		for userID := range st.profiles {
			if st.pointer(userID) == familyID {
				result = append(result, userID)
			}
		}
		sort.Strings(result)
		return nil
	})
	return result, err
}

func (r *FamilyRepository) ClearPointers(ctx context.Context, familyID string, userIDs []string) error {
	return r.v().do(ctx, "ClearPointers", func(st *state) error {
		for _, userID := range userIDs {
			st.clearPointer(r.store, familyID, userID)
		}
		return nil
	})
}

func (r *FamilyRepository) DeleteLedgerEntries(ctx context.Context, familyID string, limit int) (int64, error) {
	var deleted int64
	err := r.v().do(ctx, "DeleteLedgerEntries", func(st *state) error {
		for id, entry := range st.entries {
			if limit > 0 && deleted >= int64(limit) {
				break
			}
			if entry.FamilyID == familyID {
				delete(st.entries, id)
				deleted++
			}
		}
		return nil
	})
	return deleted, err
}

func (r *FamilyRepository) DeleteJoinRequests(ctx context.Context, familyID string, limit int) (int64, error) {
	var deleted int64
	err := r.v().do(ctx, "DeleteJoinRequests", func(st *state) error {
		for id, request := range st.requests {
			if limit > 0 && deleted >= int64(limit) {
				break
			}
			if request.FamilyID == familyID {
				delete(st.requests, id)
				deleted++
			}
		}
		return nil
	})
	return deleted, err
}

func (st *state) findMember(familyID, userID string) (familydomain.Membership, bool) {
	for _, member := range st.members {
		if member.FamilyID == familyID && member.UserID == userID {
			return member, true
		}
	}
	return familydomain.Membership{}, false
}

func (st *state) familyMembers(familyID string) []familydomain.Membership {
	result := make([]familydomain.Membership, 0)
	for _, member := range st.members {
		if member.FamilyID == familyID {
			result = append(result, member)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].JoinedAt.Before(result[j].JoinedAt)
	})
	return result
}

func (st *state) addMember(s *Store, member *familydomain.Membership) error {
	if _, ok := st.families[member.FamilyID]; !ok {
		return familydomain.ErrFamilyNotFound
	}
	if _, ok := st.findMember(member.FamilyID, member.UserID); ok {
		return familydomain.ErrAlreadyInFamily
	}
	member.JoinedAt = s.now()
	st.members[member.ID] = *member
	return nil
}
