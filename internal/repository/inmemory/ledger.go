package inmemory

import (
	"context"
	"sort"

	familydomain "family-ledger/internal/domain/family"
	ledgerdomain "family-ledger/internal/domain/ledger"
)

type LedgerRepository struct {
	store *Store
}

func (r *LedgerRepository) v() view {
	return view{store: r.store}
}

func (r *LedgerRepository) ListEntries(ctx context.Context, familyID string, filter ledgerdomain.ListFilter) ([]ledgerdomain.Entry, int64, error) {
	var all []ledgerdomain.Entry
	err := r.v().read(ctx, "ListEntries", func(st *state) error {
		for _, entry := range st.entries {
			if entry.FamilyID == familyID {
				all = append(all, entry)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	start := min(max(filter.Offset, 0), len(all))
	end := len(all)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(all))
	}
	return append([]ledgerdomain.Entry{}, all[start:end]...), total, nil
}

func (r *LedgerRepository) CreateEntry(ctx context.Context, entry *ledgerdomain.Entry) error {
	return r.v().do(ctx, "CreateEntry", func(st *state) error {
		if _, ok := st.families[entry.FamilyID]; !ok {
			return familydomain.ErrFamilyNotFound
		}
		entry.CreatedAt = r.store.now()
		st.entries[entry.ID] = *entry
		return nil
	})
}
