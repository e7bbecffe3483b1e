package inmemory

import (
	"context"

	profiledomain "family-ledger/internal/domain/profile"
)

type ProfileRepository struct {
	store *Store
}

func (r *ProfileRepository) v() view {
	return view{store: r.store}
}

func (r *ProfileRepository) UpsertProfile(ctx context.Context, profile *profiledomain.Profile) error {
	return r.v().do(ctx, "UpsertProfile", func(st *state) error {
		current := st.ensureProfile(r.store, profile.UserID)
		if profile.Email != nil {
			current.Email = profile.Email
		}
		if profile.AvatarURL != nil {
			current.AvatarURL = profile.AvatarURL
		}
		current.UpdatedAt = r.store.now()
		st.profiles[profile.UserID] = current
		return nil
	})
}

func (r *ProfileRepository) GetFamilyID(ctx context.Context, userID string) (string, error) {
	var familyID string
	err := r.v().read(ctx, "GetFamilyID", func(st *state) error {
		familyID = st.pointer(userID)
		return nil
	})
	return familyID, err
}
