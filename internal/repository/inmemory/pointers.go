package inmemory

import (
	profiledomain "family-ledger/internal/domain/profile"
)

func (st *state) pointer(userID string) string {
	profile, ok := st.profiles[userID]
	if !ok || profile.FamilyID == nil {
		return ""
	}
	return *profile.FamilyID
}

func (st *state) ensureProfile(s *Store, userID string) profiledomain.Profile {
	profile, ok := st.profiles[userID]
	if !ok {
		now := s.now()
		profile = profiledomain.Profile{UserID: userID, CreatedAt: now, UpdatedAt: now}
		st.profiles[userID] = profile
	}
	return profile
}

func (st *state) setPointer(s *Store, userID, familyID string) {
	profile := st.ensureProfile(s, userID)
	profile.FamilyID = &familyID
	profile.UpdatedAt = s.now()
	st.profiles[userID] = profile
}

func (st *state) clearPointer(s *Store, familyID, userID string) {
	profile, ok := st.profiles[userID]
	if !ok || profile.FamilyID == nil || *profile.FamilyID != familyID {
		return
	}
	profile.FamilyID = nil
	profile.UpdatedAt = s.now()
	st.profiles[userID] = profile
}
