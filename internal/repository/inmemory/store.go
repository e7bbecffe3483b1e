// Package inmemory is a process-local store adapter. Transactions run one at
// a time against a private copy of the state that replaces the shared state
// only when the body succeeds, so a failed body leaves no trace.
package inmemory

import (
	"context"
	"sync"
	"time"

	familydomain "family-ledger/internal/domain/family"
	joinrequestdomain "family-ledger/internal/domain/joinrequest"
	ledgerdomain "family-ledger/internal/domain/ledger"
	profiledomain "family-ledger/internal/domain/profile"
	sessiondomain "family-ledger/internal/domain/session"
)

type Store struct {
	mu     sync.Mutex
	state  *state
	faults map[string]error
	last   time.Time
}

type state struct {
	sessions map[string]sessiondomain.Session
	families map[string]familydomain.Family
	members  map[string]familydomain.Membership
	profiles map[string]profiledomain.Profile
	requests map[string]joinrequestdomain.JoinRequest
	entries  map[string]ledgerdomain.Entry
}

func NewStore() *Store {
	return &Store{
		state: &state{
			sessions: make(map[string]sessiondomain.Session),
			families: make(map[string]familydomain.Family),
			members:  make(map[string]familydomain.Membership),
			profiles: make(map[string]profiledomain.Profile),
			requests: make(map[string]joinrequestdomain.JoinRequest),
			entries:  make(map[string]ledgerdomain.Entry),
		},
		faults: make(map[string]error),
	}
}

// FailNext makes the next call of the named operation return err. Used to
// prove that a failing step rolls back the whole transaction.
func (s *Store) FailNext(operation string, err error) {
	s.mu.Lock()
	s.faults[operation] = err
	s.mu.Unlock()
}

func (s *Store) Families() *FamilyRepository {
	return &FamilyRepository{store: s}
}

func (s *Store) JoinRequests() *JoinRequestRepository {
	return &JoinRequestRepository{store: s}
}

func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{store: s}
}

func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{store: s}
}

func (s *Store) Ledger() *LedgerRepository {
	return &LedgerRepository{store: s}
}

// view is the handle every repository carries: inside a transaction it points
// at the staged copy and the store lock is already held.
type view struct {
	store *Store
	tx    *state
}

func (v view) transaction(ctx context.Context, fn func(view) error) error {
	if v.tx != nil {
		return fn(v)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	staged := v.store.state.clone()
	if err := fn(view{store: v.store, tx: staged}); err != nil {
		return err
	}
	v.store.state = staged
	return nil
}

// do runs fn against the current state, inside the caller's transaction or
// as a single-operation transaction of its own.
func (v view) do(ctx context.Context, operation string, fn func(st *state) error) error {
	return v.transaction(ctx, func(tx view) error {
		if err := v.store.takeFault(operation); err != nil {
			return err
		}
		return fn(tx.tx)
	})
}

// read runs fn against the current state without staging a copy.
func (v view) read(ctx context.Context, operation string, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v.tx != nil {
		if err := v.store.takeFault(operation); err != nil {
			return err
		}
		return fn(v.tx)
	}

	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	if err := v.store.takeFault(operation); err != nil {
		return err
	}
	return fn(v.store.state)
}

// takeFault is called with the store lock held.
func (s *Store) takeFault(operation string) error {
	err, ok := s.faults[operation]
	if !ok {
		return nil
	}
	delete(s.faults, operation)
	return err
}

// now hands out strictly increasing server timestamps. Called with the store
// lock held.
func (s *Store) now() time.Time {
	now := time.Now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}

func (st *state) clone() *state {
	return &state{
		sessions: cloneMap(st.sessions),
		families: cloneMap(st.families),
		members:  cloneMap(st.members),
		profiles: cloneProfiles(st.profiles),
		requests: cloneMap(st.requests),
		entries:  cloneMap(st.entries),
	}
}

func cloneMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func cloneProfiles(src map[string]profiledomain.Profile) map[string]profiledomain.Profile {
	dst := make(map[string]profiledomain.Profile, len(src))
	for k, v := range src {
		if v.FamilyID != nil {
			familyID := *v.FamilyID
			v.FamilyID = &familyID
		}
		dst[k] = v
	}
	return dst
}
