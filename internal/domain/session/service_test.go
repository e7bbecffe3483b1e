package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"family-ledger/internal/identity"
	"family-ledger/pkg/logger"
	"github.com/stretchr/testify/require"
)

type fakeSessionRepo struct {
	mu            sync.Mutex
	sessions      map[string]*Session
	deactivateErr error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*Session)}
}

// Transaction serializes bodies, which is what the row lock gives us in
// postgres. Writes are staged on a copy and applied on success.
func (r *fakeSessionRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := &fakeSessionTx{parent: r, sessions: make(map[string]*Session, len(r.sessions))}
	for id, sess := range r.sessions {
		copied := *sess
		staged.sessions[id] = &copied
	}
	if err := fn(staged); err != nil {
		return err
	}
	r.sessions = staged.sessions
	return nil
}

func (r *fakeSessionRepo) LockSession(ctx context.Context, userID string) (*Session, error) {
	return nil, errors.New("lock outside transaction")
}

func (r *fakeSessionRepo) GetSession(ctx context.Context, userID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *sess
	return &copied, nil
}

func (r *fakeSessionRepo) Activate(ctx context.Context, userID, deviceID string) error {
	return r.Transaction(ctx, func(tx Repository) error { return tx.Activate(ctx, userID, deviceID) })
}

func (r *fakeSessionRepo) Deactivate(ctx context.Context, userID string) error {
	if r.deactivateErr != nil {
		return r.deactivateErr
	}
	return r.Transaction(ctx, func(tx Repository) error { return tx.Deactivate(ctx, userID) })
}

type fakeSessionTx struct {
	parent   *fakeSessionRepo
	sessions map[string]*Session
}

func (t *fakeSessionTx) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(t)
}

func (t *fakeSessionTx) LockSession(ctx context.Context, userID string) (*Session, error) {
	sess, ok := t.sessions[userID]
	if !ok {
		sess = &Session{UserID: userID}
		t.sessions[userID] = sess
	}
	copied := *sess
	return &copied, nil
}

func (t *fakeSessionTx) GetSession(ctx context.Context, userID string) (*Session, error) {
	sess, ok := t.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *sess
	return &copied, nil
}

func (t *fakeSessionTx) Activate(ctx context.Context, userID, deviceID string) error {
	t.sessions[userID] = &Session{UserID: userID, Active: true, DeviceID: deviceID, LastUpdated: time.Now()}
	return nil
}

func (t *fakeSessionTx) Deactivate(ctx context.Context, userID string) error {
	sess, ok := t.sessions[userID]
	if !ok {
		sess = &Session{UserID: userID}
		t.sessions[userID] = sess
	}
	sess.Active = false
	sess.LastUpdated = time.Now()
	return nil
}

type fakeProvider struct {
	mu        sync.Mutex
	accounts  map[string]string
	signOuts  []string
	signOutFn func() error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{accounts: map[string]string{"a@example.com": "secret"}}
}

func (p *fakeProvider) Authenticate(ctx context.Context, creds identity.Credentials) (identity.Identity, error) {
	if p.accounts[creds.Email] != creds.Password {
		return identity.Identity{}, identity.ErrAuthFailed
	}
	return identity.Identity{AccountID: "uid-" + creds.Email, Email: creds.Email, AccessToken: "tok"}, nil
}

func (p *fakeProvider) SignOut(ctx context.Context, accountID string) error {
	p.mu.Lock()
	p.signOuts = append(p.signOuts, accountID)
	p.mu.Unlock()
	if p.signOutFn != nil {
		return p.signOutFn()
	}
	return nil
}

var goodCreds = identity.Credentials{Email: "a@example.com", Password: "secret"}

func TestLoginClaimsSession(t *testing.T) {
	repo := newFakeSessionRepo()
	guard := NewGuard(repo, newFakeProvider(), logger.Nop())

	result, err := guard.Login(context.Background(), goodCreds, "device-1")
	require.NoError(t, err)
	require.Equal(t, "uid-a@example.com", result.AccountID)

	sess, err := guard.Status(context.Background(), result.AccountID)
	require.NoError(t, err)
	require.True(t, sess.Active)
	require.Equal(t, "device-1", sess.DeviceID)
}

func TestLoginAuthFailureIsNotConflict(t *testing.T) {
	repo := newFakeSessionRepo()
	guard := NewGuard(repo, newFakeProvider(), logger.Nop())

	_, err := guard.Login(context.Background(), identity.Credentials{Email: "a@example.com", Password: "nope"}, "device-1")
	require.ErrorIs(t, err, identity.ErrAuthFailed)
	require.NotErrorIs(t, err, ErrSessionConflict)
	require.Empty(t, repo.sessions)
}

func TestLoginRequiresDevice(t *testing.T) {
	guard := NewGuard(newFakeSessionRepo(), newFakeProvider(), logger.Nop())
	_, err := guard.Login(context.Background(), goodCreds, "  ")
	require.ErrorIs(t, err, ErrDeviceRequired)
}

func TestLoginFromSecondDeviceConflicts(t *testing.T) {
	repo := newFakeSessionRepo()
	provider := newFakeProvider()
	guard := NewGuard(repo, provider, logger.Nop())

	_, err := guard.Login(context.Background(), goodCreds, "device-1")
	require.NoError(t, err)

	_, err = guard.Login(context.Background(), goodCreds, "device-2")
	require.ErrorIs(t, err, ErrSessionConflict)
	require.Equal(t, []string{"uid-a@example.com"}, provider.signOuts)

	sess, err := guard.Status(context.Background(), "uid-a@example.com")
	require.NoError(t, err)
	require.Equal(t, "device-1", sess.DeviceID)
}

func TestLoginSameDeviceIsIdempotent(t *testing.T) {
	guard := NewGuard(newFakeSessionRepo(), newFakeProvider(), logger.Nop())

	_, err := guard.Login(context.Background(), goodCreds, "device-1")
	require.NoError(t, err)
	_, err = guard.Login(context.Background(), goodCreds, "device-1")
	require.NoError(t, err)
}

func TestLogoutReleasesSession(t *testing.T) {
	repo := newFakeSessionRepo()
	guard := NewGuard(repo, newFakeProvider(), logger.Nop())

	_, err := guard.Login(context.Background(), goodCreds, "device-1")
	require.NoError(t, err)
	require.NoError(t, guard.Logout(context.Background(), "uid-a@example.com"))
	require.NoError(t, guard.Logout(context.Background(), "uid-a@example.com"))

	_, err = guard.Login(context.Background(), goodCreds, "device-2")
	require.NoError(t, err)
}

func TestLogoutIsBestEffortOnStoreFailure(t *testing.T) {
	repo := newFakeSessionRepo()
	repo.deactivateErr = errors.New("store down")
	provider := newFakeProvider()
	guard := NewGuard(repo, provider, logger.Nop())

	require.NoError(t, guard.Logout(context.Background(), "uid-a@example.com"))
	require.Equal(t, []string{"uid-a@example.com"}, provider.signOuts)
}

func TestLogoutReportsUnreachableProvider(t *testing.T) {
	provider := newFakeProvider()
	provider.signOutFn = func() error { return identity.ErrUnavailable }
	guard := NewGuard(newFakeSessionRepo(), provider, logger.Nop())

	err := guard.Logout(context.Background(), "uid-a@example.com")
	require.ErrorIs(t, err, ErrUnreachable)
}

func TestConcurrentLoginsOnlyOneDeviceWins(t *testing.T) {
	repo := newFakeSessionRepo()
	guard := NewGuard(repo, newFakeProvider(), logger.Nop())

	devices := []string{"d1", "d2", "d3", "d4", "d5", "d6", "d7", "d8"}
	errs := make([]error, len(devices))

	var wg sync.WaitGroup
	for i, device := range devices {
		wg.Add(1)
		go func(i int, device string) {
			defer wg.Done()
			_, errs[i] = guard.Login(context.Background(), goodCreds, device)
		}(i, device)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		require.ErrorIs(t, err, ErrSessionConflict)
	}
	require.Equal(t, 1, winners)
}
