package inmemory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	familydomain "family-ledger/internal/domain/family"
	joinrequestdomain "family-ledger/internal/domain/joinrequest"
	profiledomain "family-ledger/internal/domain/profile"
	"family-ledger/internal/domain/watcher"
	"family-ledger/internal/pointerfeed"
	"family-ledger/internal/repository/inmemory"
	"family-ledger/pkg/logger"
	"github.com/stretchr/testify/require"
)

func TestPerezScenario(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore()
	hub := pointerfeed.NewHub()
	log := logger.Nop()

	families := familydomain.NewService(store.Families(), hub, log, familydomain.Options{EnforceAdmin: true})
	requests := joinrequestdomain.NewService(store.JoinRequests(), families, hub, log, joinrequestdomain.Options{EnforceAdmin: true})
	profiles := profiledomain.NewService(store.Profiles())
	watch := watcher.New(profiles, hub, time.Hour, log)

	family, err := families.CreateFamily(ctx, "A", "Perez", "Mom")
	require.NoError(t, err)
	admin, err := families.IsAdmin(ctx, family.ID, "A")
	require.NoError(t, err)
	require.True(t, admin)
	pointer, err := profiles.CurrentFamilyID(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, family.ID, pointer)

	request, err := requests.SubmitByName(ctx, "Perez", "B", "Bobby")
	require.NoError(t, err)
	pending, err := requests.ListPending(ctx, family.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "B", pending[0].UserID)

	require.NoError(t, requests.Approve(ctx, "A", family.ID, "B", "Bobby", request.ID))
	member, err := store.Families().GetMember(ctx, family.ID, "B")
	require.NoError(t, err)
	require.Equal(t, familydomain.RoleMember, member.Role)
	pointer, err = profiles.CurrentFamilyID(ctx, "B")
	require.NoError(t, err)
	require.Equal(t, family.ID, pointer)
	pending, err = requests.ListPending(ctx, family.ID)
	require.NoError(t, err)
	require.Empty(t, pending)

	sub, err := watch.Attach(ctx, "B", family.ID)
	require.NoError(t, err)
	defer sub.Close()
	require.Eventually(t, func() bool { return sub.State() == watcher.StateConsistent }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, families.ExpelMember(ctx, "A", family.ID, "B"))
	_, err = store.Families().GetMember(ctx, family.ID, "B")
	require.ErrorIs(t, err, familydomain.ErrMemberNotFound)
	pointer, err = profiles.CurrentFamilyID(ctx, "B")
	require.NoError(t, err)
	require.Empty(t, pointer)

	select {
	case <-sub.Evicted():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report eviction")
	}
}

func TestApprovalNeverObservedHalfWritten(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore()
	families := familydomain.NewService(store.Families(), nil, nil, familydomain.Options{EnforceAdmin: true})
	requests := joinrequestdomain.NewService(store.JoinRequests(), families, nil, nil, joinrequestdomain.Options{EnforceAdmin: true})

	family, err := families.CreateFamily(ctx, "A", "Perez", "Mom")
	require.NoError(t, err)
	request, err := requests.Submit(ctx, family.ID, "B", "Bobby")
	require.NoError(t, err)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	var inconsistent bool
	wg.Add(1)
	go func() {
		defer wg.Done()
		repo := store.Families()
		for {
			select {
			case <-stop:
				return
			default:
			}
			_ = repo.Transaction(ctx, func(tx familydomain.Repository) error {
				_, memberErr := tx.GetMember(ctx, family.ID, "B")
				pointer, err := tx.GetPointer(ctx, "B")
				if err != nil {
					return err
				}
				if (memberErr == nil) != (pointer == family.ID) {
					inconsistent = true
				}
				return nil
			})
		}
	}()

	require.NoError(t, requests.Approve(ctx, "A", family.ID, "B", "Bobby", request.ID))
	close(stop)
	wg.Wait()
	require.False(t, inconsistent)
}

func TestFailNextIsConsumedOnce(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore()
	boom := errors.New("boom")

	store.FailNext("GetFamilyID", boom)
	_, err := store.Profiles().GetFamilyID(ctx, "A")
	require.ErrorIs(t, err, boom)
	_, err = store.Profiles().GetFamilyID(ctx, "A")
	require.NoError(t, err)
}

func TestTransactionHonoursCancelledContext(t *testing.T) {
	store := inmemory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Families().Transaction(ctx, func(familydomain.Repository) error {
		t.Fatal("body must not run")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestProfileUpsertKeepsPointer(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore()
	require.NoError(t, store.Families().SetPointer(ctx, "A", "fam-1"))

	email := "a@example.com"
	require.NoError(t, store.Profiles().UpsertProfile(ctx, &profiledomain.Profile{UserID: "A", Email: &email}))

	pointer, err := store.Profiles().GetFamilyID(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, "fam-1", pointer)
}
