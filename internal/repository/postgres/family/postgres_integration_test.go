//go:build integration

package family_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"family-ledger/internal/db"
	familydomain "family-ledger/internal/domain/family"
	joinrequestdomain "family-ledger/internal/domain/joinrequest"
	ledgerdomain "family-ledger/internal/domain/ledger"
	familyrepo "family-ledger/internal/repository/postgres/family"
	joinrequestrepo "family-ledger/internal/repository/postgres/joinrequest"
	ledgerrepo "family-ledger/internal/repository/postgres/ledger"
	"family-ledger/internal/testutils"
	"family-ledger/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	code := m.Run()
	testutils.Purge()
	os.Exit(code)
}

type stack struct {
	families *familydomain.Service
	requests *joinrequestdomain.Service
	repo     *familyrepo.PostgresRepository
	ledger   *ledgerrepo.PostgresRepository
}

func newStack(t *testing.T, pageSize int) stack {
	conn := testutils.Postgres(t)
	transactor := db.NewTransactor(conn, 3)
	repo := familyrepo.NewPostgres(transactor)
	families := familydomain.NewService(repo, nil, logger.Nop(), familydomain.Options{EnforceAdmin: true, CascadePageSize: pageSize})
	requests := joinrequestdomain.NewService(joinrequestrepo.NewPostgres(transactor), families, nil, logger.Nop(), joinrequestdomain.Options{EnforceAdmin: true})
	return stack{families: families, requests: requests, repo: repo, ledger: ledgerrepo.NewPostgres(conn)}
}

func TestPostgresMembershipLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, 200)

	family, err := s.families.CreateFamily(ctx, "A", "Perez", "Mom")
	require.NoError(t, err)
	require.False(t, family.CreatedAt.IsZero())

	_, err = s.families.CreateFamily(ctx, "A", "Garcia", "Mom")
	require.ErrorIs(t, err, familydomain.ErrAlreadyInFamily)

	request, err := s.requests.SubmitByName(ctx, "Perez", "B", "Bobby")
	require.NoError(t, err)
	require.NoError(t, s.requests.Approve(ctx, "A", family.ID, "B", "Bobby", request.ID))

	pointer, err := s.repo.GetPointer(ctx, "B")
	require.NoError(t, err)
	require.Equal(t, family.ID, pointer)

	require.ErrorIs(t, s.requests.Reject(ctx, "A", family.ID, request.ID), joinrequestdomain.ErrRequestNotFound)

	require.NoError(t, s.families.ExpelMember(ctx, "A", family.ID, "B"))
	pointer, err = s.repo.GetPointer(ctx, "B")
	require.NoError(t, err)
	require.Empty(t, pointer)

	_, err = s.families.GetFamily(ctx, "not-a-uuid")
	require.ErrorIs(t, err, familydomain.ErrFamilyNotFound)
}

func TestPostgresApproveRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, 200)

	family, err := s.families.CreateFamily(ctx, "A", "Perez", "Mom")
	require.NoError(t, err)
	_, err = s.families.CreateFamily(ctx, "B", "Garcia", "Bob")
	require.NoError(t, err)

	request, err := s.requests.Submit(ctx, family.ID, "B", "Bobby")
	require.NoError(t, err)
	err = s.requests.Approve(ctx, "A", family.ID, "B", "Bobby", request.ID)
	require.ErrorIs(t, err, familydomain.ErrAlreadyInFamily)

	pending, err := s.requests.ListPending(ctx, family.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestPostgresConcurrentApprovalsOfOneRequest(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, 200)

	family, err := s.families.CreateFamily(ctx, "A", "Perez", "Mom")
	require.NoError(t, err)
	request, err := s.requests.Submit(ctx, family.ID, "B", "Bobby")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.requests.Approve(ctx, "A", family.ID, "B", "Bobby", request.ID)
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.True(t, errors.Is(err, joinrequestdomain.ErrRequestNotFound), err)
	}
	require.Equal(t, 1, succeeded)

	members, err := s.families.ListMembers(ctx, family.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
}

func TestPostgresCascadeAcrossPages(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, 2)

	family, err := s.families.CreateFamily(ctx, "A", "Perez", "Mom")
	require.NoError(t, err)

	for i := range 5 {
		userID := fmt.Sprintf("member-%d", i)
		request, err := s.requests.Submit(ctx, family.ID, userID, userID)
		require.NoError(t, err)
		require.NoError(t, s.requests.Approve(ctx, "A", family.ID, userID, userID, request.ID))
	}
	for i := range 5 {
		require.NoError(t, s.ledger.CreateEntry(ctx, &ledgerdomain.Entry{
			ID:       uuid.NewString(),
			FamilyID: family.ID,
			UserID:   "A",
			Date:     time.Date(2026, 3, i+1, 0, 0, 0, 0, time.UTC),
			Amount:   9.99,
			Currency: "EUR",
			Title:    "bread",
		}))
	}
	_, err = s.requests.Submit(ctx, family.ID, "late", "Late")
	require.NoError(t, err)

	require.NoError(t, s.families.DeleteFamily(ctx, "A", family.ID))

	members, err := s.families.ListMembers(ctx, family.ID)
	require.NoError(t, err)
	require.Empty(t, members)
	_, total, err := s.ledger.ListEntries(ctx, family.ID, ledgerdomain.ListFilter{})
	require.NoError(t, err)
	require.Zero(t, total)
	holders, err := s.repo.ListPointerHolders(ctx, family.ID)
	require.NoError(t, err)
	require.Empty(t, holders)
}
