package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeLedgerRepo struct {
	entries    []Entry
	lastFilter ListFilter
}

func (r *fakeLedgerRepo) ListEntries(ctx context.Context, familyID string, filter ListFilter) ([]Entry, int64, error) {
	r.lastFilter = filter
	var result []Entry
	for _, entry := range r.entries {
		if entry.FamilyID == familyID {
			result = append(result, entry)
		}
	}
	return result, int64(len(result)), nil
}

func (r *fakeLedgerRepo) CreateEntry(ctx context.Context, entry *Entry) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func TestCreateEntryNormalizes(t *testing.T) {
	repo := &fakeLedgerRepo{}
	svc := NewService(repo)

	entry, err := svc.CreateEntry(context.Background(), CreateEntryInput{
		FamilyID: "fam-1",
		UserID:   "u1",
		Date:     time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Amount:   12.5,
		Currency: " eur ",
		Title:    "  Groceries ",
	})
	require.NoError(t, err)
	require.Equal(t, "EUR", entry.Currency)
	require.Equal(t, "Groceries", entry.Title)
	require.NotEmpty(t, entry.ID)
	require.Len(t, repo.entries, 1)
}

func TestCreateEntryValidation(t *testing.T) {
	svc := NewService(&fakeLedgerRepo{})
	base := CreateEntryInput{FamilyID: "f", UserID: "u", Amount: 1, Currency: "USD", Title: "x"}

	bad := base
	bad.Currency = "US"
	_, err := svc.CreateEntry(context.Background(), bad)
	require.ErrorIs(t, err, ErrInvalidCurrency)

	bad = base
	bad.Title = " "
	_, err = svc.CreateEntry(context.Background(), bad)
	require.ErrorIs(t, err, ErrTitleRequired)

	bad = base
	bad.Amount = 0
	_, err = svc.CreateEntry(context.Background(), bad)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestListEntriesClampsLimit(t *testing.T) {
	repo := &fakeLedgerRepo{}
	svc := NewService(repo)

	_, _, err := svc.ListEntries(context.Background(), "f", ListFilter{})
	require.NoError(t, err)
	require.Equal(t, defaultListLimit, repo.lastFilter.Limit)

	_, _, err = svc.ListEntries(context.Background(), "f", ListFilter{Limit: 10000})
	require.NoError(t, err)
	require.Equal(t, maxListLimit, repo.lastFilter.Limit)
}
