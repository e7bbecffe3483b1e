package ledger

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Service is the family-scoped ledger. Callers resolve the family from the
// account's current-family pointer before calling in.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListEntries(ctx context.Context, familyID string, filter ListFilter) ([]Entry, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	return s.repo.ListEntries(ctx, familyID, filter)
}

func (s *Service) CreateEntry(ctx context.Context, input CreateEntryInput) (*Entry, error) {
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if !currencyPattern.MatchString(currency) {
		return nil, ErrInvalidCurrency
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	entry := Entry{
		ID:       uuid.NewString(),
		FamilyID: input.FamilyID,
		UserID:   input.UserID,
		Date:     input.Date,
		Amount:   input.Amount,
		Currency: currency,
		Title:    title,
	}
	if err := s.repo.CreateEntry(ctx, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
