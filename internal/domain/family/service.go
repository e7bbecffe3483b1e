package family

import (
	"context"
	"errors"
	"strings"

	"family-ledger/internal/pointerfeed"
	"family-ledger/pkg/logger"
	"github.com/google/uuid"
)

const defaultCascadePageSize = 200

// Service is the membership store: the authoritative mapping of accounts to
// families and roles, and the only writer of the current-family pointer
// besides join-request approval.
type Service struct {
	repo Repository
	feed pointerfeed.Publisher
	log  logger.Logger
	opts Options
}

func NewService(repo Repository, feed pointerfeed.Publisher, log logger.Logger, opts Options) *Service {
	if feed == nil {
		feed = pointerfeed.Noop()
	}
	if log == nil {
		log = logger.Nop()
	}
	if opts.CascadePageSize <= 0 {
		opts.CascadePageSize = defaultCascadePageSize
	}
	return &Service{repo: repo, feed: feed, log: log, opts: opts}
}

// CreateFamily creates the family, the owner's ADMIN membership and the
// owner's pointer in one transaction.
func (s *Service) CreateFamily(ctx context.Context, ownerID, name, ownerAlias string) (*Family, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	ownerAlias = strings.TrimSpace(ownerAlias)

	var result Family
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		current, err := tx.LockPointer(ctx, ownerID)
		if err != nil {
			return err
		}
		if current != "" {
			return ErrAlreadyInFamily
		}

		family := Family{
			ID:      uuid.NewString(),
			Name:    name,
			OwnerID: ownerID,
		}
		if err := tx.CreateFamily(ctx, &family); err != nil {
			return err
		}

		member := Membership{
			ID:       uuid.NewString(),
			FamilyID: family.ID,
			UserID:   ownerID,
			Alias:    ownerAlias,
			Role:     RoleAdmin,
		}
		if err := tx.AddMember(ctx, &member); err != nil {
			return err
		}
		if err := tx.SetPointer(ctx, ownerID, family.ID); err != nil {
			return err
		}

		result = family
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, result.ID, ownerID)
	return &result, nil
}

// FindFamilyByName resolves an exact name. Names are not unique; the
// earliest created family wins.
func (s *Service) FindFamilyByName(ctx context.Context, name string) (*Family, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	return s.repo.FindFamilyByName(ctx, name)
}

func (s *Service) GetFamily(ctx context.Context, familyID string) (*Family, error) {
	return s.repo.GetFamily(ctx, familyID)
}

// CurrentFamily resolves the account's current-family pointer.
func (s *Service) CurrentFamily(ctx context.Context, userID string) (*Family, error) {
	familyID, err := s.repo.GetPointer(ctx, userID)
	if err != nil {
		return nil, err
	}
	if familyID == "" {
		return nil, ErrFamilyNotFound
	}
	return s.repo.GetFamily(ctx, familyID)
}

func (s *Service) IsAdmin(ctx context.Context, familyID, userID string) (bool, error) {
	member, err := s.repo.GetMember(ctx, familyID, userID)
	if errors.Is(err, ErrMemberNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return member.IsAdmin(), nil
}

func (s *Service) IsMember(ctx context.Context, familyID, userID string) (bool, error) {
	_, err := s.repo.GetMember(ctx, familyID, userID)
	if errors.Is(err, ErrMemberNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Service) ListMembers(ctx context.Context, familyID string) ([]Membership, error) {
	return s.repo.ListMembers(ctx, familyID)
}

// ExpelMember removes the member and clears their pointer atomically.
func (s *Service) ExpelMember(ctx context.Context, actorID, familyID, userID string) error {
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if s.opts.EnforceAdmin {
			if err := requireAdmin(ctx, tx, familyID, actorID); err != nil {
				return err
			}
			family, err := tx.GetFamily(ctx, familyID)
			if err != nil {
				return err
			}
			if family.OwnerID == userID {
				return ErrCannotExpelOwner
			}
		}

		if _, err := tx.LockPointer(ctx, userID); err != nil {
			return err
		}
		deleted, err := tx.DeleteMember(ctx, familyID, userID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrMemberNotFound
		}
		return tx.ClearPointers(ctx, familyID, []string{userID})
	})
	if err != nil {
		return err
	}

	s.publish(ctx, "", userID)
	return nil
}

// LeaveFamily removes the caller from their current family. A sole owner
// leaving deletes the family.
func (s *Service) LeaveFamily(ctx context.Context, userID string) error {
	var dissolve string
	var left string
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		current, err := tx.LockPointer(ctx, userID)
		if err != nil {
			return err
		}
		if current == "" {
			return ErrNotInFamily
		}

		family, err := tx.GetFamily(ctx, current)
		if errors.Is(err, ErrFamilyNotFound) {
			left = current
			return tx.ClearPointers(ctx, current, []string{userID})
		}
		if err != nil {
			return err
		}

		if family.OwnerID == userID {
			count, err := tx.CountMembers(ctx, current)
			if err != nil {
				return err
			}
			if count > 1 {
				return ErrOwnerCannotLeave
			}
			dissolve = current
			return nil
		}

		if _, err := tx.DeleteMember(ctx, current, userID); err != nil {
			return err
		}
		left = current
		return tx.ClearPointers(ctx, current, []string{userID})
	})
	if err != nil {
		return err
	}

	if dissolve != "" {
		return s.cascadeDelete(ctx, dissolve)
	}
	s.publish(ctx, "", userID)
	s.log.Debug("family.leave: left", "user_id", userID, "family_id", left)
	return nil
}

// DeleteFamily removes every ledger entry, pending request and membership of
// the family in pages, then the family itself. A crash mid-way leaves the
// family row in place with fewer dependents, never dependents without it.
func (s *Service) DeleteFamily(ctx context.Context, actorID, familyID string) error {
	family, err := s.repo.GetFamily(ctx, familyID)
	if err != nil {
		return err
	}
	// The owner keeps the right to finish a cascade that already removed
	// their membership.
	if s.opts.EnforceAdmin && family.OwnerID != actorID {
		if err := requireAdmin(ctx, s.repo, familyID, actorID); err != nil {
			return err
		}
	}
	return s.cascadeDelete(ctx, familyID)
}

func (s *Service) cascadeDelete(ctx context.Context, familyID string) error {
	limit := s.opts.CascadePageSize

	if err := s.deletePaged(ctx, func(tx Repository) (int64, error) {
		return tx.DeleteLedgerEntries(ctx, familyID, limit)
	}); err != nil {
		return err
	}

	if err := s.deletePaged(ctx, func(tx Repository) (int64, error) {
		return tx.DeleteJoinRequests(ctx, familyID, limit)
	}); err != nil {
		return err
	}

	for {
		var removed []string
		err := s.repo.Transaction(ctx, func(tx Repository) error {
			userIDs, err := tx.ListMemberUserIDs(ctx, familyID, limit)
			if err != nil {
				return err
			}
			if len(userIDs) == 0 {
				return nil
			}
			if err := tx.DeleteMembers(ctx, familyID, userIDs); err != nil {
				return err
			}
			if err := tx.ClearPointers(ctx, familyID, userIDs); err != nil {
				return err
			}
			removed = userIDs
			return nil
		})
		if err != nil {
			return err
		}
		s.publish(ctx, "", removed...)
		if len(removed) < limit {
			break
		}
	}

	var stragglers []string
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		// Deleting first waits out any approval still holding the family row,
		// so the pointer sweep below sees its write.
		if err := tx.DeleteFamily(ctx, familyID); err != nil {
			return err
		}
		userIDs, err := tx.ListPointerHolders(ctx, familyID)
		if err != nil {
			return err
		}
		if err := tx.ClearPointers(ctx, familyID, userIDs); err != nil {
			return err
		}
		stragglers = userIDs
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, "", stragglers...)
	s.log.Info("family.delete: cascade complete", "family_id", familyID)
	return nil
}

func (s *Service) deletePaged(ctx context.Context, page func(tx Repository) (int64, error)) error {
	for {
		var deleted int64
		err := s.repo.Transaction(ctx, func(tx Repository) error {
			n, err := page(tx)
			deleted = n
			return err
		})
		if err != nil {
			return err
		}
		if deleted < int64(s.opts.CascadePageSize) {
			return nil
		}
	}
}

func (s *Service) publish(ctx context.Context, familyID string, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}
	if err := pointerfeed.PublishAll(ctx, s.feed, familyID, userIDs...); err != nil {
		s.log.InternalError("family.publish: pointer change not delivered", err, "family_id", familyID, "count", len(userIDs))
	}
}

func requireAdmin(ctx context.Context, repo Repository, familyID, userID string) error {
	member, err := repo.GetMember(ctx, familyID, userID)
	if errors.Is(err, ErrMemberNotFound) {
		return ErrUnauthorized
	}
	if err != nil {
		return err
	}
	if !member.IsAdmin() {
		return ErrUnauthorized
	}
	return nil
}
