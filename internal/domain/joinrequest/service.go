package joinrequest

import (
	"context"
	"strings"

	familydomain "family-ledger/internal/domain/family"
	"family-ledger/internal/pointerfeed"
	"family-ledger/pkg/logger"
	"github.com/google/uuid"
)

type Options struct {
	EnforceAdmin bool
}

// Service is the join-request workflow. Approval is the one place where a
// membership row and a pointer are written for an account other than the
// family owner, and both happen in the same transaction as consuming the
// request.
type Service struct {
	repo     Repository
	families FamilyFinder
	feed     pointerfeed.Publisher
	log      logger.Logger
	opts     Options
}

func NewService(repo Repository, families FamilyFinder, feed pointerfeed.Publisher, log logger.Logger, opts Options) *Service {
	if feed == nil {
		feed = pointerfeed.Noop()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, families: families, feed: feed, log: log, opts: opts}
}

// Submit files a pending request. Duplicate requests from the same account
// are allowed; each is resolved on its own.
func (s *Service) Submit(ctx context.Context, familyID, userID, alias string) (*JoinRequest, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}

	exists, err := s.repo.FamilyExists(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, familydomain.ErrFamilyNotFound
	}

	request := JoinRequest{
		ID:       uuid.NewString(),
		FamilyID: familyID,
		UserID:   userID,
		Alias:    strings.TrimSpace(alias),
		Status:   StatusPending,
	}
	if err := s.repo.CreateRequest(ctx, &request); err != nil {
		return nil, err
	}
	return &request, nil
}

func (s *Service) SubmitByName(ctx context.Context, familyName, userID, alias string) (*JoinRequest, error) {
	family, err := s.families.FindFamilyByName(ctx, familyName)
	if err != nil {
		return nil, err
	}
	return s.Submit(ctx, family.ID, userID, alias)
}

func (s *Service) ListPending(ctx context.Context, familyID string) ([]JoinRequest, error) {
	return s.repo.ListPending(ctx, familyID)
}

// Reject consumes the request without creating anything. Rejecting an
// already resolved request reports ErrRequestNotFound. A non-empty familyID
// must match the request's family.
func (s *Service) Reject(ctx context.Context, actorID, familyID, requestID string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		request, err := tx.LockRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if familyID != "" && request.FamilyID != familyID {
			return ErrRequestMismatch
		}
		if s.opts.EnforceAdmin {
			if err := requireAdmin(ctx, tx, request.FamilyID, actorID); err != nil {
				return err
			}
		}
		deleted, err := tx.DeleteRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrRequestNotFound
		}
		return nil
	})
}

// Approve consumes the request, creates a MEMBER membership and points the
// account at the family, all in one transaction.
func (s *Service) Approve(ctx context.Context, actorID, familyID, userID, alias, requestID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUserIDRequired
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		request, err := tx.LockRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if request.FamilyID != familyID || request.UserID != userID {
			return ErrRequestMismatch
		}
		if s.opts.EnforceAdmin {
			if err := requireAdmin(ctx, tx, familyID, actorID); err != nil {
				return err
			}
		}

		deleted, err := tx.DeleteRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrRequestNotFound
		}

		current, err := tx.LockPointer(ctx, userID)
		if err != nil {
			return err
		}
		if current != "" {
			return familydomain.ErrAlreadyInFamily
		}

		member := familydomain.Membership{
			ID:       uuid.NewString(),
			FamilyID: familyID,
			UserID:   userID,
			Alias:    strings.TrimSpace(alias),
			Role:     familydomain.RoleMember,
		}
		if err := tx.AddMember(ctx, &member); err != nil {
			return err
		}
		return tx.SetPointer(ctx, userID, familyID)
	})
	if err != nil {
		return err
	}

	if err := pointerfeed.PublishAll(ctx, s.feed, familyID, userID); err != nil {
		s.log.InternalError("joinrequest.approve: pointer change not delivered", err, "user_id", userID, "family_id", familyID)
	}
	return nil
}

func requireAdmin(ctx context.Context, repo Repository, familyID, userID string) error {
	role, err := repo.MemberRole(ctx, familyID, userID)
	if err != nil {
		return err
	}
	if role != familydomain.RoleAdmin {
		return familydomain.ErrUnauthorized
	}
	return nil
}
