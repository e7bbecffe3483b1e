package joinrequest

import (
	"context"
	"errors"

	"family-ledger/internal/db"
	familydomain "family-ledger/internal/domain/family"
	joinrequestdomain "family-ledger/internal/domain/joinrequest"
	familyrepo "family-ledger/internal/repository/postgres/family"
	profilerepo "family-ledger/internal/repository/postgres/profile"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db         *gorm.DB
	transactor *db.Transactor
}

func NewPostgres(transactor *db.Transactor) *PostgresRepository {
	return &PostgresRepository{db: transactor.DB(), transactor: transactor}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(joinrequestdomain.Repository) error) error {
	if r.transactor == nil {
		return fn(r)
	}
	return r.transactor.Run(ctx, func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) FamilyExists(ctx context.Context, familyID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&familydomain.Family{}).Where("id = ?", familyID).Count(&count).Error
	if db.IsInvalidInput(err) {
		return false, nil
	}
	return count > 0, err
}

func (r *PostgresRepository) CreateRequest(ctx context.Context, request *joinrequestdomain.JoinRequest) error {
	err := r.db.WithContext(ctx).Create(request).Error
	if db.IsForeignKeyViolation(err) {
		return familydomain.ErrFamilyNotFound
	}
	return err
}

func (r *PostgresRepository) ListPending(ctx context.Context, familyID string) ([]joinrequestdomain.JoinRequest, error) {
	requests := make([]joinrequestdomain.JoinRequest, 0)
	err := r.db.WithContext(ctx).
		Where("family_id = ? AND status = ?", familyID, joinrequestdomain.StatusPending).
		Order("created_at desc").
		Find(&requests).Error
	if db.IsInvalidInput(err) {
		return requests, nil
	}
	return requests, err
}

func (r *PostgresRepository) LockRequest(ctx context.Context, requestID string) (*joinrequestdomain.JoinRequest, error) {
	var request joinrequestdomain.JoinRequest
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", requestID).
		Take(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || db.IsInvalidInput(err) {
			return nil, joinrequestdomain.ErrRequestNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (r *PostgresRepository) DeleteRequest(ctx context.Context, requestID string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&joinrequestdomain.JoinRequest{}, "id = ?", requestID)
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) MemberRole(ctx context.Context, familyID, userID string) (string, error) {
	var roles []string
	err := r.db.WithContext(ctx).
		Model(&familydomain.Membership{}).
		Where("family_id = ? AND user_id = ?", familyID, userID).
		Limit(1).
		Pluck("role", &roles).Error
	if err != nil || len(roles) == 0 {
		return "", err
	}
	return roles[0], nil
}

func (r *PostgresRepository) AddMember(ctx context.Context, member *familydomain.Membership) error {
	return familyrepo.InsertMember(ctx, r.db, member)
}

func (r *PostgresRepository) LockPointer(ctx context.Context, userID string) (string, error) {
	return profilerepo.LockPointer(ctx, r.db, userID)
}

func (r *PostgresRepository) SetPointer(ctx context.Context, userID, familyID string) error {
	return profilerepo.SetPointer(ctx, r.db, userID, familyID)
}
