package family

import (
	"context"
	"errors"

	"family-ledger/internal/db"
	familydomain "family-ledger/internal/domain/family"
	joinrequestdomain "family-ledger/internal/domain/joinrequest"
	ledgerdomain "family-ledger/internal/domain/ledger"
	profilerepo "family-ledger/internal/repository/postgres/profile"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db         *gorm.DB
	transactor *db.Transactor
}

func NewPostgres(transactor *db.Transactor) *PostgresRepository {
	return &PostgresRepository{db: transactor.DB(), transactor: transactor}
}

// Transaction retries the whole body on serialization failures. Inside a
// transaction the repository has no transactor and nests by reuse.
func (r *PostgresRepository) Transaction(ctx context.Context, fn func(familydomain.Repository) error) error {
	if r.transactor == nil {
		return fn(r)
	}
	return r.transactor.Run(ctx, func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) GetFamily(ctx context.Context, familyID string) (*familydomain.Family, error) {
	var family familydomain.Family
	if err := r.db.WithContext(ctx).Where("id = ?", familyID).First(&family).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || db.IsInvalidInput(err) {
			return nil, familydomain.ErrFamilyNotFound
		}
		return nil, err
	}
	return &family, nil
}

func (r *PostgresRepository) FindFamilyByName(ctx context.Context, name string) (*familydomain.Family, error) {
	var family familydomain.Family
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Order("created_at asc, id asc").
		First(&family).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, familydomain.ErrFamilyNotFound
		}
		return nil, err
	}
	return &family, nil
}

func (r *PostgresRepository) CreateFamily(ctx context.Context, family *familydomain.Family) error {
	return r.db.WithContext(ctx).Create(family).Error
}

func (r *PostgresRepository) DeleteFamily(ctx context.Context, familyID string) error {
	return r.db.WithContext(ctx).Delete(&familydomain.Family{}, "id = ?", familyID).Error
}

func (r *PostgresRepository) GetMember(ctx context.Context, familyID, userID string) (*familydomain.Membership, error) {
	var member familydomain.Membership
	if err := r.db.WithContext(ctx).Where("family_id = ? AND user_id = ?", familyID, userID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || db.IsInvalidInput(err) {
			return nil, familydomain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresRepository) ListMembers(ctx context.Context, familyID string) ([]familydomain.Membership, error) {
	members := make([]familydomain.Membership, 0)
	err := r.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("joined_at asc").
		Find(&members).Error
	if db.IsInvalidInput(err) {
		return members, nil
	}
	return members, err
}

func (r *PostgresRepository) CountMembers(ctx context.Context, familyID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&familydomain.Membership{}).Where("family_id = ?", familyID).Count(&count).Error
	return count, err
}

func (r *PostgresRepository) AddMember(ctx context.Context, member *familydomain.Membership) error {
	return InsertMember(ctx, r.db, member)
}

// InsertMember maps constraint violations of family_members onto domain
// errors. Shared with the join-request repository.
func InsertMember(ctx context.Context, conn *gorm.DB, member *familydomain.Membership) error {
	err := conn.WithContext(ctx).Create(member).Error
	switch {
	case db.IsUniqueViolation(err):
		return familydomain.ErrAlreadyInFamily
	case db.IsForeignKeyViolation(err):
		return familydomain.ErrFamilyNotFound
	default:
		return err
	}
}

func (r *PostgresRepository) DeleteMember(ctx context.Context, familyID, userID string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&familydomain.Membership{}, "family_id = ? AND user_id = ?", familyID, userID)
	if db.IsInvalidInput(result.Error) {
		return false, nil
	}
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) ListMemberUserIDs(ctx context.Context, familyID string, limit int) ([]string, error) {
	var userIDs []string
	query := r.db.WithContext(ctx).
		Model(&familydomain.Membership{}).
		Where("family_id = ?", familyID).
		Order("joined_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Pluck("user_id", &userIDs).Error
	return userIDs, err
}

func (r *PostgresRepository) DeleteMembers(ctx context.Context, familyID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("family_id = ? AND user_id IN ?", familyID, userIDs).
		Delete(&familydomain.Membership{}).Error
}

func (r *PostgresRepository) LockPointer(ctx context.Context, userID string) (string, error) {
	return profilerepo.LockPointer(ctx, r.db, userID)
}

func (r *PostgresRepository) GetPointer(ctx context.Context, userID string) (string, error) {
	return profilerepo.GetPointer(ctx, r.db, userID)
}

func (r *PostgresRepository) SetPointer(ctx context.Context, userID, familyID string) error {
	return profilerepo.SetPointer(ctx, r.db, userID, familyID)
}

func (r *PostgresRepository) ListPointerHolders(ctx context.Context, familyID string) ([]string, error) {
	return profilerepo.ListPointerHolders(ctx, r.db, familyID)
}

func (r *PostgresRepository) ClearPointers(ctx context.Context, familyID string, userIDs []string) error {
	return profilerepo.ClearPointers(ctx, r.db, familyID, userIDs)
}

func (r *PostgresRepository) DeleteLedgerEntries(ctx context.Context, familyID string, limit int) (int64, error) {
	return r.deletePage(ctx, &ledgerdomain.Entry{}, familyID, limit)
}

func (r *PostgresRepository) DeleteJoinRequests(ctx context.Context, familyID string, limit int) (int64, error) {
	return r.deletePage(ctx, &joinrequestdomain.JoinRequest{}, familyID, limit)
}

// deletePage removes at most limit rows of model belonging to the family.
func (r *PostgresRepository) deletePage(ctx context.Context, model interface{}, familyID string, limit int) (int64, error) {
	page := r.db.WithContext(ctx).
		Model(model).
		Select("id").
		Where("family_id = ?", familyID)
	if limit > 0 {
		page = page.Limit(limit)
	}

	result := r.db.WithContext(ctx).Where("id IN (?)", page).Delete(model)
	return result.RowsAffected, result.Error
}
