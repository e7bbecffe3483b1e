package ledger

import (
	"context"

	"family-ledger/internal/db"
	familydomain "family-ledger/internal/domain/family"
	ledgerdomain "family-ledger/internal/domain/ledger"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListEntries(ctx context.Context, familyID string, filter ledgerdomain.ListFilter) ([]ledgerdomain.Entry, int64, error) {
	query := r.db.WithContext(ctx).Model(&ledgerdomain.Entry{}).Where("family_id = ?", familyID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("date desc, created_at desc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	items := make([]ledgerdomain.Entry, 0)
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresRepository) CreateEntry(ctx context.Context, entry *ledgerdomain.Entry) error {
	err := r.db.WithContext(ctx).Create(entry).Error
	if db.IsForeignKeyViolation(err) {
		return familydomain.ErrFamilyNotFound
	}
	return err
}
