package session

import (
	"context"
	"errors"

	"family-ledger/internal/db"
	sessiondomain "family-ledger/internal/domain/session"
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

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(sessiondomain.Repository) error) error {
	if r.transactor == nil {
		return fn(r)
	}
	return r.transactor.Run(ctx, func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) LockSession(ctx context.Context, userID string) (*sessiondomain.Session, error) {
	seed := sessiondomain.Session{UserID: userID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&seed).Error; err != nil {
		return nil, err
	}

	var sess sessiondomain.Session
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Take(&sess).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *PostgresRepository) GetSession(ctx context.Context, userID string) (*sessiondomain.Session, error) {
	var sess sessiondomain.Session
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sessiondomain.ErrSessionNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (r *PostgresRepository) Activate(ctx context.Context, userID, deviceID string) error {
	sess := sessiondomain.Session{UserID: userID, Active: true, DeviceID: deviceID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"active":       true,
				"device_id":    deviceID,
				"last_updated": gorm.Expr("now()"),
			}),
		}).
		Create(&sess).Error
}

func (r *PostgresRepository) Deactivate(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&sessiondomain.Session{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"active":       false,
			"last_updated": gorm.Expr("now()"),
		}).Error
}
