package profile

import (
	"context"
	"errors"

	profiledomain "family-ledger/internal/domain/profile"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) UpsertProfile(ctx context.Context, profile *profiledomain.Profile) error {
	updates := map[string]interface{}{
		"updated_at": gorm.Expr("now()"),
	}
	if profile.Email != nil {
		updates["email"] = profile.Email
	}
	if profile.AvatarURL != nil {
		updates["avatar_url"] = profile.AvatarURL
	}

	// The pointer is never written here; it belongs to the membership flows.
	return r.db.WithContext(ctx).
		Omit("family_id").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(updates),
		}).
		Create(profile).Error
}

func (r *PostgresRepository) GetFamilyID(ctx context.Context, userID string) (string, error) {
	return GetPointer(ctx, r.db, userID)
}

// The helpers below are the only code that touches user_profiles.family_id.
// Membership repositories call them with their transaction handle.

// LockPointer makes sure the profile row exists, then locks it and returns
// the current pointer.
func LockPointer(ctx context.Context, conn *gorm.DB, userID string) (string, error) {
	seed := profiledomain.Profile{UserID: userID}
	if err := conn.WithContext(ctx).
		Omit("family_id").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&seed).Error; err != nil {
		return "", err
	}

	var locked profiledomain.Profile
	if err := conn.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Take(&locked).Error; err != nil {
		return "", err
	}
	return pointerValue(locked.FamilyID), nil
}

func GetPointer(ctx context.Context, conn *gorm.DB, userID string) (string, error) {
	var profile profiledomain.Profile
	err := conn.WithContext(ctx).
		Select("user_id", "family_id").
		Where("user_id = ?", userID).
		Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return pointerValue(profile.FamilyID), nil
}

func SetPointer(ctx context.Context, conn *gorm.DB, userID, familyID string) error {
	profile := profiledomain.Profile{UserID: userID, FamilyID: &familyID}
	return conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"family_id":  familyID,
				"updated_at": gorm.Expr("now()"),
			}),
		}).
		Create(&profile).Error
}

func ListPointerHolders(ctx context.Context, conn *gorm.DB, familyID string) ([]string, error) {
	var userIDs []string
	err := conn.WithContext(ctx).
		Model(&profiledomain.Profile{}).
		Where("family_id = ?", familyID).
		Order("user_id").
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

// ClearPointers only touches rows that still point at familyID, so a newer
// pointer written by another flow survives.
func ClearPointers(ctx context.Context, conn *gorm.DB, familyID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	return conn.WithContext(ctx).
		Model(&profiledomain.Profile{}).
		Where("family_id = ? AND user_id IN ?", familyID, userIDs).
		Updates(map[string]interface{}{
			"family_id":  nil,
			"updated_at": gorm.Expr("now()"),
		}).Error
}

func pointerValue(familyID *string) string {
	if familyID == nil {
		return ""
	}
	return *familyID
}
