package profile

import "time"

// Profile is the account's profile record. FamilyID is the current-family
// pointer: nil when the account belongs to no family.
type Profile struct {
	UserID    string    `gorm:"primaryKey"`
	Email     *string   `gorm:"type:text"`
	AvatarURL *string   `gorm:"type:text"`
	FamilyID  *string   `gorm:"type:uuid"`
	CreatedAt time.Time `gorm:"not null;default:now();autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;default:now();autoUpdateTime:false"`
}

func (Profile) TableName() string {
	return "user_profiles"
}
