package family

import "time"

const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// Family is immutable after creation except for its cascading deletion.
type Family struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null;index"`
	OwnerID   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;default:now();autoCreateTime:false"`
}

// Membership links one account to one family. There is at most one row per
// (FamilyID, UserID).
type Membership struct {
	ID       string    `gorm:"type:uuid;primaryKey"`
	FamilyID string    `gorm:"type:uuid;not null;uniqueIndex:idx_family_member"`
	UserID   string    `gorm:"not null;uniqueIndex:idx_family_member"`
	Alias    string    `gorm:"not null"`
	Role     string    `gorm:"type:varchar(16);not null"`
	JoinedAt time.Time `gorm:"not null;default:now()"`
}

func (Membership) TableName() string {
	return "family_members"
}

func (m Membership) IsAdmin() bool {
	return m.Role == RoleAdmin
}

type Options struct {
	// EnforceAdmin makes mutating operations verify the actor's role
	// themselves. When false the caller is trusted to have checked IsAdmin.
	EnforceAdmin    bool
	CascadePageSize int
}
