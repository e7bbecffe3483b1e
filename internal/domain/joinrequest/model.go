package joinrequest

import "time"

const StatusPending = "pending"

// JoinRequest is a pending ask to join a family. It is consumed by approval
// or rejection and never outlives either.
type JoinRequest struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	FamilyID  string    `gorm:"type:uuid;not null;index"`
	UserID    string    `gorm:"not null"`
	Alias     string    `gorm:"not null"`
	Status    string    `gorm:"not null;default:pending"`
	CreatedAt time.Time `gorm:"not null;default:now();autoCreateTime:false"`
}
