package session

import "time"

// Session is the single-device exclusivity record of an account. While
// Active is true, DeviceID names the only device allowed to log in.
type Session struct {
	UserID      string    `gorm:"primaryKey"`
	Active      bool      `gorm:"not null"`
	DeviceID    string    `gorm:"not null"`
	LastUpdated time.Time `gorm:"not null;default:now()"`
}
