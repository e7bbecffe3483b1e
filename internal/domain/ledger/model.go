package ledger

import "time"

type Entry struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	FamilyID  string    `gorm:"type:uuid;index;not null"`
	UserID    string    `gorm:"not null"`
	Date      time.Time `gorm:"type:date;not null"`
	Amount    float64   `gorm:"type:numeric(12,2);not null"`
	Currency  string    `gorm:"size:3;not null"`
	Title     string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;default:now();autoCreateTime:false"`
}

func (Entry) TableName() string {
	return "ledger_entries"
}

type CreateEntryInput struct {
	FamilyID string
	UserID   string
	Date     time.Time
	Amount   float64
	Currency string
	Title    string
}

type ListFilter struct {
	Limit  int
	Offset int
}
