package domain

import "time"

// Transaction Model, one immutable ledger entry
type Transaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`                           // Primary key
	UserID      uint      `gorm:"not null;index" json:"user_id"`                  // Owning user (back-reference)
	ItemName    string    `gorm:"size:255;not null" json:"item_name"`             // Label, product name denormalised at purchase time
	PointChange int       `gorm:"not null" json:"point_change"`                   // Negative for purchases, positive for credits
	Timestamp   time.Time `gorm:"not null;index;autoCreateTime" json:"timestamp"` // Creation time
}
