package domain

import "time"

// User Model
type User struct {
	ID           uint          `gorm:"primaryKey" json:"id"`                                                // Primary key, immutable
	Name         string        `gorm:"size:255;not null" json:"name"`                                       // Display name
	StudentID    string        `gorm:"size:10;uniqueIndex;not null" json:"student_id"`                      // Unique student identifier
	PasswordHash string        `gorm:"size:255;not null" json:"-"`                                          // bcrypt hash of the numeric credential
	Points       int           `gorm:"not null;default:0;check:chk_users_points,points >= 0" json:"points"` // Point balance, never negative
	IsAdmin      bool          `gorm:"not null;default:false" json:"is_admin"`                              // Admin flag, immutable
	CreatedAt    time.Time     `json:"created_at"`                                                          // Creation time
	Transactions []Transaction `gorm:"constraint:OnDelete:CASCADE;" json:"-"`                               // Ledger entries owned by the user
}

// Identity is the authenticated caller resolved from a session token.
type Identity struct {
	UserID  uint
	IsAdmin bool
}

// Anonymous reports whether the identity carries no user.
func (i Identity) Anonymous() bool {
	return i.UserID == 0
}
