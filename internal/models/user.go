package models

import (
	"time"
)

// User represents a registered member of the platform.
//
// CreditPoints and TrustScore are cached projections: CreditPoints must always
// equal the sum of the user's credit ledger entries, and TrustScore is derived
// from the trailing behavior log. Both are recomputable from their source
// tables (see reputation.RebuildBalance and reputation.RecomputeTrust).
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name      string    `gorm:"size:255" json:"name,omitempty"`
	Password  string    `gorm:"size:255;not null" json:"-"` // Hashed, never exposed in JSON
	// RoleID links the user to their authorization role. Every user has a
	// role; new signups start as viewer.
	RoleID       uint    `gorm:"index;not null" json:"role_id"`
	Role         *Role   `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	CreditPoints float64 `gorm:"not null;default:0" json:"credit_points"`
	TrustScore   float64 `gorm:"not null;default:1" json:"trust_score"`
	Status       string  `gorm:"size:32;not null;default:active" json:"status"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
}
