package models

import "time"

// CreditLedgerEntry is one credit-affecting event in a user's ledger.
// Entries are append-only: they are never updated or deleted, and the user's
// cached CreditPoints is always recoverable as SUM(points) over their entries.
type CreditLedgerEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Action    string    `gorm:"size:32;not null;index" json:"action"`
	Points    float64   `gorm:"not null" json:"points"`
	Reason    string    `gorm:"size:255" json:"reason,omitempty"`
	Metadata  string    `gorm:"type:text" json:"metadata,omitempty"` // JSON blob, optional
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (CreditLedgerEntry) TableName() string {
	return "credit_ledger"
}
