package models

import "time"

// Role names seeded by internal/db. The first three form the automatic
// promotion chain; moderator, admin and superadmin are assigned only by
// administrators and are never touched by the promotion engine.
const (
	RoleViewer     = "viewer"
	RoleCommenter  = "commenter"
	RoleAuthor     = "author"
	RoleModerator  = "moderator"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// Role is an immutable catalog entry mapping a name to a permission set.
// IsSuperAdmin marks the universal-bypass role: holders are authorized for
// every permission without a table lookup.
type Role struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time    `json:"created_at"`
	Name         string       `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Description  string       `gorm:"size:255" json:"description,omitempty"`
	IsSuperAdmin bool         `gorm:"not null;default:false" json:"is_super_admin"`
	Permissions  []Permission `gorm:"many2many:role_permissions" json:"permissions,omitempty"`
}

// Permission is an immutable catalog entry identified by its Code
// (e.g. "create_comment"). Category groups permissions for admin UIs.
type Permission struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"uniqueIndex;size:64;not null" json:"code"`
	Name        string `gorm:"size:128;not null" json:"name"`
	Description string `gorm:"size:255" json:"description,omitempty"`
	Category    string `gorm:"size:64;index" json:"category,omitempty"`
}
