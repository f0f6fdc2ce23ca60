// Package policy is the request-level authorization layer: it resolves the
// session user to their role profile, answers permission checks, and guards
// resources with ownership checks. It owns nothing; the role/permission
// catalog lives in the database and the session in package auth.
package policy

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mahaoyang/nuxtcom/gate"
	"github.com/mahaoyang/nuxtcom/internal/models"
)

// DBProfileResolver fetches user role profiles from the database.
// It implements gate.ProfileResolver for uint user IDs.
type DBProfileResolver struct {
	DB *gorm.DB
}

// NewDBProfileResolver creates a new database-backed profile resolver.
func NewDBProfileResolver(db *gorm.DB) *DBProfileResolver {
	return &DBProfileResolver{DB: db}
}

// Resolve looks up the user's role, preloading its permission set.
// Returns nil (no error) when the user does not exist.
func (r *DBProfileResolver) Resolve(ctx context.Context, userID uint) (gate.Profile, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Preload("Role.Permissions").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if user.Role == nil {
		return nil, nil
	}
	return &roleProfile{role: user.Role}, nil
}

// roleProfile adapts a models.Role to the gate.Profile interface.
type roleProfile struct {
	role *models.Role
}

func (p *roleProfile) ID() uint     { return p.role.ID }
func (p *roleProfile) Name() string { return p.role.Name }

// Bypass reports the universal-bypass flag on the role.
func (p *roleProfile) Bypass() bool { return p.role.IsSuperAdmin }

// HasPermission checks exact membership of the code in the role's set.
func (p *roleProfile) HasPermission(code gate.Permission) bool {
	for _, perm := range p.role.Permissions {
		if gate.Permission(perm.Code) == code {
			return true
		}
	}
	return false
}

// Permissions returns the role's permission codes.
func (p *roleProfile) Permissions() []gate.Permission {
	codes := make([]gate.Permission, len(p.role.Permissions))
	for i, perm := range p.role.Permissions {
		codes[i] = gate.Permission(perm.Code)
	}
	return codes
}
