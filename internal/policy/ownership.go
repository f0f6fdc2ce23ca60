package policy

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mahaoyang/nuxtcom/auth"
	"github.com/mahaoyang/nuxtcom/internal/models"
)

// Resource type names accepted by CheckOwnership.
const (
	ResourcePost    = "post"
	ResourceComment = "comment"
	ResourceRanking = "ranking"
)

// ownerLookup resolves a resource id to its owner's user id.
type ownerLookup func(ctx context.Context, db *gorm.DB, id uint) (uint, error)

func lookupOwner[T any](ctx context.Context, db *gorm.DB, id uint) (uint, error) {
	var resource T
	if err := db.WithContext(ctx).First(&resource, id).Error; err != nil {
		return 0, err
	}
	owned, ok := any(&resource).(interface{ OwnerID() uint })
	if !ok {
		return 0, errors.New("resource type has no owner")
	}
	return owned.OwnerID(), nil
}

var ownerLookups = map[string]ownerLookup{
	ResourcePost:    lookupOwner[models.BlogPost],
	ResourceComment: lookupOwner[models.Comment],
	ResourceRanking: lookupOwner[models.Ranking],
}

// CheckOwnership reports whether the session user behind ctx owns the given
// resource. The universal-bypass role owns everything. Everything else fails
// closed: no session, unknown resource type, or missing resource all return
// false.
func (ag *AuthGate) CheckOwnership(ctx context.Context, resourceType string, resourceID uint) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	if profile := ag.Gate.Profile(ctx, userID); profile != nil && profile.Bypass() {
		return true
	}
	lookup, ok := ownerLookups[resourceType]
	if !ok {
		return false
	}
	ownerID, err := lookup(ctx, ag.db, resourceID)
	if err != nil {
		return false
	}
	return ownerID == userID
}
