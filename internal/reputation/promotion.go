package reputation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mahaoyang/nuxtcom/internal/models"
)

// promotionRule is one forward transition in the role chain, with the
// objective thresholds that must all hold for it to fire.
type promotionRule struct {
	from          string
	to            string
	minPoints     float64
	minAccountAge time.Duration
	maxAnomalies  int64 // flagged behavior entries allowed in the trust window
	minComments   int64
	minTrust      float64
}

// promotionRules covers the automatic chain viewer -> commenter -> author.
// Moderator, admin and superadmin are administrative-only and never assigned
// here.
var promotionRules = []promotionRule{
	{
		from:          models.RoleViewer,
		to:            models.RoleCommenter,
		minPoints:     10,
		minAccountAge: 7 * 24 * time.Hour,
		maxAnomalies:  0,
		minTrust:      0.5,
	},
	{
		from:          models.RoleCommenter,
		to:            models.RoleAuthor,
		minPoints:     50,
		minAccountAge: 30 * 24 * time.Hour,
		maxAnomalies:  -1, // not checked for this transition
		minComments:   10,
		minTrust:      0.7,
	},
}

// EvaluatePromotion checks the user against the single outgoing transition of
// their current role and applies it when every threshold holds. At most one
// transition fires per invocation, so a user can never jump two tiers off one
// credit award; the next qualifying award moves them again. The engine only
// moves forward in the chain, and exits immediately for privileged roles.
//
// A missing target role in the catalog is logged and skipped: a catalog
// misconfiguration must never fail the credit award that triggered the
// evaluation.
func (s *Service) EvaluatePromotion(ctx context.Context, userID uint) error {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: id=%d", ErrUserNotFound, userID)
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user.Role == nil {
		return fmt.Errorf("user %d has no role loaded", userID)
	}

	switch user.Role.Name {
	case models.RoleModerator, models.RoleAdmin, models.RoleSuperAdmin:
		return nil
	}

	for _, rule := range promotionRules {
		if rule.from != user.Role.Name {
			continue
		}
		ok, err := s.meetsRule(ctx, &user, rule)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		return s.applyPromotion(ctx, &user, rule)
	}
	return nil
}

func (s *Service) meetsRule(ctx context.Context, user *models.User, rule promotionRule) (bool, error) {
	if user.CreditPoints < rule.minPoints {
		return false, nil
	}
	if time.Since(user.CreatedAt) < rule.minAccountAge {
		return false, nil
	}
	if user.TrustScore < rule.minTrust {
		return false, nil
	}

	if rule.maxAnomalies >= 0 {
		since := time.Now().Add(-s.policy.TrustWindow)
		var anomalies int64
		err := s.db.WithContext(ctx).Model(&models.BehaviorLogEntry{}).
			Where("user_id = ? AND created_at >= ? AND is_anomalous = ?", user.ID, since, true).
			Count(&anomalies).Error
		if err != nil {
			return false, fmt.Errorf("count anomalies: %w", err)
		}
		if anomalies > rule.maxAnomalies {
			return false, nil
		}
	}

	if rule.minComments > 0 {
		var comments int64
		err := s.db.WithContext(ctx).Model(&models.Comment{}).
			Where("author_id = ?", user.ID).
			Count(&comments).Error
		if err != nil {
			return false, fmt.Errorf("count comments: %w", err)
		}
		if comments < rule.minComments {
			return false, nil
		}
	}
	return true, nil
}

func (s *Service) applyPromotion(ctx context.Context, user *models.User, rule promotionRule) error {
	var target models.Role
	err := s.db.WithContext(ctx).Where("name = ?", rule.to).First(&target).Error
	if err != nil {
		// Misconfigured catalog: leave the role alone.
		s.log.Error("promotion target role missing from catalog",
			"user_id", user.ID, "role", rule.to, "err", err)
		return nil
	}

	// Guard on the current role id so two concurrent evaluations apply the
	// transition once; the loser matches zero rows.
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND role_id = ?", user.ID, user.RoleID).
		UpdateColumn("role_id", target.ID)
	if res.Error != nil {
		return fmt.Errorf("write promoted role: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}

	promotionCount.WithLabelValues(rule.from, rule.to).Inc()
	s.log.Info("user promoted", "user_id", user.ID, "from", rule.from, "to", rule.to)
	if s.promoted != nil {
		s.promoted(user.ID)
	}
	return nil
}
