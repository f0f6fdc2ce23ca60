package reputation

import (
	"context"
	"fmt"
	"time"

	"github.com/mahaoyang/nuxtcom/internal/models"
)

// anomalyWeight caps the trust penalty at half the scale even when every
// recent action was anomalous (ratio 1.0 floors the score at 0.5). The
// damping is deliberate: a saturated spammer keeps a nonzero score and can
// age back to 1.0 as flagged entries leave the window.
const anomalyWeight = 0.5

// RecomputeTrust derives the user's trust score from the anomaly ratio over
// the trailing trust window and overwrites the cached score. It is a pure
// derivation from the behavior log: idempotent, and safe to re-run at any
// time as a reconciliation step. A user with no recent activity scores 1.0.
func (s *Service) RecomputeTrust(ctx context.Context, userID uint) (float64, error) {
	since := time.Now().Add(-s.policy.TrustWindow)

	var total, anomalous int64
	if err := s.db.WithContext(ctx).Model(&models.BehaviorLogEntry{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count behavior entries: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.BehaviorLogEntry{}).
		Where("user_id = ? AND created_at >= ? AND is_anomalous = ?", userID, since, true).
		Count(&anomalous).Error; err != nil {
		return 0, fmt.Errorf("count anomalous entries: %w", err)
	}

	ratio := float64(anomalous) / float64(max(total, 1))
	score := 1.0 - ratio*anomalyWeight
	if score < 0 {
		score = 0
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("trust_score", score)
	if res.Error != nil {
		return 0, fmt.Errorf("write trust score: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("%w: id=%d", ErrUserNotFound, userID)
	}
	return score, nil
}
