package reputation

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mahaoyang/nuxtcom/internal/models"
)

// ActionContext carries the optional attributes of a recorded action.
type ActionContext struct {
	EntityType string
	EntityID   string
	IPAddress  string
	UserAgent  string
}

// RecordAction appends a behavior log entry for the user and returns whether
// it was flagged anomalous. An action is anomalous when, counting itself, it
// would be strictly more than the configured threshold of actions inside the
// trailing window (defaults: the 11th-or-later action inside 60 seconds).
// The flag is computed and written atomically with the insert; it is never
// revised afterwards.
//
// An anomalous action synchronously awards the SPAM_DETECTED penalty. The
// award path never logs behavior, so there is no feedback loop; a penalty
// failure is logged, never surfaced. Trust is recomputed afterwards in all
// cases, also best-effort.
func (s *Service) RecordAction(ctx context.Context, userID uint, action string, opts ActionContext) (bool, error) {
	var anomalous bool
	now := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prior int64
		since := now.Add(-s.policy.AnomalyWindow)
		if err := tx.Model(&models.BehaviorLogEntry{}).
			Where("user_id = ? AND created_at >= ?", userID, since).
			Count(&prior).Error; err != nil {
			return fmt.Errorf("count trailing actions: %w", err)
		}
		// prior+1 (this action included) > threshold
		anomalous = prior >= int64(s.policy.AnomalyThreshold)

		entry := models.BehaviorLogEntry{
			UserID:      userID,
			Action:      action,
			EntityType:  opts.EntityType,
			EntityID:    opts.EntityID,
			IsAnomalous: anomalous,
			IPAddress:   opts.IPAddress,
			UserAgent:   opts.UserAgent,
			CreatedAt:   now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("append behavior entry: %w", err)
		}

		// The engine owns last-active; a recorded action is activity by
		// definition. Zero matched rows means the user does not exist and
		// rolls back the behavior entry with it.
		res := tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("last_active_at", now)
		if res.Error != nil {
			return fmt.Errorf("update last active: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: id=%d", ErrUserNotFound, userID)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	actionRecordCount.WithLabelValues(action).Inc()

	if anomalous {
		anomalyFlagCount.Inc()
		if _, err := s.AwardCredit(ctx, userID, ActionSpamDetected, "Anomalous behavior detected", nil); err != nil {
			s.log.Warn("failed to apply spam penalty", "user_id", userID, "err", err)
		}
	}

	if _, err := s.RecomputeTrust(ctx, userID); err != nil {
		s.log.Warn("trust recomputation failed", "user_id", userID, "err", err)
	}
	return anomalous, nil
}
