package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mahaoyang/nuxtcom/internal/models"
)

// AwardCredit appends a ledger entry for the given action kind and bumps the
// user's cached balance by the same amount, as one transaction. The balance
// update is a SQL-side increment, so concurrent awards for the same user
// never lose points to a read-modify-write race.
//
// After the award committed, the promotion engine is evaluated for the user;
// a promotion failure is logged and does not undo the award. The awarded
// point value is returned.
func (s *Service) AwardCredit(ctx context.Context, userID uint, kind ActionKind, reason string, metadata map[string]any) (float64, error) {
	points, ok := PointsFor(kind)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
	}

	var meta string
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return 0, fmt.Errorf("encode credit metadata: %w", err)
		}
		meta = string(raw)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := models.CreditLedgerEntry{
			UserID:   userID,
			Action:   string(kind),
			Points:   points,
			Reason:   reason,
			Metadata: meta,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}
		res := tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("credit_points", gorm.Expr("credit_points + ?", points))
		if res.Error != nil {
			return fmt.Errorf("update cached balance: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: id=%d", ErrUserNotFound, userID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	creditAwardCount.WithLabelValues(string(kind)).Inc()

	if err := s.EvaluatePromotion(ctx, userID); err != nil {
		s.log.Warn("promotion evaluation failed after credit award",
			"user_id", userID, "action", kind, "err", err)
	}
	return points, nil
}

// HasCreditSince reports whether the user already has a ledger entry of the
// given kind at or after the cutoff. Call sites use it to dedupe repeatable
// awards (one VIEW credit per hour, one DAILY_LOGIN per day).
func (s *Service) HasCreditSince(ctx context.Context, userID uint, kind ActionKind, since time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.CreditLedgerEntry{}).
		Where("user_id = ? AND action = ? AND created_at >= ?", userID, string(kind), since).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("query ledger: %w", err)
	}
	return count > 0, nil
}

// RebuildBalance recomputes the user's cached balance as the sum of their
// ledger entries and overwrites the cache. It is the reconciliation
// primitive for the materialized balance; the hot path never needs it.
func (s *Service) RebuildBalance(ctx context.Context, userID uint) (float64, error) {
	var sum float64
	err := s.db.WithContext(ctx).Model(&models.CreditLedgerEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("sum ledger: %w", err)
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("credit_points", sum)
	if res.Error != nil {
		return 0, fmt.Errorf("write rebuilt balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("%w: id=%d", ErrUserNotFound, userID)
	}
	return sum, nil
}
