package reputation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahaoyang/nuxtcom/internal/models"
)

func TestRecordAction_WritesEntry(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, models.RoleViewer, time.Time{})

	anomalous, err := svc.RecordAction(context.Background(), user.ID, "VIEW_BLOG", ActionContext{
		EntityType: "BLOG_POST",
		EntityID:   "42",
		IPAddress:  "203.0.113.9",
		UserAgent:  "test-agent",
	})
	require.NoError(t, err)
	assert.False(t, anomalous)

	var entry models.BehaviorLogEntry
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&entry).Error)
	assert.Equal(t, "VIEW_BLOG", entry.Action)
	assert.Equal(t, "BLOG_POST", entry.EntityType)
	assert.Equal(t, "42", entry.EntityID)
	assert.False(t, entry.IsAnomalous)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	require.NotNil(t, reloaded.LastActiveAt, "last-active should be touched")
}

func TestRecordAction_MissingUser(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.RecordAction(context.Background(), 4242, "VIEW_BLOG", ActionContext{})
	require.ErrorIs(t, err, ErrUserNotFound)

	// The rolled-back transaction must not leave an orphan entry behind.
	var count int64
	db.Model(&models.BehaviorLogEntry{}).Where("user_id = ?", 4242).Count(&count)
	assert.Zero(t, count)
}

// With the default policy, the 11th action inside the 60-second window is the
// first anomalous one.
func TestRecordAction_AnomalyThreshold(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	user := createUser(t, db, models.RoleViewer, time.Time{})

	// Nine prior entries: the 10th call is fine.
	insertBehavior(t, db, user.ID, 9, time.Now(), false)
	anomalous, err := svc.RecordAction(ctx, user.ID, "VIEW_BLOG", ActionContext{})
	require.NoError(t, err)
	assert.False(t, anomalous, "10th action in window should not be anomalous")

	// Now ten prior entries: the 11th call trips the detector.
	anomalous, err = svc.RecordAction(ctx, user.ID, "VIEW_BLOG", ActionContext{})
	require.NoError(t, err)
	assert.True(t, anomalous, "11th action in window should be anomalous")
}

func TestRecordAction_OldEntriesOutsideWindowIgnored(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, models.RoleViewer, time.Time{})

	// A burst well outside the 60-second window must not count.
	insertBehavior(t, db, user.ID, 50, time.Now().Add(-10*time.Minute), false)

	anomalous, err := svc.RecordAction(context.Background(), user.ID, "VIEW_BLOG", ActionContext{})
	require.NoError(t, err)
	assert.False(t, anomalous)
}

// An anomalous action costs exactly one SPAM_DETECTED ledger entry and does
// not recurse into further behavior logging.
func TestRecordAction_PenaltyFeedback(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	user := createUser(t, db, models.RoleViewer, time.Time{})

	insertBehavior(t, db, user.ID, 10, time.Now(), false)

	anomalous, err := svc.RecordAction(ctx, user.ID, "VIEW_BLOG", ActionContext{})
	require.NoError(t, err)
	require.True(t, anomalous)

	var penalties []models.CreditLedgerEntry
	require.NoError(t, db.Where("user_id = ? AND action = ?", user.ID, "SPAM_DETECTED").
		Find(&penalties).Error)
	require.Len(t, penalties, 1)
	assert.Equal(t, -10.0, penalties[0].Points)
	assert.Equal(t, "Anomalous behavior detected", penalties[0].Reason)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, -10.0, reloaded.CreditPoints)

	// 10 seeded + 1 recorded: the penalty award wrote no behavior entry.
	var behaviorCount int64
	db.Model(&models.BehaviorLogEntry{}).Where("user_id = ?", user.ID).Count(&behaviorCount)
	assert.EqualValues(t, 11, behaviorCount)
}

func TestRecordAction_AnomalyFlagIsImmutable(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	user := createUser(t, db, models.RoleViewer, time.Time{})

	insertBehavior(t, db, user.ID, 10, time.Now(), false)
	_, err := svc.RecordAction(ctx, user.ID, "VIEW_BLOG", ActionContext{})
	require.NoError(t, err)

	// Quiet period: new actions are clean again, old flags stay set.
	require.NoError(t, db.Model(&models.BehaviorLogEntry{}).
		Where("user_id = ?", user.ID).
		UpdateColumn("created_at", time.Now().Add(-5*time.Minute)).Error)

	anomalous, err := svc.RecordAction(ctx, user.ID, "VIEW_BLOG", ActionContext{})
	require.NoError(t, err)
	assert.False(t, anomalous)

	var flagged int64
	db.Model(&models.BehaviorLogEntry{}).
		Where("user_id = ? AND is_anomalous = ?", user.ID, true).Count(&flagged)
	assert.EqualValues(t, 1, flagged)
}

func TestRecordAction_CustomPolicyThreshold(t *testing.T) {
	svc, db := newTestService(t)
	svc.policy.AnomalyThreshold = 2
	svc.policy.AnomalyWindow = 60 * time.Second
	ctx := context.Background()
	user := createUser(t, db, models.RoleViewer, time.Time{})

	insertBehavior(t, db, user.ID, 2, time.Now(), false)
	anomalous, err := svc.RecordAction(ctx, user.ID, "VIEW_BLOG", ActionContext{})
	require.NoError(t, err)
	assert.True(t, anomalous, "third action should trip a threshold of 2")
}
