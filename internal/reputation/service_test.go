package reputation

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mahaoyang/nuxtcom/internal/config"
	"github.com/mahaoyang/nuxtcom/internal/models"
)

// newTestService opens a per-test in-memory database with the full schema and
// role catalog, and returns an engine over it. The connection pool is capped
// at one connection so goroutine-heavy tests do not trip over sqlite's
// single-writer lock.
func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.CreditLedgerEntry{},
		&models.BehaviorLogEntry{},
		&models.BlogPost{},
		&models.Comment{},
		&models.Ranking{},
	))

	for _, r := range []models.Role{
		{Name: models.RoleViewer},
		{Name: models.RoleCommenter},
		{Name: models.RoleAuthor},
		{Name: models.RoleModerator},
		{Name: models.RoleAdmin},
		{Name: models.RoleSuperAdmin, IsSuperAdmin: true},
	} {
		require.NoError(t, db.Create(&r).Error)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(db, config.DefaultPolicy(), log), db
}

// createUser inserts a user holding the named role, created at the given
// time, and returns it with the role preloaded.
func createUser(t *testing.T, db *gorm.DB, roleName string, createdAt time.Time) *models.User {
	t.Helper()

	var role models.Role
	require.NoError(t, db.Where("name = ?", roleName).First(&role).Error)

	user := models.User{
		Email:      fmt.Sprintf("u%d-%s@example.com", time.Now().UnixNano(), roleName),
		Name:       "Test User",
		Password:   "x",
		RoleID:     role.ID,
		TrustScore: 1.0,
		Status:     "active",
	}
	if !createdAt.IsZero() {
		user.CreatedAt = createdAt
	}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Preload("Role").First(&user, user.ID).Error)
	return &user
}

// roleName reloads the user and returns their current role name.
func roleName(t *testing.T, db *gorm.DB, userID uint) string {
	t.Helper()
	var user models.User
	require.NoError(t, db.Preload("Role").First(&user, userID).Error)
	return user.Role.Name
}

// insertBehavior backdates n behavior entries for the user.
func insertBehavior(t *testing.T, db *gorm.DB, userID uint, n int, at time.Time, anomalous bool) {
	t.Helper()
	for i := 0; i < n; i++ {
		entry := models.BehaviorLogEntry{
			UserID:      userID,
			Action:      "VIEW_BLOG",
			IsAnomalous: anomalous,
			CreatedAt:   at,
		}
		require.NoError(t, db.Create(&entry).Error)
	}
}
