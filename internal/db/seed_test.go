package db

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mahaoyang/nuxtcom/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	d, err := gorm.Open(sqlite.Open("file:seedtest?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := d.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(d); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestSeedIdempotent(t *testing.T) {
	d := openTestDB(t)

	if err := Seed(d); err != nil {
		t.Fatal(err)
	}
	if err := Seed(d); err != nil {
		t.Fatal(err)
	}

	var roleCount, permCount int64
	d.Model(&models.Role{}).Count(&roleCount)
	d.Model(&models.Permission{}).Count(&permCount)
	if roleCount != 6 {
		t.Fatalf("expected 6 roles, got %d", roleCount)
	}
	if permCount != 20 {
		t.Fatalf("expected 20 permissions, got %d", permCount)
	}

	// Baseline entries exist exactly once
	var c int64
	d.Model(&models.Role{}).Where("name = ?", models.RoleViewer).Count(&c)
	if c != 1 {
		t.Fatalf("viewer role duplicated or missing: %d", c)
	}
	d.Model(&models.Permission{}).Where("code = ?", "view_content").Count(&c)
	if c != 1 {
		t.Fatalf("view_content permission duplicated or missing: %d", c)
	}
}

func TestSeedRoleAssignments(t *testing.T) {
	d := openTestDB(t)
	if err := Seed(d); err != nil {
		t.Fatal(err)
	}

	assignments := map[string]int{
		models.RoleViewer:     1,
		models.RoleCommenter:  5,
		models.RoleAuthor:     11,
		models.RoleModerator:  15,
		models.RoleAdmin:      20,
		models.RoleSuperAdmin: 0, // bypass flag instead of explicit codes
	}
	for name, want := range assignments {
		var role models.Role
		if err := d.Preload("Permissions").Where("name = ?", name).First(&role).Error; err != nil {
			t.Fatalf("load role %s: %v", name, err)
		}
		if got := len(role.Permissions); got != want {
			t.Errorf("role %s: expected %d permissions, got %d", name, want, got)
		}
	}

	var superadmin models.Role
	if err := d.Where("name = ?", models.RoleSuperAdmin).First(&superadmin).Error; err != nil {
		t.Fatal(err)
	}
	if !superadmin.IsSuperAdmin {
		t.Error("superadmin role must carry the bypass flag")
	}
}
