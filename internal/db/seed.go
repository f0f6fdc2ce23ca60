package db

import (
	"gorm.io/gorm"

	"github.com/mahaoyang/nuxtcom/internal/models"
)

// SeedPermissions creates the permission catalog. Idempotent: existing codes
// are left untouched.
func SeedPermissions(db *gorm.DB) error {
	permissions := []models.Permission{
		{Code: "view_content", Name: "View Content", Description: "Can view published content", Category: "content"},
		{Code: "create_comment", Name: "Create Comment", Description: "Can create comments", Category: "content"},
		{Code: "edit_own_comment", Name: "Edit Own Comment", Description: "Can edit own comments", Category: "content"},
		{Code: "delete_own_comment", Name: "Delete Own Comment", Description: "Can delete own comments", Category: "content"},
		{Code: "upvote_comment", Name: "Upvote Comment", Description: "Can upvote comments", Category: "content"},
		{Code: "create_post", Name: "Create Post", Description: "Can create blog posts", Category: "content"},
		{Code: "edit_own_post", Name: "Edit Own Post", Description: "Can edit own blog posts", Category: "content"},
		{Code: "delete_own_post", Name: "Delete Own Post", Description: "Can delete own blog posts", Category: "content"},
		{Code: "create_ranking", Name: "Create Ranking", Description: "Can create ranking entries", Category: "content"},
		{Code: "edit_own_ranking", Name: "Edit Own Ranking", Description: "Can edit own ranking entries", Category: "content"},
		{Code: "upvote_ranking", Name: "Upvote Ranking", Description: "Can upvote rankings", Category: "content"},
		{Code: "moderate_content", Name: "Moderate Content", Description: "Can moderate any content", Category: "moderation"},
		{Code: "hide_comment", Name: "Hide Comment", Description: "Can hide any comment", Category: "moderation"},
		{Code: "delete_any_content", Name: "Delete Any Content", Description: "Can delete any content", Category: "moderation"},
		{Code: "flag_user", Name: "Flag User", Description: "Can flag users for review", Category: "moderation"},
		{Code: "manage_users", Name: "Manage Users", Description: "Can manage user accounts", Category: "administration"},
		{Code: "manage_roles", Name: "Manage Roles", Description: "Can manage roles and permissions", Category: "administration"},
		{Code: "manage_categories", Name: "Manage Categories", Description: "Can manage categories", Category: "administration"},
		{Code: "adjust_credits", Name: "Adjust Credits", Description: "Can manually adjust user credits", Category: "administration"},
		{Code: "view_analytics", Name: "View Analytics", Description: "Can view system analytics", Category: "administration"},
	}

	for _, p := range permissions {
		perm := p
		result := db.Where("code = ?", p.Code).FirstOrCreate(&perm)
		if result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// rolePermissions is the static authorization table: each role's codes are a
// superset of the previous tier's, and superadmin relies on the bypass flag
// rather than explicit codes.
var (
	viewerCodes    = []string{"view_content"}
	commenterCodes = append(viewerCodes[:len(viewerCodes):len(viewerCodes)],
		"create_comment", "edit_own_comment", "delete_own_comment", "upvote_comment")
	authorCodes = append(commenterCodes[:len(commenterCodes):len(commenterCodes)],
		"create_post", "edit_own_post", "delete_own_post",
		"create_ranking", "edit_own_ranking", "upvote_ranking")
	moderatorCodes = append(authorCodes[:len(authorCodes):len(authorCodes)],
		"moderate_content", "hide_comment", "delete_any_content", "flag_user")
	adminCodes = append(moderatorCodes[:len(moderatorCodes):len(moderatorCodes)],
		"manage_users", "manage_roles", "manage_categories", "adjust_credits", "view_analytics")
)

// SeedRoles creates the six default roles with their permission assignments.
// Idempotent; permission assignments are replaced so catalog updates take
// effect on redeploy.
func SeedRoles(db *gorm.DB) error {
	if err := SeedPermissions(db); err != nil {
		return err
	}

	roles := []struct {
		Name         string
		Description  string
		IsSuperAdmin bool
		Codes        []string
	}{
		{models.RoleViewer, "Basic viewer role with read-only access", false, viewerCodes},
		{models.RoleCommenter, "Can view content and create comments", false, commenterCodes},
		{models.RoleAuthor, "Can create and edit own content", false, authorCodes},
		{models.RoleModerator, "Can moderate content and manage users", false, moderatorCodes},
		{models.RoleAdmin, "Full administrative access", false, adminCodes},
		{models.RoleSuperAdmin, "SuperAdmin with code-level overrides", true, nil},
	}

	for _, r := range roles {
		var role models.Role
		result := db.Where("name = ?", r.Name).First(&role)
		if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
			return result.Error
		}
		if result.Error == gorm.ErrRecordNotFound {
			role = models.Role{
				Name:         r.Name,
				Description:  r.Description,
				IsSuperAdmin: r.IsSuperAdmin,
			}
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}

		var perms []models.Permission
		if len(r.Codes) > 0 {
			if err := db.Where("code IN ?", r.Codes).Find(&perms).Error; err != nil {
				return err
			}
		}
		if err := db.Model(&role).Association("Permissions").Replace(perms); err != nil {
			return err
		}
	}
	return nil
}
