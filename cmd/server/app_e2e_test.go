package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mahaoyang/nuxtcom/auth"
	"github.com/mahaoyang/nuxtcom/internal/config"
	"github.com/mahaoyang/nuxtcom/internal/db"
	"github.com/mahaoyang/nuxtcom/internal/models"
	"github.com/mahaoyang/nuxtcom/internal/policy"
	"github.com/mahaoyang/nuxtcom/internal/reputation"
)

func setupE2EApp(t *testing.T) (*App, *gorm.DB) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbi, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:e2e_%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := dbi.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(dbi); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Seed(dbi); err != nil {
		t.Fatalf("seed: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ag := policy.NewAuthGate(dbi, time.Minute)
	rep := reputation.New(dbi, config.DefaultPolicy(), log)
	rep.OnPromotion(ag.InvalidateUser)
	return NewApp(dbi, rep, ag), dbi
}

func createE2EUser(t *testing.T, dbi *gorm.DB, roleName string) *models.User {
	t.Helper()
	var role models.Role
	if err := dbi.Where("name = ?", roleName).First(&role).Error; err != nil {
		t.Fatalf("role %s: %v", roleName, err)
	}
	u := models.User{
		Email:    fmt.Sprintf("%s-%d@example.com", roleName, time.Now().UnixNano()),
		Password: "hash",
		RoleID:   role.ID,
		Status:   "active",
	}
	if err := dbi.Create(&u).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	return &u
}

func sessionCookie(t *testing.T, userID uint) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	auth.CreateSession(rec, userID)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func doJSON(t *testing.T, app *App, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)
	return rr
}

func TestCreatePostGuardedByPermission(t *testing.T) {
	app, dbi := setupE2EApp(t)
	viewer := createE2EUser(t, dbi, models.RoleViewer)
	author := createE2EUser(t, dbi, models.RoleAuthor)

	payload := map[string]any{"title": "Hello", "content": "World"}

	// Anonymous: 401
	rr := doJSON(t, app, http.MethodPost, "/api/blogs", payload, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d body=%s", rr.Code, rr.Body.String())
	}

	// Viewer lacks create_post: 403
	rr = doJSON(t, app, http.MethodPost, "/api/blogs", payload, sessionCookie(t, viewer.ID))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d body=%s", rr.Code, rr.Body.String())
	}

	// Author: 201, earns the POST credit
	rr = doJSON(t, app, http.MethodPost, "/api/blogs", payload, sessionCookie(t, author.ID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", rr.Code, rr.Body.String())
	}

	var reloaded models.User
	if err := dbi.First(&reloaded, author.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.CreditPoints != 10 {
		t.Fatalf("expected 10 credit points after POST award, got %v", reloaded.CreditPoints)
	}
}

func TestCreatePostRejectsMissingFields(t *testing.T) {
	app, dbi := setupE2EApp(t)
	author := createE2EUser(t, dbi, models.RoleAuthor)

	rr := doJSON(t, app, http.MethodPost, "/api/blogs",
		map[string]any{"title": "", "content": "body"}, sessionCookie(t, author.ID))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error != "validation_failed" || resp.Details["title"] != "required" {
		t.Fatalf("expected title violation, got %+v", resp)
	}

	// Nothing persisted, nothing credited.
	var posts int64
	dbi.Model(&models.BlogPost{}).Count(&posts)
	if posts != 0 {
		t.Fatalf("expected no posts, got %d", posts)
	}
}

func TestViewBlogFeedsReputationEngine(t *testing.T) {
	app, dbi := setupE2EApp(t)
	author := createE2EUser(t, dbi, models.RoleAuthor)
	reader := createE2EUser(t, dbi, models.RoleViewer)

	post := models.BlogPost{AuthorID: author.ID, Title: "T", Slug: "t-e2e", Content: "c", Status: "PUBLISHED"}
	if err := dbi.Create(&post).Error; err != nil {
		t.Fatal(err)
	}

	cookie := sessionCookie(t, reader.ID)
	rr := doJSON(t, app, http.MethodGet, "/api/blogs/t-e2e", nil, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}

	var behaviorCount int64
	dbi.Model(&models.BehaviorLogEntry{}).Where("user_id = ?", reader.ID).Count(&behaviorCount)
	if behaviorCount != 1 {
		t.Fatalf("expected 1 behavior entry, got %d", behaviorCount)
	}

	// VIEW credit awarded once; a second read inside the cooldown earns none.
	rr = doJSON(t, app, http.MethodGet, "/api/blogs/t-e2e", nil, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	var reloaded models.User
	if err := dbi.First(&reloaded, reader.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.CreditPoints != 0.5 {
		t.Fatalf("expected 0.5 credit points, got %v", reloaded.CreditPoints)
	}
}

func TestSuperAdminBypassesPermissionTable(t *testing.T) {
	app, dbi := setupE2EApp(t)
	su := createE2EUser(t, dbi, models.RoleSuperAdmin)

	// superadmin has no create_post row, the bypass flag alone allows it
	rr := doJSON(t, app, http.MethodPost, "/api/blogs",
		map[string]any{"title": "Root", "content": "access"}, sessionCookie(t, su.ID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCommentFlowAndOwnership(t *testing.T) {
	app, dbi := setupE2EApp(t)
	author := createE2EUser(t, dbi, models.RoleAuthor)
	commenter := createE2EUser(t, dbi, models.RoleCommenter)
	other := createE2EUser(t, dbi, models.RoleCommenter)

	post := models.BlogPost{AuthorID: author.ID, Title: "T", Slug: "t-c", Content: "c", Status: "PUBLISHED"}
	if err := dbi.Create(&post).Error; err != nil {
		t.Fatal(err)
	}

	rr := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID),
		map[string]any{"content": "nice"}, sessionCookie(t, commenter.ID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", rr.Code, rr.Body.String())
	}
	var comment models.Comment
	if err := json.Unmarshal(rr.Body.Bytes(), &comment); err != nil {
		t.Fatal(err)
	}

	// A different user cannot delete it, even with the delete_own_comment code.
	rr = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/comments/%d", comment.ID), nil, sessionCookie(t, other.ID))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}

	// The owner can.
	rr = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/comments/%d", comment.ID), nil, sessionCookie(t, commenter.ID))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestHiddenCommentsVisibleToModeratorsOnly(t *testing.T) {
	app, dbi := setupE2EApp(t)
	author := createE2EUser(t, dbi, models.RoleAuthor)
	mod := createE2EUser(t, dbi, models.RoleModerator)

	post := models.BlogPost{AuthorID: author.ID, Title: "T", Slug: "t-h", Content: "c", Status: "PUBLISHED"}
	if err := dbi.Create(&post).Error; err != nil {
		t.Fatal(err)
	}
	for _, status := range []string{"visible", "hidden"} {
		c := models.Comment{AuthorID: author.ID, PostID: post.ID, Content: "c", Status: status}
		if err := dbi.Create(&c).Error; err != nil {
			t.Fatal(err)
		}
	}

	path := fmt.Sprintf("/api/posts/%d/comments", post.ID)

	rr := doJSON(t, app, http.MethodGet, path, nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	var listed []models.Comment
	if err := json.Unmarshal(rr.Body.Bytes(), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 {
		t.Fatalf("anonymous reader should see 1 comment, got %d", len(listed))
	}

	rr = doJSON(t, app, http.MethodGet, path, nil, sessionCookie(t, mod.ID))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 2 {
		t.Fatalf("moderator should see 2 comments, got %d", len(listed))
	}
}

func TestReseedCatalogRequiresManageRoles(t *testing.T) {
	app, dbi := setupE2EApp(t)
	admin := createE2EUser(t, dbi, models.RoleAdmin)
	viewer := createE2EUser(t, dbi, models.RoleViewer)

	rr := doJSON(t, app, http.MethodPost, "/api/admin/catalog/reseed", nil, sessionCookie(t, viewer.ID))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}

	rr = doJSON(t, app, http.MethodPost, "/api/admin/catalog/reseed", nil, sessionCookie(t, admin.ID))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}

	// The seed is idempotent; the catalog stays intact.
	var roles int64
	dbi.Model(&models.Role{}).Count(&roles)
	if roles != 6 {
		t.Fatalf("expected 6 roles after reseed, got %d", roles)
	}
}

func TestUpvoteCreditsContentAuthor(t *testing.T) {
	app, dbi := setupE2EApp(t)
	author := createE2EUser(t, dbi, models.RoleAuthor)
	voter := createE2EUser(t, dbi, models.RoleCommenter)

	post := models.BlogPost{AuthorID: author.ID, Title: "T", Slug: "t-u", Content: "c", Status: "PUBLISHED"}
	if err := dbi.Create(&post).Error; err != nil {
		t.Fatal(err)
	}
	comment := models.Comment{AuthorID: author.ID, PostID: post.ID, Content: "c", Status: "visible"}
	if err := dbi.Create(&comment).Error; err != nil {
		t.Fatal(err)
	}

	rr := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/comments/%d/upvote", comment.ID), nil, sessionCookie(t, voter.ID))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}

	var reloaded models.User
	if err := dbi.First(&reloaded, author.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.CreditPoints != 1 {
		t.Fatalf("expected author to hold 1 point from COMMENT_UPVOTE, got %v", reloaded.CreditPoints)
	}
}

func TestModerationFlagPenalizesAuthor(t *testing.T) {
	app, dbi := setupE2EApp(t)
	author := createE2EUser(t, dbi, models.RoleAuthor)
	mod := createE2EUser(t, dbi, models.RoleModerator)

	post := models.BlogPost{AuthorID: author.ID, Title: "Spam", Slug: "t-f", Content: "c", Status: "PUBLISHED"}
	if err := dbi.Create(&post).Error; err != nil {
		t.Fatal(err)
	}

	rr := doJSON(t, app, http.MethodPost, "/api/moderation/flag",
		map[string]any{"resource_type": "post", "resource_id": post.ID}, sessionCookie(t, mod.ID))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}

	var reloaded models.User
	if err := dbi.First(&reloaded, author.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.CreditPoints != -20 {
		t.Fatalf("expected -20 points after CONTENT_FLAGGED, got %v", reloaded.CreditPoints)
	}

	var flagged models.BlogPost
	if err := dbi.First(&flagged, post.ID).Error; err != nil {
		t.Fatal(err)
	}
	if flagged.Status != "FLAGGED" {
		t.Fatalf("expected FLAGGED status, got %s", flagged.Status)
	}
}

func TestReconcileEndpointRequiresAdjustCredits(t *testing.T) {
	app, dbi := setupE2EApp(t)
	admin := createE2EUser(t, dbi, models.RoleAdmin)
	user := createE2EUser(t, dbi, models.RoleViewer)

	// Drift the cache on purpose.
	if err := dbi.Model(&models.User{}).Where("id = ?", user.ID).
		UpdateColumn("credit_points", 777).Error; err != nil {
		t.Fatal(err)
	}

	rr := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/reconcile", user.ID), nil, sessionCookie(t, user.ID))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rr.Code)
	}

	rr = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/reconcile", user.ID), nil, sessionCookie(t, admin.ID))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}

	var reloaded models.User
	if err := dbi.First(&reloaded, user.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.CreditPoints != 0 {
		t.Fatalf("expected rebuilt balance 0, got %v", reloaded.CreditPoints)
	}
	if reloaded.TrustScore != 1.0 {
		t.Fatalf("expected rebuilt trust 1.0, got %v", reloaded.TrustScore)
	}
}
