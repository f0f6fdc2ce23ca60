package handlers

import (
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mahaoyang/nuxtcom/auth"
	"github.com/mahaoyang/nuxtcom/httpx"
	"github.com/mahaoyang/nuxtcom/internal/models"
	"github.com/mahaoyang/nuxtcom/internal/policy"
	"github.com/mahaoyang/nuxtcom/internal/reputation"
	"github.com/mahaoyang/nuxtcom/validation"
)

// viewCreditCooldown limits how often reading content earns credit.
const viewCreditCooldown = time.Hour

type BlogHandler struct {
	db  *gorm.DB
	rep *reputation.Service
	ag  *policy.AuthGate
}

func NewBlogHandler(db *gorm.DB, rep *reputation.Service, ag *policy.AuthGate) *BlogHandler {
	return &BlogHandler{db: db, rep: rep, ag: ag}
}

// List returns published posts, newest first. Public.
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := pagination(r)

	var posts []models.BlogPost
	var total int64

	q := h.db.WithContext(r.Context()).Model(&models.BlogPost{}).
		Where("status = ?", "PUBLISHED")
	q.Count(&total)
	if err := q.Preload("Author").Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "query_error", nil)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"blogs": posts,
		"pagination": map[string]any{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// Get returns one post by slug and reports the view to the reputation
// engine: a behavior entry on every read, a VIEW credit at most once per
// hour. Both are side effects of a read, so neither may fail the response.
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	var post models.BlogPost
	if err := h.db.WithContext(r.Context()).Preload("Author").
		Where("slug = ?", slug).First(&post).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	h.db.Model(&models.BlogPost{}).Where("id = ?", post.ID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))

	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		ctx := r.Context()
		if _, err := h.rep.RecordAction(ctx, userID, "VIEW_BLOG", reputation.ActionContext{
			EntityType: "BLOG_POST",
			EntityID:   strconv.FormatUint(uint64(post.ID), 10),
			IPAddress:  clientIP(r),
			UserAgent:  r.UserAgent(),
		}); err != nil {
			logger(r).Warn("view behavior log failed", "user_id", userID, "err", err)
		}

		viewed, err := h.rep.HasCreditSince(ctx, userID, reputation.ActionView, time.Now().Add(-viewCreditCooldown))
		if err == nil && !viewed {
			if _, err := h.rep.AwardCredit(ctx, userID, reputation.ActionView,
				fmt.Sprintf("Viewed blog: %s", post.Title), nil); err != nil {
				logger(r).Warn("view credit failed", "user_id", userID, "err", err)
			}
		}
	}

	httpx.JSON(w, http.StatusOK, post)
}

type createPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt"`
}

// Create makes a new draft post. Guarded by the create_post permission at
// the router; earns the POST credit.
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createPostRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := make(validation.Violations)
	validation.Required("title", req.Title, v)
	validation.MaxLen("title", req.Title, 255, v)
	validation.Required("content", req.Content, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	post := models.BlogPost{
		AuthorID: userID,
		Title:    req.Title,
		Slug:     slugify(req.Title),
		Content:  req.Content,
		Excerpt:  req.Excerpt,
		Status:   "DRAFT",
	}
	if err := h.db.WithContext(r.Context()).Create(&post).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "create_error", nil)
		return
	}

	ctx := r.Context()
	if _, err := h.rep.AwardCredit(ctx, userID, reputation.ActionPost,
		fmt.Sprintf("Created blog post: %s", post.Title), nil); err != nil {
		logger(r).Warn("post credit failed", "user_id", userID, "err", err)
	}
	if _, err := h.rep.RecordAction(ctx, userID, "CREATE_BLOG", reputation.ActionContext{
		EntityType: "BLOG_POST",
		EntityID:   strconv.FormatUint(uint64(post.ID), 10),
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
	}); err != nil {
		logger(r).Warn("create behavior log failed", "user_id", userID, "err", err)
	}

	httpx.JSON(w, http.StatusCreated, post)
}

type updatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt"`
	Status  string `json:"status"`
}

// Update edits a post the session user owns (edit_own_post at the router,
// ownership here).
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if !h.ag.CheckOwnership(r.Context(), policy.ResourcePost, id) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", "Not the owner of this post")
		return
	}

	var req updatePostRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	updates := map[string]any{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Content != "" {
		updates["content"] = req.Content
	}
	if req.Excerpt != "" {
		updates["excerpt"] = req.Excerpt
	}
	if req.Status == "DRAFT" || req.Status == "PUBLISHED" {
		updates["status"] = req.Status
	}
	if err := h.db.WithContext(r.Context()).Model(&models.BlogPost{}).
		Where("id = ?", id).Updates(updates).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "update_error", nil)
		return
	}

	var post models.BlogPost
	h.db.First(&post, id)
	httpx.JSON(w, http.StatusOK, post)
}

// Delete removes a post the session user owns.
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if !h.ag.CheckOwnership(r.Context(), policy.ResourcePost, id) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", "Not the owner of this post")
		return
	}
	if err := h.db.WithContext(r.Context()).Delete(&models.BlogPost{}, id).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "delete_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Upvote credits the post's author with POST_UPVOTE.
func (h *BlogHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())

	var post models.BlogPost
	if err := h.db.WithContext(r.Context()).First(&post, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	h.db.Model(&models.BlogPost{}).Where("id = ?", id).
		UpdateColumn("upvote_count", gorm.Expr("upvote_count + 1"))

	ctx := r.Context()
	if post.AuthorID != userID {
		if _, err := h.rep.AwardCredit(ctx, post.AuthorID, reputation.ActionPostUpvote,
			"Blog post upvoted", map[string]any{"post_id": post.ID}); err != nil {
			logger(r).Warn("post upvote credit failed", "author_id", post.AuthorID, "err", err)
		}
	}
	if _, err := h.rep.RecordAction(ctx, userID, "UPVOTE_BLOG", reputation.ActionContext{
		EntityType: "BLOG_POST",
		EntityID:   strconv.FormatUint(uint64(post.ID), 10),
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
	}); err != nil {
		logger(r).Warn("upvote behavior log failed", "user_id", userID, "err", err)
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
}

// slugify derives a URL slug from the title plus a short random suffix to
// dodge collisions.
func slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, c := range strings.ToLower(title) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	return fmt.Sprintf("%s-%06x", slug, rand.Intn(1<<24))
}
