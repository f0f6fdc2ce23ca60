package handlers

import (
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/mahaoyang/nuxtcom/auth"
	"github.com/mahaoyang/nuxtcom/httpx"
	"github.com/mahaoyang/nuxtcom/internal/models"
	"github.com/mahaoyang/nuxtcom/internal/policy"
	"github.com/mahaoyang/nuxtcom/internal/reputation"
	"github.com/mahaoyang/nuxtcom/validation"
)

type CommentHandler struct {
	db  *gorm.DB
	rep *reputation.Service
	ag  *policy.AuthGate
}

func NewCommentHandler(db *gorm.DB, rep *reputation.Service, ag *policy.AuthGate) *CommentHandler {
	return &CommentHandler{db: db, rep: rep, ag: ag}
}

// ListForPost returns the visible comments of a post. Public; moderators
// also see hidden comments.
func (h *CommentHandler) ListForPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	q := h.db.WithContext(r.Context()).Where("post_id = ?", postID)
	if !h.ag.Can(r.Context(), "moderate_content") {
		q = q.Where("status = ?", "visible")
	}
	var comments []models.Comment
	if err := q.Order("created_at ASC").Find(&comments).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "query_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, comments)
}

type createCommentRequest struct {
	Content string `json:"content"`
}

// Create adds a comment to a post (create_comment at the router) and earns
// the COMMENT credit.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createCommentRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := make(validation.Violations)
	validation.Required("content", req.Content, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	var post models.BlogPost
	if err := h.db.WithContext(r.Context()).First(&post, postID).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	comment := models.Comment{
		AuthorID: userID,
		PostID:   postID,
		Content:  req.Content,
		Status:   "visible",
	}
	if err := h.db.WithContext(r.Context()).Create(&comment).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "create_error", nil)
		return
	}

	ctx := r.Context()
	if _, err := h.rep.AwardCredit(ctx, userID, reputation.ActionComment, "Created comment", nil); err != nil {
		logger(r).Warn("comment credit failed", "user_id", userID, "err", err)
	}
	if _, err := h.rep.RecordAction(ctx, userID, "CREATE_COMMENT", reputation.ActionContext{
		EntityType: "COMMENT",
		EntityID:   strconv.FormatUint(uint64(comment.ID), 10),
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
	}); err != nil {
		logger(r).Warn("comment behavior log failed", "user_id", userID, "err", err)
	}

	httpx.JSON(w, http.StatusCreated, comment)
}

// Delete removes a comment the session user owns (delete_own_comment at the
// router, ownership here; the bypass role passes both).
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if !h.ag.CheckOwnership(r.Context(), policy.ResourceComment, id) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", "Not the owner of this comment")
		return
	}
	if err := h.db.WithContext(r.Context()).Delete(&models.Comment{}, id).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "delete_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Upvote credits the comment's author with COMMENT_UPVOTE.
func (h *CommentHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())

	var comment models.Comment
	if err := h.db.WithContext(r.Context()).First(&comment, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	h.db.Model(&models.Comment{}).Where("id = ?", id).
		UpdateColumn("upvote_count", gorm.Expr("upvote_count + 1"))

	ctx := r.Context()
	if comment.AuthorID != userID {
		if _, err := h.rep.AwardCredit(ctx, comment.AuthorID, reputation.ActionCommentUpvote,
			"Comment upvoted", map[string]any{"comment_id": comment.ID}); err != nil {
			logger(r).Warn("comment upvote credit failed", "author_id", comment.AuthorID, "err", err)
		}
	}
	if _, err := h.rep.RecordAction(ctx, userID, "UPVOTE_COMMENT", reputation.ActionContext{
		EntityType: "COMMENT",
		EntityID:   strconv.FormatUint(uint64(comment.ID), 10),
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
	}); err != nil {
		logger(r).Warn("upvote behavior log failed", "user_id", userID, "err", err)
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
}
