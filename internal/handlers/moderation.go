package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/mahaoyang/nuxtcom/httpx"
	"github.com/mahaoyang/nuxtcom/internal/models"
	"github.com/mahaoyang/nuxtcom/internal/policy"
	"github.com/mahaoyang/nuxtcom/internal/reputation"
)

type ModerationHandler struct {
	db  *gorm.DB
	rep *reputation.Service
}

func NewModerationHandler(db *gorm.DB, rep *reputation.Service) *ModerationHandler {
	return &ModerationHandler{db: db, rep: rep}
}

type flagRequest struct {
	ResourceType string `json:"resource_type"`
	ResourceID   uint   `json:"resource_id"`
	Reason       string `json:"reason"`
}

// Flag hides a piece of content and applies the CONTENT_FLAGGED penalty to
// its author. Guarded by moderate_content at the router.
func (h *ModerationHandler) Flag(w http.ResponseWriter, r *http.Request) {
	var req flagRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	var authorID uint
	switch req.ResourceType {
	case policy.ResourcePost:
		var post models.BlogPost
		if err := h.db.WithContext(r.Context()).First(&post, req.ResourceID).Error; err != nil {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		authorID = post.AuthorID
		h.db.Model(&models.BlogPost{}).Where("id = ?", post.ID).
			UpdateColumn("status", "FLAGGED")
	case policy.ResourceComment:
		var comment models.Comment
		if err := h.db.WithContext(r.Context()).First(&comment, req.ResourceID).Error; err != nil {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		authorID = comment.AuthorID
		h.db.Model(&models.Comment{}).Where("id = ?", comment.ID).
			UpdateColumn("status", "hidden")
	default:
		httpx.JSONError(w, http.StatusBadRequest, "invalid_resource_type", nil)
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "Content flagged by moderator"
	}
	if _, err := h.rep.AwardCredit(r.Context(), authorID, reputation.ActionContentFlag, reason,
		map[string]any{"resource_type": req.ResourceType, "resource_id": req.ResourceID}); err != nil {
		logger(r).Warn("flag penalty failed", "author_id", authorID, "err", err)
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
}
