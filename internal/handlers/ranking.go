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

type RankingHandler struct {
	db  *gorm.DB
	rep *reputation.Service
	ag  *policy.AuthGate
}

func NewRankingHandler(db *gorm.DB, rep *reputation.Service, ag *policy.AuthGate) *RankingHandler {
	return &RankingHandler{db: db, rep: rep, ag: ag}
}

func (h *RankingHandler) List(w http.ResponseWriter, r *http.Request) {
	var rankings []models.Ranking
	if err := h.db.WithContext(r.Context()).
		Order("upvote_count DESC").Limit(100).Find(&rankings).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "query_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, rankings)
}

type createRankingRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *RankingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createRankingRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := make(validation.Violations)
	validation.Required("title", req.Title, v)
	validation.MaxLen("title", req.Title, 255, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	ranking := models.Ranking{AuthorID: userID, Title: req.Title, Content: req.Content}
	if err := h.db.WithContext(r.Context()).Create(&ranking).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "create_error", nil)
		return
	}

	if _, err := h.rep.RecordAction(r.Context(), userID, "CREATE_RANKING", reputation.ActionContext{
		EntityType: "RANKING",
		EntityID:   strconv.FormatUint(uint64(ranking.ID), 10),
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
	}); err != nil {
		logger(r).Warn("ranking behavior log failed", "user_id", userID, "err", err)
	}

	httpx.JSON(w, http.StatusCreated, ranking)
}

// Upvote credits the ranking's author with RANKING_UPVOTE.
func (h *RankingHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())

	var ranking models.Ranking
	if err := h.db.WithContext(r.Context()).First(&ranking, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	h.db.Model(&models.Ranking{}).Where("id = ?", id).
		UpdateColumn("upvote_count", gorm.Expr("upvote_count + 1"))

	ctx := r.Context()
	if ranking.AuthorID != userID {
		if _, err := h.rep.AwardCredit(ctx, ranking.AuthorID, reputation.ActionRankingUpvote,
			"Ranking upvoted", map[string]any{"ranking_id": ranking.ID}); err != nil {
			logger(r).Warn("ranking upvote credit failed", "author_id", ranking.AuthorID, "err", err)
		}
	}
	if _, err := h.rep.RecordAction(ctx, userID, "UPVOTE_RANKING", reputation.ActionContext{
		EntityType: "RANKING",
		EntityID:   strconv.FormatUint(uint64(ranking.ID), 10),
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
	}); err != nil {
		logger(r).Warn("upvote behavior log failed", "user_id", userID, "err", err)
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
}
