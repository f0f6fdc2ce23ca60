package handlers

import (
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mahaoyang/nuxtcom/auth"
	"github.com/mahaoyang/nuxtcom/httpx"
	"github.com/mahaoyang/nuxtcom/internal/models"
	"github.com/mahaoyang/nuxtcom/internal/reputation"
	"github.com/mahaoyang/nuxtcom/validation"
)

type AuthHandler struct {
	db  *gorm.DB
	rep *reputation.Service
}

func NewAuthHandler(db *gorm.DB, rep *reputation.Service) *AuthHandler {
	return &AuthHandler{db: db, rep: rep}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := make(validation.Violations)
	validation.Required("email", req.Email, v)
	validation.Required("password", req.Password, v)
	if req.Email != "" {
		validation.Email("email", req.Email, v)
	}
	if req.Password != "" {
		validation.MinLen("password", req.Password, 8, v)
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "hash_error", nil)
		return
	}

	// Everybody starts as viewer; the promotion engine takes it from there.
	var viewer models.Role
	if err := h.db.Where("name = ?", models.RoleViewer).First(&viewer).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "role_catalog_error", nil)
		return
	}

	user := models.User{
		Email:    req.Email,
		Name:     req.Name,
		Password: string(hashed),
		RoleID:   viewer.ID,
		Status:   "active",
	}
	if err := h.db.Create(&user).Error; err != nil {
		httpx.JSONError(w, http.StatusConflict, "email_taken", nil)
		return
	}

	auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}

	auth.CreateSession(w, user.ID)

	// First login of the (UTC) day earns the daily credit.
	ctx := auth.WithUserID(r.Context(), user.ID)
	dayStart := time.Now().UTC().Truncate(24 * time.Hour)
	already, err := h.rep.HasCreditSince(ctx, user.ID, reputation.ActionDailyLogin, dayStart)
	if err == nil && !already {
		if _, err := h.rep.AwardCredit(ctx, user.ID, reputation.ActionDailyLogin, "Daily login", nil); err != nil {
			logger(r).Warn("daily login credit failed", "user_id", user.ID, "err", err)
		}
	}
	if _, err := h.rep.RecordAction(ctx, user.ID, "LOGIN", reputation.ActionContext{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}); err != nil {
		logger(r).Warn("login behavior log failed", "user_id", user.ID, "err", err)
	}

	httpx.JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Me returns the session user with role and permissions preloaded.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var user models.User
	if err := h.db.Preload("Role.Permissions").First(&user, userID).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
