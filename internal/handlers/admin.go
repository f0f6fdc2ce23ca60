package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/mahaoyang/nuxtcom/httpx"
	"github.com/mahaoyang/nuxtcom/internal/db"
	"github.com/mahaoyang/nuxtcom/internal/policy"
	"github.com/mahaoyang/nuxtcom/internal/reputation"
)

type AdminHandler struct {
	db  *gorm.DB
	rep *reputation.Service
	ag  *policy.AuthGate
}

func NewAdminHandler(db *gorm.DB, rep *reputation.Service, ag *policy.AuthGate) *AdminHandler {
	return &AdminHandler{db: db, rep: rep, ag: ag}
}

// Reconcile rebuilds a user's cached balance from the ledger and their trust
// score from the behavior log. Maintenance endpoint, guarded by
// adjust_credits at the router; the hot path never needs it.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}

	balance, err := h.rep.RebuildBalance(r.Context(), id)
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "rebuild_failed", err.Error())
		return
	}
	trust, err := h.rep.RecomputeTrust(r.Context(), id)
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "rebuild_failed", err.Error())
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":       id,
		"credit_points": balance,
		"trust_score":   trust,
	})
}

// ReseedCatalog re-runs the role/permission seed and drops every cached
// profile, so catalog changes take effect without waiting out the TTL.
// Guarded by manage_roles at the router.
func (h *AdminHandler) ReseedCatalog(w http.ResponseWriter, r *http.Request) {
	if err := db.Seed(h.db); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "seed_failed", err.Error())
		return
	}
	h.ag.InvalidateAll()
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
}
