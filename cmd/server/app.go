package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/mahaoyang/nuxtcom/auth"
	"github.com/mahaoyang/nuxtcom/internal/handlers"
	"github.com/mahaoyang/nuxtcom/internal/policy"
	"github.com/mahaoyang/nuxtcom/internal/reputation"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux *http.ServeMux
	db  *gorm.DB
	rep *reputation.Service
	ag  *policy.AuthGate
}

// NewApp creates a new application with all routes configured.
func NewApp(db *gorm.DB, rep *reputation.Service, ag *policy.AuthGate) *App {
	app := &App{
		mux: http.NewServeMux(),
		db:  db,
		rep: rep,
		ag:  ag,
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Global middleware: session user id onto the request context.
	auth.Middleware(a.mux).ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	ah := handlers.NewAuthHandler(a.db, a.rep)
	bh := handlers.NewBlogHandler(a.db, a.rep, a.ag)
	ch := handlers.NewCommentHandler(a.db, a.rep, a.ag)
	rh := handlers.NewRankingHandler(a.db, a.rep, a.ag)
	mh := handlers.NewModerationHandler(a.db, a.rep)
	adh := handlers.NewAdminHandler(a.db, a.rep, a.ag)

	perm := a.ag.RequirePermission
	authed := a.ag.RequireAuthenticated

	// Session
	a.mux.HandleFunc("POST /api/auth/signup", ah.Signup)
	a.mux.HandleFunc("POST /api/auth/login", ah.Login)
	a.mux.HandleFunc("POST /api/auth/logout", ah.Logout)
	a.mux.Handle("GET /api/auth/me", authed(http.HandlerFunc(ah.Me)))

	// Blogs: listing and reading are public, reads still feed the
	// reputation engine for logged-in users.
	a.mux.HandleFunc("GET /api/blogs", bh.List)
	a.mux.HandleFunc("GET /api/blogs/{slug}", bh.Get)
	a.mux.Handle("POST /api/blogs",
		perm("create_post")(http.HandlerFunc(bh.Create)))
	a.mux.Handle("PUT /api/posts/{id}",
		perm("edit_own_post")(http.HandlerFunc(bh.Update)))
	a.mux.Handle("DELETE /api/posts/{id}",
		perm("delete_own_post")(http.HandlerFunc(bh.Delete)))
	a.mux.Handle("POST /api/posts/{id}/upvote",
		perm("view_content")(http.HandlerFunc(bh.Upvote)))

	// Comments
	a.mux.HandleFunc("GET /api/posts/{id}/comments", ch.ListForPost)
	a.mux.Handle("POST /api/posts/{id}/comments",
		perm("create_comment")(http.HandlerFunc(ch.Create)))
	a.mux.Handle("DELETE /api/comments/{id}",
		perm("delete_own_comment")(http.HandlerFunc(ch.Delete)))
	a.mux.Handle("POST /api/comments/{id}/upvote",
		perm("upvote_comment")(http.HandlerFunc(ch.Upvote)))

	// Rankings
	a.mux.HandleFunc("GET /api/rankings", rh.List)
	a.mux.Handle("POST /api/rankings",
		perm("create_ranking")(http.HandlerFunc(rh.Create)))
	a.mux.Handle("POST /api/rankings/{id}/upvote",
		perm("upvote_ranking")(http.HandlerFunc(rh.Upvote)))

	// Moderation & maintenance
	a.mux.Handle("POST /api/moderation/flag",
		perm("moderate_content")(http.HandlerFunc(mh.Flag)))
	a.mux.Handle("POST /api/admin/users/{id}/reconcile",
		perm("adjust_credits")(http.HandlerFunc(adh.Reconcile)))
	a.mux.Handle("POST /api/admin/catalog/reseed",
		perm("manage_roles")(http.HandlerFunc(adh.ReseedCatalog)))

	a.mux.Handle("GET /metrics", promhttp.Handler())
}
