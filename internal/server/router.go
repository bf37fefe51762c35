package server

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/acmetrans/mgcp/internal/auth"
	"github.com/acmetrans/mgcp/internal/config"
	"github.com/acmetrans/mgcp/internal/handlers"
	"github.com/acmetrans/mgcp/internal/httpx"
	"github.com/acmetrans/mgcp/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, cfg config.Config, svc *services.ProposalService) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		// Lightweight DB check (SELECT 1) – detailed errors stay out of the body
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	authHandler := handlers.NewAuthHandler(cfg)
	mux.HandleFunc("GET /login", authHandler.Login)
	mux.HandleFunc("POST /login", authHandler.Login)
	mux.HandleFunc("GET /logout", authHandler.Logout)

	admin := func(h http.HandlerFunc) http.Handler {
		return auth.RequireAdmin(h)
	}

	ph := handlers.NewProposalHandler(db, svc)
	mux.Handle("GET /{$}", admin(ph.Dashboard))
	mux.Handle("GET /dashboard", admin(ph.Dashboard))
	mux.Handle("GET /proposals", admin(ph.List))
	mux.Handle("POST /proposals", admin(ph.Create))
	mux.Handle("GET /proposals/{id}", admin(ph.Detail))
	mux.Handle("POST /proposals/{id}/send", admin(ph.Send))
	mux.Handle("POST /proposals/{id}/modify", admin(ph.Modify))
	mux.Handle("GET /api/proposals/stats", admin(ph.Stats))

	ch := handlers.NewClientHandler(db)
	mux.Handle("GET /api/clients", admin(ch.List))
	mux.Handle("POST /api/clients", admin(ch.Create))

	costs := handlers.NewCostHandler(db)
	mux.Handle("POST /costs/indirect", admin(costs.RegisterIndirect))

	// Client portal – the access token is the credential, no session involved.
	portal := handlers.NewPortalHandler(db, svc, cfg.BaseURL)
	mux.HandleFunc("GET /client/proposal/{token}", portal.View)
	mux.HandleFunc("POST /client/response/{token}", portal.Respond)
	mux.HandleFunc("POST /client/sign/{token}/{document_id}", portal.Sign)
	mux.HandleFunc("GET /client/documents/{token}", portal.Documents)

	dh := handlers.NewDocumentHandler(db)
	mux.HandleFunc("GET /documents/view/{document_id}", dh.View)
	mux.HandleFunc("GET /documents/download/{document_id}", dh.Download)

	return auth.Middleware(withRecover(mux))
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
